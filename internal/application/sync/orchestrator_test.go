package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopbridge/backend/internal/domain/reconcile"
	"github.com/shopbridge/backend/internal/domain/shared"
	"github.com/shopbridge/backend/internal/infrastructure/batch"
	"github.com/shopbridge/backend/internal/infrastructure/lock"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// stubReader serves scripted per-key values for one platform and counts
// how many reads it received
type stubReader struct {
	platform reconcile.PlatformCode
	currency string
	values   map[reconcile.ResourceKey]decimal.Decimal
	errs     map[reconcile.ResourceKey]error
	reads    atomic.Int32
}

func (r *stubReader) Platform() reconcile.PlatformCode { return r.platform }

func (r *stubReader) observe(key reconcile.ResourceKey, kind reconcile.ValueKind) (reconcile.Observation, error) {
	r.reads.Add(1)
	if err, ok := r.errs[key]; ok {
		return reconcile.Observation{}, err
	}
	value, ok := r.values[key]
	if !ok {
		return reconcile.Observation{}, reconcile.ErrResourceNotFound
	}
	obs := reconcile.Observation{
		ResourceKey: key,
		Platform:    r.platform,
		Kind:        kind,
		Value:       value,
		ObservedAt:  time.Now(),
	}
	if kind == reconcile.ValueKindPrice {
		obs.Currency = r.currency
	}
	return obs, nil
}

func (r *stubReader) GetQuantity(ctx context.Context, key reconcile.ResourceKey) (reconcile.Observation, error) {
	return r.observe(key, reconcile.ValueKindQuantity)
}

func (r *stubReader) GetPrice(ctx context.Context, key reconcile.ResourceKey) (reconcile.Observation, error) {
	return r.observe(key, reconcile.ValueKindPrice)
}

// stubExecutor applies every item successfully unless failKeys says
// otherwise. With entered/gate set it blocks mid-execution so a test can
// observe concurrent runs while this one holds its leases.
type stubExecutor struct {
	failKeys map[reconcile.ResourceKey]error
	executed []reconcile.BatchItem
	entered  chan struct{}
	gate     chan struct{}
	stopped  atomic.Bool
}

func (e *stubExecutor) Execute(ctx context.Context, items []reconcile.BatchItem) *reconcile.BatchRunReport {
	if e.entered != nil {
		close(e.entered)
	}
	if e.gate != nil {
		<-e.gate
	}

	report := &reconcile.BatchRunReport{Total: len(items), StartedAt: time.Now()}
	for _, item := range items {
		if err, ok := e.failKeys[item.ResourceKey]; ok {
			report.RecordFailure(reconcile.BatchItemFailure{
				ResourceKey: item.ResourceKey,
				Platform:    item.Platform,
				Kind:        item.Kind,
				Cause:       err.Error(),
				Permanent:   true,
			})
			continue
		}
		report.RecordSuccess(item)
		e.executed = append(e.executed, item)
	}
	return report
}

func (e *stubExecutor) Stop() { e.stopped.Store(true) }

// memLedger is an in-memory ledger serving both the resolver read side and
// the orchestrator append side
type memLedger struct {
	entries  []reconcile.LedgerEntry
	override *reconcile.LedgerEntry
	appended []reconcile.LedgerEntry
	readErr  error
}

func (l *memLedger) FindLatestSince(ctx context.Context, key reconcile.ResourceKey, kind reconcile.ValueKind, since time.Time) ([]reconcile.LedgerEntry, error) {
	if l.readErr != nil {
		return nil, l.readErr
	}
	var out []reconcile.LedgerEntry
	for _, e := range l.entries {
		if e.ResourceKey == key && e.Kind == kind && e.RecordedAt.After(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *memLedger) FindManualOverride(ctx context.Context, key reconcile.ResourceKey, kind reconcile.ValueKind, window time.Duration) (*reconcile.LedgerEntry, error) {
	if l.readErr != nil {
		return nil, l.readErr
	}
	return l.override, nil
}

func (l *memLedger) Append(ctx context.Context, entries ...reconcile.LedgerEntry) error {
	l.appended = append(l.appended, entries...)
	return nil
}

// memRunStore records finished runs in memory
type memRunStore struct {
	lastCompleted time.Time
	lastErr       error
	recorded      []*reconcile.SyncRun
}

func (s *memRunStore) Record(ctx context.Context, run *reconcile.SyncRun) error {
	s.recorded = append(s.recorded, run)
	return nil
}

func (s *memRunStore) LastCompletedAt(ctx context.Context, operation reconcile.SyncOperation) (time.Time, error) {
	return s.lastCompleted, s.lastErr
}

// capturePublisher collects every published domain event
type capturePublisher struct {
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

// stateSequence extracts the ToState of every run state change event
func (p *capturePublisher) stateSequence() []reconcile.RunState {
	var states []reconcile.RunState
	for _, e := range p.events {
		if sc, ok := e.(*reconcile.RunStateChangedEvent); ok {
			states = append(states, sc.ToState)
		}
	}
	return states
}

// failingStore is a coordination store whose every call fails
type failingStore struct{}

func (failingStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return false, reconcile.ErrCoordinationUnavailable
}
func (failingStore) Delete(ctx context.Context, key string) error { return nil }
func (failingStore) Exists(ctx context.Context, key string) (bool, error) {
	return false, reconcile.ErrCoordinationUnavailable
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	source   *stubReader
	target   *stubReader
	executor *stubExecutor
	ledger   *memLedger
	runs     *memRunStore
	events   *capturePublisher
	store    *lock.InMemoryCoordinationStore
	locks    reconcile.LockManager
	cfg      Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := lock.NewInMemoryCoordinationStore()
	t.Cleanup(func() { _ = store.Close() })

	cfg := DefaultConfig()
	cfg.ReadRetry = batch.RetryConfig{
		MaxRetries:          1,
		InitialDelay:        time.Millisecond,
		MaxDelay:            5 * time.Millisecond,
		Multiplier:          2.0,
		RandomizationFactor: 0,
	}

	return &fixture{
		source:   &stubReader{platform: reconcile.PlatformCodeShopify, currency: "USD", values: map[reconcile.ResourceKey]decimal.Decimal{}, errs: map[reconcile.ResourceKey]error{}},
		target:   &stubReader{platform: reconcile.PlatformCodeWooCommerce, currency: "EUR", values: map[reconcile.ResourceKey]decimal.Decimal{}, errs: map[reconcile.ResourceKey]error{}},
		executor: &stubExecutor{},
		ledger:   &memLedger{},
		runs:     &memRunStore{},
		events:   &capturePublisher{},
		store:    store,
		locks:    lock.NewLeaseLockManager(store, zap.NewNop()),
		cfg:      cfg,
	}
}

func (f *fixture) build(t *testing.T) *Orchestrator {
	t.Helper()

	resolver, err := reconcile.NewResolver(f.ledger, reconcile.DefaultResolverConfig())
	require.NoError(t, err)

	orch, err := NewOrchestrator(f.locks, f.source, f.target, resolver, f.executor, f.ledger, f.runs, f.events, zap.NewNop(), f.cfg)
	require.NoError(t, err)
	return orch
}

func keysOf(names ...string) []reconcile.ResourceKey {
	keys := make([]reconcile.ResourceKey, len(names))
	for i, n := range names {
		keys[i] = reconcile.MustResourceKey(n)
	}
	return keys
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestOrchestrator_Run_QuantityConservativeMinimum(t *testing.T) {
	f := newFixture(t)
	low := reconcile.MustResourceKey("SKU-LOW")
	same := reconcile.MustResourceKey("SKU-SAME")
	f.source.values[low] = decimal.NewFromInt(7)
	f.target.values[low] = decimal.NewFromInt(10)
	f.source.values[same] = decimal.NewFromInt(4)
	f.target.values[same] = decimal.NewFromInt(4)

	orch := f.build(t)
	run, err := orch.Run(context.Background(), reconcile.OperationQuantitySync, []reconcile.ResourceKey{low, same})
	require.NoError(t, err)

	assert.Equal(t, reconcile.RunStateCompleted, run.State())
	require.NotNil(t, run.Report)
	assert.Equal(t, 1, run.Report.Total)
	assert.Equal(t, 1, run.Report.Succeeded)
	assert.Equal(t, 0, run.Report.Failed)

	require.Len(t, f.executor.executed, 1)
	item := f.executor.executed[0]
	assert.Equal(t, low, item.ResourceKey)
	assert.Equal(t, reconcile.PlatformCodeWooCommerce, item.Platform)
	assert.True(t, item.Value.Equal(decimal.NewFromInt(7)))

	require.Len(t, run.Resolutions, 1)
	assert.Equal(t, reconcile.StrategyConservativeMinimum, run.Resolutions[0].Strategy)

	require.Len(t, f.ledger.appended, 1)
	entry := f.ledger.appended[0]
	assert.Equal(t, low, entry.ResourceKey)
	assert.True(t, entry.PreviousValue.Equal(decimal.NewFromInt(10)))
	assert.True(t, entry.NewValue.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, reconcile.LedgerSourceSync, entry.Source)
	assert.Equal(t, reconcile.StrategyConservativeMinimum, entry.Strategy)

	assert.Equal(t, []reconcile.RunState{
		reconcile.RunStateLocking,
		reconcile.RunStateReading,
		reconcile.RunStateResolving,
		reconcile.RunStateWriting,
		reconcile.RunStateCompleted,
	}, f.events.stateSequence())

	// Leases are gone once the run finishes.
	held, err := f.locks.IsHeld(context.Background(), low, reconcile.OperationQuantitySync.String())
	require.NoError(t, err)
	assert.False(t, held)

	require.Len(t, f.runs.recorded, 1)
	assert.Equal(t, reconcile.RunStateCompleted, f.runs.recorded[0].State())
}

func TestOrchestrator_Run_QuantityLatestTransactionWins(t *testing.T) {
	f := newFixture(t)
	key := reconcile.MustResourceKey("SKU-0001")
	f.source.values[key] = decimal.NewFromInt(10)
	f.target.values[key] = decimal.NewFromInt(7)

	f.runs.lastCompleted = time.Now().Add(-time.Hour)
	f.ledger.entries = []reconcile.LedgerEntry{{
		ResourceKey: key,
		Platform:    reconcile.PlatformCodeShopify,
		Kind:        reconcile.ValueKindQuantity,
		NewValue:    decimal.NewFromInt(5),
		Source:      reconcile.LedgerSourceWebhook,
		RecordedAt:  time.Now().Add(-10 * time.Minute),
	}}

	orch := f.build(t)
	run, err := orch.Run(context.Background(), reconcile.OperationQuantitySync, []reconcile.ResourceKey{key})
	require.NoError(t, err)

	assert.Equal(t, reconcile.RunStateCompleted, run.State())
	require.Len(t, run.Resolutions, 1)
	assert.Equal(t, reconcile.StrategyLatestTransaction, run.Resolutions[0].Strategy)
	require.Len(t, f.executor.executed, 1)
	assert.True(t, f.executor.executed[0].Value.Equal(decimal.NewFromInt(5)))
}

func TestOrchestrator_Run_PriceWithinThresholdIgnored(t *testing.T) {
	f := newFixture(t)
	key := reconcile.MustResourceKey("SKU-0001")
	f.cfg.Pricing = reconcile.PriceContext{
		ExchangeRate:     decimal.RequireFromString("1.08"),
		MarginMultiplier: decimal.RequireFromString("1.2"),
	}
	f.source.values[key] = decimal.NewFromInt(10)
	// Expected target price is 11.11; 11.2 is under one percent off.
	f.target.values[key] = decimal.RequireFromString("11.2")

	orch := f.build(t)
	run, err := orch.Run(context.Background(), reconcile.OperationPriceSync, []reconcile.ResourceKey{key})
	require.NoError(t, err)

	assert.Equal(t, reconcile.RunStateCompleted, run.State())
	require.Len(t, run.Resolutions, 1)
	assert.Equal(t, reconcile.StrategyIgnore, run.Resolutions[0].Strategy)
	assert.Empty(t, f.executor.executed)
	assert.Empty(t, f.ledger.appended)
	assert.Equal(t, 0, run.Report.Total)
}

func TestOrchestrator_Run_PriceRecalculatedFromSource(t *testing.T) {
	f := newFixture(t)
	key := reconcile.MustResourceKey("SKU-0001")
	f.cfg.Pricing = reconcile.PriceContext{
		ExchangeRate:     decimal.RequireFromString("1.08"),
		MarginMultiplier: decimal.RequireFromString("1.2"),
	}
	f.source.values[key] = decimal.NewFromInt(10)
	f.target.values[key] = decimal.NewFromInt(15)

	orch := f.build(t)
	run, err := orch.Run(context.Background(), reconcile.OperationPriceSync, []reconcile.ResourceKey{key})
	require.NoError(t, err)

	assert.Equal(t, reconcile.RunStateCompleted, run.State())
	require.Len(t, run.Resolutions, 1)
	assert.Equal(t, reconcile.StrategyRecalculateFromSource, run.Resolutions[0].Strategy)
	require.Len(t, f.executor.executed, 1)
	assert.True(t, f.executor.executed[0].Value.Equal(decimal.RequireFromString("11.11")),
		"got %s", f.executor.executed[0].Value)
}

func TestOrchestrator_Run_SkippedOnContention(t *testing.T) {
	f := newFixture(t)
	key := reconcile.MustResourceKey("SKU-0001")
	f.source.values[key] = decimal.NewFromInt(10)
	f.target.values[key] = decimal.NewFromInt(7)

	ok, err := f.locks.Acquire(context.Background(), key, reconcile.OperationQuantitySync.String(), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	orch := f.build(t)
	run, err := orch.Run(context.Background(), reconcile.OperationQuantitySync, []reconcile.ResourceKey{key})
	require.NoError(t, err)

	assert.Equal(t, reconcile.RunStateSkipped, run.State())
	assert.Equal(t, int32(0), f.source.reads.Load(), "skipped run must not read platform data")
	assert.Equal(t, int32(0), f.target.reads.Load())
	assert.Empty(t, f.executor.executed)

	// The foreign lease survives the skipped run.
	held, err := f.locks.IsHeld(context.Background(), key, reconcile.OperationQuantitySync.String())
	require.NoError(t, err)
	assert.True(t, held)

	require.Len(t, f.runs.recorded, 1)
	assert.Equal(t, reconcile.RunStateSkipped, f.runs.recorded[0].State())
}

func TestOrchestrator_Run_ContendedKeyLeftToHolder(t *testing.T) {
	f := newFixture(t)
	contended := reconcile.MustResourceKey("SKU-HELD")
	free := reconcile.MustResourceKey("SKU-FREE")
	f.source.values[free] = decimal.NewFromInt(3)
	f.target.values[free] = decimal.NewFromInt(9)

	ok, err := f.locks.Acquire(context.Background(), contended, reconcile.OperationQuantitySync.String(), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	orch := f.build(t)
	run, err := orch.Run(context.Background(), reconcile.OperationQuantitySync, []reconcile.ResourceKey{contended, free})
	require.NoError(t, err)

	// The free key still syncs; the contended one stays with its holder.
	assert.Equal(t, reconcile.RunStateCompleted, run.State())
	require.Len(t, f.executor.executed, 1)
	assert.Equal(t, free, f.executor.executed[0].ResourceKey)

	held, err := f.locks.IsHeld(context.Background(), contended, reconcile.OperationQuantitySync.String())
	require.NoError(t, err)
	assert.True(t, held)
}

func TestOrchestrator_Run_CoordinationStoreDownFails(t *testing.T) {
	f := newFixture(t)
	f.locks = lock.NewLeaseLockManager(failingStore{}, zap.NewNop())
	key := reconcile.MustResourceKey("SKU-0001")

	orch := f.build(t)
	run, err := orch.Run(context.Background(), reconcile.OperationQuantitySync, []reconcile.ResourceKey{key})
	require.NoError(t, err)

	assert.Equal(t, reconcile.RunStateFailed, run.State())
	assert.Contains(t, run.FailureReason(), "coordination store")
	assert.Equal(t, int32(0), f.source.reads.Load())
}

func TestOrchestrator_Run_SourceOnlyPushesDirectly(t *testing.T) {
	f := newFixture(t)
	key := reconcile.MustResourceKey("SKU-0001")
	f.source.values[key] = decimal.NewFromInt(12)
	f.target.errs[key] = reconcile.ErrPlatformRequestFailed

	orch := f.build(t)
	run, err := orch.Run(context.Background(), reconcile.OperationQuantitySync, []reconcile.ResourceKey{key})
	require.NoError(t, err)

	assert.Equal(t, reconcile.RunStateCompleted, run.State())
	assert.Empty(t, run.Resolutions, "a single readable side is not a conflict")
	require.Len(t, f.executor.executed, 1)
	assert.True(t, f.executor.executed[0].Value.Equal(decimal.NewFromInt(12)))

	require.Len(t, f.ledger.appended, 1)
	assert.Equal(t, reconcile.LedgerSourceSync, f.ledger.appended[0].Source)
}

func TestOrchestrator_Run_TargetOnlyValueStands(t *testing.T) {
	f := newFixture(t)
	key := reconcile.MustResourceKey("SKU-0001")
	f.source.errs[key] = reconcile.ErrResourceNotFound
	f.target.values[key] = decimal.NewFromInt(8)

	orch := f.build(t)
	run, err := orch.Run(context.Background(), reconcile.OperationQuantitySync, []reconcile.ResourceKey{key})
	require.NoError(t, err)

	assert.Equal(t, reconcile.RunStateCompleted, run.State())
	assert.Empty(t, f.executor.executed)
	assert.Equal(t, 0, run.Report.Total)
}

func TestOrchestrator_Run_BothReadsFailingFails(t *testing.T) {
	f := newFixture(t)
	key := reconcile.MustResourceKey("SKU-0001")
	f.source.errs[key] = reconcile.ErrPlatformRequestFailed
	f.target.errs[key] = reconcile.ErrResourceNotFound

	orch := f.build(t)
	run, err := orch.Run(context.Background(), reconcile.OperationQuantitySync, []reconcile.ResourceKey{key})
	require.NoError(t, err)

	assert.Equal(t, reconcile.RunStateFailed, run.State())
	assert.Contains(t, run.FailureReason(), "no resource could be read")

	held, err := f.locks.IsHeld(context.Background(), key, reconcile.OperationQuantitySync.String())
	require.NoError(t, err)
	assert.False(t, held, "failed run must release its leases")
}

func TestOrchestrator_Run_UnreadableKeyCountedAsFailure(t *testing.T) {
	f := newFixture(t)
	bad := reconcile.MustResourceKey("SKU-BAD")
	good := reconcile.MustResourceKey("SKU-GOOD")
	f.source.errs[bad] = reconcile.ErrPlatformRequestFailed
	f.target.errs[bad] = reconcile.ErrPlatformRequestFailed
	f.source.values[good] = decimal.NewFromInt(2)
	f.target.values[good] = decimal.NewFromInt(6)

	orch := f.build(t)
	run, err := orch.Run(context.Background(), reconcile.OperationQuantitySync, []reconcile.ResourceKey{bad, good})
	require.NoError(t, err)

	assert.Equal(t, reconcile.RunStateCompleted, run.State())
	assert.Equal(t, 2, run.Report.Total)
	assert.Equal(t, 1, run.Report.Succeeded)
	assert.Equal(t, 1, run.Report.Failed)
	require.Len(t, run.Report.Failures, 1)
	assert.Equal(t, bad, run.Report.Failures[0].ResourceKey)
	assert.Contains(t, run.Report.Failures[0].Cause, "source read")
}

func TestOrchestrator_Run_PartialWriteFailureStillCompletes(t *testing.T) {
	f := newFixture(t)
	okKey := reconcile.MustResourceKey("SKU-OK")
	badKey := reconcile.MustResourceKey("SKU-REJECTED")
	f.source.values[okKey] = decimal.NewFromInt(1)
	f.target.values[okKey] = decimal.NewFromInt(5)
	f.source.values[badKey] = decimal.NewFromInt(2)
	f.target.values[badKey] = decimal.NewFromInt(6)
	f.executor.failKeys = map[reconcile.ResourceKey]error{badKey: reconcile.ErrPlatformRequestFailed}

	orch := f.build(t)
	run, err := orch.Run(context.Background(), reconcile.OperationQuantitySync, []reconcile.ResourceKey{okKey, badKey})
	require.NoError(t, err)

	assert.Equal(t, reconcile.RunStateCompleted, run.State())
	assert.Equal(t, 1, run.Report.Succeeded)
	assert.Equal(t, 1, run.Report.Failed)

	// Only confirmed writes reach the ledger.
	require.Len(t, f.ledger.appended, 1)
	assert.Equal(t, okKey, f.ledger.appended[0].ResourceKey)
}

func TestOrchestrator_Run_RunHistoryUnavailableFails(t *testing.T) {
	f := newFixture(t)
	key := reconcile.MustResourceKey("SKU-0001")
	f.source.values[key] = decimal.NewFromInt(1)
	f.target.values[key] = decimal.NewFromInt(2)
	f.runs.lastErr = errors.New("connection refused")

	orch := f.build(t)
	run, err := orch.Run(context.Background(), reconcile.OperationQuantitySync, []reconcile.ResourceKey{key})
	require.NoError(t, err)

	assert.Equal(t, reconcile.RunStateFailed, run.State())
	assert.Contains(t, run.FailureReason(), "run history unavailable")
}

func TestOrchestrator_Run_ConcurrentRunsOneSkipped(t *testing.T) {
	key := reconcile.MustResourceKey("SKU-0001")

	store := lock.NewInMemoryCoordinationStore()
	t.Cleanup(func() { _ = store.Close() })
	locks := lock.NewLeaseLockManager(store, zap.NewNop())

	first := newFixture(t)
	first.locks = locks
	first.source.values[key] = decimal.NewFromInt(3)
	first.target.values[key] = decimal.NewFromInt(9)
	first.executor.entered = make(chan struct{})
	first.executor.gate = make(chan struct{})

	second := newFixture(t)
	second.locks = locks
	second.source.values[key] = decimal.NewFromInt(3)
	second.target.values[key] = decimal.NewFromInt(9)

	orchFirst := first.build(t)
	orchSecond := second.build(t)

	type result struct {
		run *reconcile.SyncRun
		err error
	}
	done := make(chan result, 1)
	go func() {
		run, err := orchFirst.Run(context.Background(), reconcile.OperationQuantitySync, []reconcile.ResourceKey{key})
		done <- result{run, err}
	}()

	// Wait until the first run holds the lease and sits in Writing.
	select {
	case <-first.executor.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never reached the executor")
	}

	runSecond, err := orchSecond.Run(context.Background(), reconcile.OperationQuantitySync, []reconcile.ResourceKey{key})
	require.NoError(t, err)
	assert.Equal(t, reconcile.RunStateSkipped, runSecond.State())
	assert.Equal(t, int32(0), second.source.reads.Load(), "concurrent run must skip before reading")
	assert.Equal(t, int32(0), second.target.reads.Load())

	close(first.executor.gate)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, reconcile.RunStateCompleted, res.run.State())
}

func TestOrchestrator_Run_InputValidation(t *testing.T) {
	f := newFixture(t)
	orch := f.build(t)

	_, err := orch.Run(context.Background(), "inventory_sync", keysOf("SKU-0001"))
	assert.Error(t, err)

	_, err = orch.Run(context.Background(), reconcile.OperationQuantitySync, nil)
	assert.Error(t, err)
}

func TestNewOrchestrator_RejectsSamePlatform(t *testing.T) {
	f := newFixture(t)
	f.target.platform = reconcile.PlatformCodeShopify

	resolver, err := reconcile.NewResolver(f.ledger, reconcile.DefaultResolverConfig())
	require.NoError(t, err)

	_, err = NewOrchestrator(f.locks, f.source, f.target, resolver, f.executor, f.ledger, f.runs, f.events, zap.NewNop(), f.cfg)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero lease ttl", func(c *Config) { c.LeaseTTL = 0 }, true},
		{"empty currency", func(c *Config) { c.TargetCurrency = "" }, true},
		{"zero exchange rate", func(c *Config) { c.Pricing.ExchangeRate = decimal.Zero }, true},
		{"negative margin", func(c *Config) { c.Pricing.MarginMultiplier = decimal.NewFromInt(-1) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
