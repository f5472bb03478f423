package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopbridge/backend/internal/domain/reconcile"
	"github.com/shopbridge/backend/internal/domain/shared"
	"github.com/shopbridge/backend/internal/infrastructure/batch"
	"github.com/shopbridge/backend/internal/infrastructure/logger"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// errInvalidOrchestratorConfig indicates an invalid orchestrator configuration
var errInvalidOrchestratorConfig = errors.New("sync: invalid orchestrator configuration")

// Config holds the orchestrator parameters
type Config struct {
	// LeaseTTL bounds how long a crashed run can keep its resources locked
	LeaseTTL time.Duration
	// TargetCurrency is the currency prices carry on the target platform.
	// Used to round direct price pushes when the target could not be read.
	TargetCurrency string
	// Pricing carries the exchange rate and margin applied on price runs
	Pricing reconcile.PriceContext
	// ReadRetry is the retry policy for platform reads
	ReadRetry batch.RetryConfig
}

// DefaultConfig returns the default orchestrator configuration
func DefaultConfig() Config {
	return Config{
		LeaseTTL:       2 * time.Minute,
		TargetCurrency: "EUR",
		Pricing: reconcile.PriceContext{
			ExchangeRate:     decimal.NewFromInt(1),
			MarginMultiplier: decimal.NewFromInt(1),
		},
		ReadRetry: batch.DefaultRetryConfig(),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LeaseTTL <= 0 {
		return errInvalidOrchestratorConfig
	}
	if c.TargetCurrency == "" {
		return errInvalidOrchestratorConfig
	}
	if !c.Pricing.ExchangeRate.IsPositive() || !c.Pricing.MarginMultiplier.IsPositive() {
		return errInvalidOrchestratorConfig
	}
	return c.ReadRetry.Validate()
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// RunStore persists run outcomes and answers when the previous completed
// run for an operation finished
type RunStore interface {
	// Record persists the outcome of a finished run
	Record(ctx context.Context, run *reconcile.SyncRun) error

	// LastCompletedAt returns when the most recent completed run for the
	// operation finished, or the zero time if none exists
	LastCompletedAt(ctx context.Context, operation reconcile.SyncOperation) (time.Time, error)
}

// BatchExecutor applies a write-set against the target platform and reports
// per-item outcomes
type BatchExecutor interface {
	// Execute applies the items and always returns a report
	Execute(ctx context.Context, items []reconcile.BatchItem) *reconcile.BatchRunReport

	// Stop requests a soft abort between chunks
	Stop()
}

// ---------------------------------------------------------------------------
// Orchestrator
// ---------------------------------------------------------------------------

// Orchestrator drives one synchronization pass end to end: lease
// acquisition, platform reads, conflict resolution, batched writes, ledger
// bookkeeping and run recording. Each pass is a SyncRun walking the
// Idle, Locking, Reading, Resolving, Writing, Completed state machine;
// contention resolves to Skipped and unrecoverable errors to Failed.
//
// Leases are released on every terminal exit by the orchestrator itself,
// never left to a caller; a release that fails is bounded by the TTL.
type Orchestrator struct {
	locks    reconcile.LockManager
	source   reconcile.PlatformReader
	target   reconcile.PlatformReader
	resolver *reconcile.Resolver
	executor BatchExecutor
	ledger   reconcile.LedgerAppender
	runs     RunStore
	events   shared.EventPublisher
	logger   *zap.Logger
	cfg      Config
}

// NewOrchestrator creates an orchestrator reading from source and target
// and writing, through the executor, to the target platform.
func NewOrchestrator(
	locks reconcile.LockManager,
	source reconcile.PlatformReader,
	target reconcile.PlatformReader,
	resolver *reconcile.Resolver,
	executor BatchExecutor,
	ledger reconcile.LedgerAppender,
	runs RunStore,
	events shared.EventPublisher,
	log *zap.Logger,
	cfg Config,
) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source.Platform() == target.Platform() {
		return nil, fmt.Errorf("sync: source and target must be different platforms, both are %s", source.Platform())
	}

	return &Orchestrator{
		locks:    locks,
		source:   source,
		target:   target,
		resolver: resolver,
		executor: executor,
		ledger:   ledger,
		runs:     runs,
		events:   events,
		logger:   log,
		cfg:      cfg,
	}, nil
}

// Abort requests a soft abort of the run in flight: the executor stops
// dispatching new chunks, the chunk in flight finishes.
func (o *Orchestrator) Abort() {
	o.executor.Stop()
}

// Run executes one synchronization pass for the operation over the given
// resource keys and returns the finished run in a terminal state. The
// returned error is non-nil only for invalid input or a broken state
// machine; operational failures terminate the run as Failed and are
// reported through the run itself.
func (o *Orchestrator) Run(ctx context.Context, operation reconcile.SyncOperation, keys []reconcile.ResourceKey) (*reconcile.SyncRun, error) {
	if !operation.IsValid() {
		return nil, fmt.Errorf("sync: unknown operation %q", operation)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("sync: run requested with no resource keys")
	}

	run := reconcile.NewSyncRun(operation, keys)
	ctx, log := logger.WithRunID(ctx, o.logger, run.ID.String())
	ctx, log = logger.WithOperation(ctx, log, operation.String())

	log.Info("sync run starting", zap.Int("resources", len(keys)))

	if err := o.advance(ctx, run, reconcile.RunStateLocking, ""); err != nil {
		return run, err
	}

	acquired := make([]reconcile.ResourceKey, 0, len(keys))
	defer func() {
		o.releaseLeases(context.WithoutCancel(ctx), log, operation, acquired)
	}()

	for _, key := range keys {
		ok, err := o.locks.Acquire(ctx, key, operation.String(), o.cfg.LeaseTTL)
		if err != nil {
			o.fail(ctx, run, fmt.Sprintf("coordination store unavailable: %v", err))
			o.record(ctx, run)
			return run, nil
		}
		if !ok {
			log.Info("lease held elsewhere, resource left to the holder",
				zap.String("resource_key", key.String()))
			continue
		}
		acquired = append(acquired, key)
	}

	if len(acquired) == 0 {
		o.skip(ctx, run, "every requested lease is held by a concurrent run")
		o.record(ctx, run)
		return run, nil
	}

	if err := o.advance(ctx, run, reconcile.RunStateReading, ""); err != nil {
		return run, err
	}

	pairs := make([]observationPair, 0, len(acquired))
	var readFailures []reconcile.BatchItemFailure
	for _, key := range acquired {
		pair, err := o.readPair(ctx, log, operation, key)
		if err != nil {
			log.Error("resource unreadable on both platforms",
				zap.String("resource_key", key.String()),
				zap.Error(err),
			)
			readFailures = append(readFailures, reconcile.BatchItemFailure{
				ResourceKey: key,
				Platform:    o.target.Platform(),
				Kind:        operationKind(operation),
				Cause:       err.Error(),
			})
			continue
		}
		pairs = append(pairs, pair)
	}

	if len(pairs) == 0 {
		o.fail(ctx, run, "no resource could be read from either platform")
		o.record(ctx, run)
		return run, nil
	}

	if err := o.advance(ctx, run, reconcile.RunStateResolving, ""); err != nil {
		return run, err
	}

	lastSync, err := o.runs.LastCompletedAt(ctx, operation)
	if err != nil {
		o.fail(ctx, run, fmt.Sprintf("run history unavailable: %v", err))
		o.record(ctx, run)
		return run, nil
	}

	intents, err := o.resolvePairs(ctx, run, pairs, lastSync)
	if err != nil {
		o.fail(ctx, run, err.Error())
		o.record(ctx, run)
		return run, nil
	}

	if err := o.advance(ctx, run, reconcile.RunStateWriting, ""); err != nil {
		return run, err
	}

	items := make([]reconcile.BatchItem, 0, len(intents))
	intentByKey := make(map[reconcile.ResourceKey]writeIntent, len(intents))
	for _, intent := range intents {
		items = append(items, intent.item)
		intentByKey[intent.item.ResourceKey] = intent
	}

	report := o.executor.Execute(ctx, items)

	// Resources unreadable on both platforms count against the run's
	// report even though they never reached the executor.
	for _, failure := range readFailures {
		report.Total++
		report.RecordFailure(failure)
	}

	o.publish(ctx, reconcile.NewBatchCompletedEvent(run, *report))
	o.appendLedgerEntries(ctx, report.Applied, intentByKey)

	if err := o.complete(ctx, run, report); err != nil {
		return run, err
	}
	o.record(ctx, run)

	log.Info("sync run completed",
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Bool("aborted", report.Aborted),
		zap.Duration("duration", run.Duration()),
	)
	return run, nil
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// observationPair holds the two platform reads for one resource. A nil
// side means that platform could not be read after retries.
type observationPair struct {
	key    reconcile.ResourceKey
	source *reconcile.Observation
	target *reconcile.Observation
}

// readPair reads the resource from both platforms. One unreadable side is
// tolerated; the pass proceeds with the value that is available. Both
// sides failing is an error.
func (o *Orchestrator) readPair(ctx context.Context, log *zap.Logger, operation reconcile.SyncOperation, key reconcile.ResourceKey) (observationPair, error) {
	pair := observationPair{key: key}

	srcObs, srcErr := o.readObservation(ctx, log, o.source, operation, key)
	if srcErr == nil {
		pair.source = &srcObs
	}
	tgtObs, tgtErr := o.readObservation(ctx, log, o.target, operation, key)
	if tgtErr == nil {
		pair.target = &tgtObs
	}

	switch {
	case srcErr != nil && tgtErr != nil:
		return pair, fmt.Errorf("source read: %v; target read: %v", srcErr, tgtErr)
	case srcErr != nil:
		log.Warn("source read failed, proceeding with target value",
			zap.String("resource_key", key.String()),
			zap.Error(srcErr),
		)
	case tgtErr != nil:
		log.Warn("target read failed, proceeding with source value",
			zap.String("resource_key", key.String()),
			zap.Error(tgtErr),
		)
	}
	return pair, nil
}

// readObservation reads one value from one platform, retrying transient
// failures per the configured read policy
func (o *Orchestrator) readObservation(ctx context.Context, log *zap.Logger, reader reconcile.PlatformReader, operation reconcile.SyncOperation, key reconcile.ResourceKey) (reconcile.Observation, error) {
	var obs reconcile.Observation
	err := batch.Retry(ctx, o.cfg.ReadRetry, log, func() error {
		var readErr error
		if operation == reconcile.OperationQuantitySync {
			obs, readErr = reader.GetQuantity(ctx, key)
		} else {
			obs, readErr = reader.GetPrice(ctx, key)
		}
		return readErr
	})
	return obs, err
}

// ---------------------------------------------------------------------------
// Resolving
// ---------------------------------------------------------------------------

// writeIntent pairs a pending batch item with the ledger bookkeeping to
// record once the write is confirmed applied
type writeIntent struct {
	item      reconcile.BatchItem
	previous  decimal.Decimal
	strategy  reconcile.ResolutionStrategy
	rationale string
}

// resolvePairs turns observation pairs into write intents. Pairs with both
// sides present and in disagreement go through the resolver; a pair with
// only the source side becomes a direct push to the target.
func (o *Orchestrator) resolvePairs(ctx context.Context, run *reconcile.SyncRun, pairs []observationPair, lastSync time.Time) ([]writeIntent, error) {
	log := logger.FromContext(ctx)
	target := o.target.Platform()
	var intents []writeIntent

	for _, pair := range pairs {
		switch {
		case pair.source == nil:
			// Only the target was readable; the value it carries stands.
			log.Debug("target value stands", zap.String("resource_key", pair.key.String()))

		case pair.target == nil:
			intents = append(intents, o.directPushIntent(run.Operation, pair, target))

		case run.Operation == reconcile.OperationQuantitySync && pair.source.Value.Equal(pair.target.Value):
			log.Debug("quantities agree", zap.String("resource_key", pair.key.String()))

		default:
			conflict := reconcile.Conflict{
				ResourceKey: pair.key,
				Kind:        pair.source.Kind,
				Source:      *pair.source,
				Target:      *pair.target,
			}

			var res reconcile.Resolution
			var err error
			if run.Operation == reconcile.OperationQuantitySync {
				res, err = o.resolver.ResolveQuantity(ctx, conflict, lastSync)
			} else {
				res, err = o.resolver.ResolvePrice(ctx, conflict, o.cfg.Pricing)
			}
			if err != nil {
				return nil, err
			}

			run.Resolutions = append(run.Resolutions, res)
			o.publish(ctx, reconcile.NewConflictResolvedEvent(run, res))
			log.Info("conflict resolved",
				zap.String("resource_key", pair.key.String()),
				zap.String("strategy", res.Strategy.String()),
				zap.String("value", res.Value.String()),
				zap.Bool("write_required", res.WriteRequired),
			)

			if !res.WriteRequired {
				continue
			}
			intents = append(intents, writeIntent{
				item: reconcile.BatchItem{
					ResourceKey: pair.key,
					Platform:    target,
					Kind:        res.Kind,
					Value:       res.Value,
					Reason:      res.Strategy.String(),
				},
				previous:  pair.target.Value,
				strategy:  res.Strategy,
				rationale: res.Evidence.Detail,
			})
		}
	}
	return intents, nil
}

// directPushIntent builds the write for a resource whose target side could
// not be read: there is no conflict to resolve, the source value is applied
// directly. Prices are recomputed through the pricing context and rounded
// to the target currency's minor unit.
func (o *Orchestrator) directPushIntent(operation reconcile.SyncOperation, pair observationPair, target reconcile.PlatformCode) writeIntent {
	value := pair.source.Value
	rationale := "target read unavailable; source quantity applied directly"
	var strategy reconcile.ResolutionStrategy

	if operation == reconcile.OperationPriceSync {
		value = o.cfg.Pricing.ExpectedTargetPrice(value).Round(reconcile.MinorUnitPlaces(o.cfg.TargetCurrency))
		rationale = "target read unavailable; price recomputed from source"
		strategy = reconcile.StrategyRecalculateFromSource
	}

	return writeIntent{
		item: reconcile.BatchItem{
			ResourceKey: pair.key,
			Platform:    target,
			Kind:        pair.source.Kind,
			Value:       value,
			Reason:      rationale,
		},
		strategy:  strategy,
		rationale: rationale,
	}
}

// ---------------------------------------------------------------------------
// Bookkeeping
// ---------------------------------------------------------------------------

// appendLedgerEntries records one ledger entry per confirmed write. The
// writes are already applied; a failed append only withholds evidence from
// future resolutions, which then fall back to the conservative path.
func (o *Orchestrator) appendLedgerEntries(ctx context.Context, applied []reconcile.BatchItem, intents map[reconcile.ResourceKey]writeIntent) {
	if len(applied) == 0 {
		return
	}

	now := time.Now()
	entries := make([]reconcile.LedgerEntry, 0, len(applied))
	for _, item := range applied {
		intent, ok := intents[item.ResourceKey]
		if !ok {
			continue
		}
		entries = append(entries, reconcile.LedgerEntry{
			ResourceKey:   item.ResourceKey,
			Platform:      item.Platform,
			Kind:          item.Kind,
			PreviousValue: intent.previous,
			NewValue:      item.Value,
			Source:        reconcile.LedgerSourceSync,
			Strategy:      intent.strategy,
			Rationale:     intent.rationale,
			RecordedAt:    now,
		})
	}

	if err := o.ledger.Append(ctx, entries...); err != nil {
		logger.FromContext(ctx).Error("ledger append failed",
			zap.Int("entries", len(entries)),
			zap.Error(err),
		)
	}
}

// record persists the finished run, best effort
func (o *Orchestrator) record(ctx context.Context, run *reconcile.SyncRun) {
	if err := o.runs.Record(ctx, run); err != nil {
		logger.FromContext(ctx).Error("recording run outcome failed", zap.Error(err))
	}
}

// releaseLeases releases every lease the run acquired. A failed release is
// logged and left to expire by TTL.
func (o *Orchestrator) releaseLeases(ctx context.Context, log *zap.Logger, operation reconcile.SyncOperation, keys []reconcile.ResourceKey) {
	for _, key := range keys {
		if err := o.locks.Release(ctx, key, operation.String()); err != nil {
			log.Warn("lease release failed, lease expires by TTL",
				zap.String("resource_key", key.String()),
				zap.Error(err),
			)
		}
	}
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

// advance moves the run to the next state and publishes the transition
func (o *Orchestrator) advance(ctx context.Context, run *reconcile.SyncRun, next reconcile.RunState, reason string) error {
	from := run.State()
	if err := run.TransitionTo(next); err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("run state changed",
		zap.String("from", from.String()),
		zap.String("to", next.String()),
	)
	o.publish(ctx, reconcile.NewRunStateChangedEvent(run, from, next, reason))
	return nil
}

// fail terminates the run as Failed with the given cause
func (o *Orchestrator) fail(ctx context.Context, run *reconcile.SyncRun, cause string) {
	from := run.State()
	if err := run.Fail(cause); err != nil {
		logger.FromContext(ctx).Error("failed run could not transition", zap.Error(err))
		return
	}
	logger.FromContext(ctx).Error("sync run failed", zap.String("cause", cause))
	o.publish(ctx, reconcile.NewRunStateChangedEvent(run, from, reconcile.RunStateFailed, cause))
}

// skip terminates the run as Skipped. Contention is expected, not an error.
func (o *Orchestrator) skip(ctx context.Context, run *reconcile.SyncRun, reason string) {
	from := run.State()
	if err := run.TransitionTo(reconcile.RunStateSkipped); err != nil {
		logger.FromContext(ctx).Error("skipped run could not transition", zap.Error(err))
		return
	}
	logger.FromContext(ctx).Info("sync run skipped", zap.String("reason", reason))
	o.publish(ctx, reconcile.NewRunStateChangedEvent(run, from, reconcile.RunStateSkipped, reason))
}

// complete terminates the run as Completed with the batch report attached
func (o *Orchestrator) complete(ctx context.Context, run *reconcile.SyncRun, report *reconcile.BatchRunReport) error {
	from := run.State()
	if err := run.Complete(report); err != nil {
		return err
	}
	o.publish(ctx, reconcile.NewRunStateChangedEvent(run, from, reconcile.RunStateCompleted, ""))
	return nil
}

// publish sends a domain event, best effort
func (o *Orchestrator) publish(ctx context.Context, event shared.DomainEvent) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(ctx, event); err != nil {
		logger.FromContext(ctx).Warn("event publish failed",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
}

// operationKind maps an operation to the value kind it reconciles
func operationKind(operation reconcile.SyncOperation) reconcile.ValueKind {
	if operation == reconcile.OperationQuantitySync {
		return reconcile.ValueKindQuantity
	}
	return reconcile.ValueKindPrice
}
