package batch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shopbridge/backend/internal/domain/reconcile"
)

// ---------------------------------------------------------------------------
// ExecutorConfig
// ---------------------------------------------------------------------------

// ExecutorConfig holds the batch executor parameters
type ExecutorConfig struct {
	// BatchSize is the number of items per chunk
	BatchSize int
	// InterBatchDelay is the minimum spacing between chunk starts: the
	// primary defense against exceeding a platform's request-rate ceiling
	InterBatchDelay time.Duration
	// FailFast aborts the run on the first chunk whose items all failed.
	// The default is to continue: one bad chunk never aborts the run.
	FailFast bool
	// Retry is the per-chunk retry policy
	Retry RetryConfig
	// Breaker is the circuit breaker policy for the remote write path
	Breaker BreakerConfig
}

// DefaultExecutorConfig returns the default executor configuration
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		BatchSize:       100,
		InterBatchDelay: time.Second,
		Retry:           DefaultRetryConfig(),
		Breaker:         DefaultBreakerConfig(),
	}
}

// Validate validates the configuration
func (c *ExecutorConfig) Validate() error {
	if c.BatchSize <= 0 {
		return errInvalidExecutorConfig
	}
	if c.InterBatchDelay < 0 {
		return errInvalidExecutorConfig
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	return c.Breaker.Validate()
}

// PreflightFunc decides, before any network attempt, whether an item should
// be skipped. It returns true and a reason to skip (value already correct,
// or no platform mapping exists for the resource).
type PreflightFunc func(ctx context.Context, item reconcile.BatchItem) (bool, string)

// ---------------------------------------------------------------------------
// Executor
// ---------------------------------------------------------------------------

// Executor applies per-resource update requests to a remote platform in
// bounded, rate-limited chunks. Transient chunk failures are retried with
// exponential backoff and jitter; permanent item failures are recorded and
// never retried; a circuit breaker fails fast once the platform looks down.
// Failures local to one item never escape the executor: they become report
// entries.
type Executor struct {
	writer    reconcile.PlatformWriter
	breaker   *Breaker
	limiter   *rate.Limiter
	preflight PreflightFunc
	logger    *zap.Logger
	cfg       ExecutorConfig

	// stopped signals a soft abort checked between chunks; already
	// dispatched chunks run to completion
	stopped atomic.Bool
}

// NewExecutor creates an executor that writes through the given platform
// writer. preflight may be nil.
func NewExecutor(writer reconcile.PlatformWriter, cfg ExecutorConfig, preflight PreflightFunc, logger *zap.Logger) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	breaker, err := NewBreaker(fmt.Sprintf("platform-write-%s", writer.Platform()), cfg.Breaker, logger)
	if err != nil {
		return nil, err
	}

	// Burst 1 so chunk starts are spaced by the inter-batch delay; the
	// same limiter can gate concurrent executors against one rate budget.
	var limiter *rate.Limiter
	if cfg.InterBatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.InterBatchDelay), 1)
	} else {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	return &Executor{
		writer:    writer,
		breaker:   breaker,
		limiter:   limiter,
		preflight: preflight,
		logger:    logger,
		cfg:       cfg,
	}, nil
}

// Stop requests a soft abort: no further chunks are dispatched, the chunk
// in flight runs to completion so no remote write is left half-applied.
func (e *Executor) Stop() {
	e.stopped.Store(true)
}

// Execute partitions items into chunks and applies them, honoring the
// inter-batch delay between chunk starts. It always returns a report; the
// returned report is immutable once handed back.
func (e *Executor) Execute(ctx context.Context, items []reconcile.BatchItem) *reconcile.BatchRunReport {
	e.stopped.Store(false)

	report := &reconcile.BatchRunReport{
		Total:     len(items),
		StartedAt: time.Now(),
	}
	defer func() { report.Elapsed = time.Since(report.StartedAt) }()

	if len(items) == 0 {
		return report
	}

	chunks := partition(items, e.cfg.BatchSize)
	e.logger.Info("batch run started",
		zap.String("platform", e.writer.Platform().String()),
		zap.Int("total_items", len(items)),
		zap.Int("chunks", len(chunks)),
		zap.Int("batch_size", e.cfg.BatchSize),
	)

	for i, chunk := range chunks {
		if ctx.Err() != nil || e.stopped.Load() {
			e.markRemainingSkipped(report, chunks[i:], "run aborted before dispatch")
			report.Aborted = true
			break
		}

		if err := e.limiter.Wait(ctx); err != nil {
			e.markRemainingSkipped(report, chunks[i:], "run aborted before dispatch")
			report.Aborted = true
			break
		}

		allFailed := e.processChunk(ctx, chunk, report)

		if allFailed && e.cfg.FailFast {
			e.logger.Warn("fail-fast requested, aborting after failed chunk",
				zap.Int("chunk", i),
			)
			if i+1 < len(chunks) {
				e.markRemainingSkipped(report, chunks[i+1:], "aborted by fail-fast")
				report.Aborted = true
			}
			break
		}
	}

	e.logger.Info("batch run finished",
		zap.String("platform", e.writer.Platform().String()),
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Bool("aborted", report.Aborted),
		zap.Duration("elapsed", time.Since(report.StartedAt)),
	)
	return report
}

// processChunk applies one chunk with retries. Returns true if every
// attempted item in the chunk failed.
func (e *Executor) processChunk(ctx context.Context, chunk []reconcile.BatchItem, report *reconcile.BatchRunReport) bool {
	// pending tracks items still unapplied across retry attempts so a
	// retried chunk neither re-applies successes nor re-records
	// permanent failures.
	pending := make([]reconcile.BatchItem, 0, len(chunk))
	attempted := 0

	for _, item := range chunk {
		if e.preflight != nil {
			if skip, reason := e.preflight(ctx, item); skip {
				report.Skipped++
				e.logger.Debug("item skipped",
					zap.String("resource_key", item.ResourceKey.String()),
					zap.String("reason", reason),
				)
				continue
			}
		}
		pending = append(pending, item)
	}

	if len(pending) == 0 {
		return false
	}
	attempted = len(pending)
	failedBefore := report.Failed

	lastErr := Retry(ctx, e.cfg.Retry, e.logger, func() error {
		var transientErr error
		remaining := pending[:0]

		for _, item := range pending {
			err := e.applyItem(ctx, item)
			switch {
			case err == nil:
				report.RecordSuccess(item)
			case reconcile.IsTransient(err):
				// Keep the item for the next attempt of this chunk.
				remaining = append(remaining, item)
				transientErr = err
			default:
				report.RecordFailure(reconcile.BatchItemFailure{
					ResourceKey: item.ResourceKey,
					Platform:    item.Platform,
					Kind:        item.Kind,
					Cause:       err.Error(),
					Permanent:   true,
				})
			}
		}

		pending = remaining
		return transientErr
	})

	if lastErr != nil && len(pending) > 0 {
		for _, item := range pending {
			report.RecordFailure(reconcile.BatchItemFailure{
				ResourceKey: item.ResourceKey,
				Platform:    item.Platform,
				Kind:        item.Kind,
				Cause:       lastErr.Error(),
			})
		}
	}

	return report.Failed-failedBefore == attempted
}

// applyItem performs one remote write through the circuit breaker
func (e *Executor) applyItem(ctx context.Context, item reconcile.BatchItem) error {
	return e.breaker.Execute(func() error {
		switch item.Kind {
		case reconcile.ValueKindQuantity:
			return e.writer.ApplyQuantity(ctx, item.ResourceKey, item.Value)
		case reconcile.ValueKindPrice:
			return e.writer.ApplyPrice(ctx, item.ResourceKey, item.Value)
		default:
			return fmt.Errorf("%w: unknown value kind %q", reconcile.ErrPlatformRequestFailed, item.Kind)
		}
	})
}

// markRemainingSkipped records undispatched items as skipped
func (e *Executor) markRemainingSkipped(report *reconcile.BatchRunReport, chunks [][]reconcile.BatchItem, reason string) {
	remaining := 0
	for _, chunk := range chunks {
		remaining += len(chunk)
	}
	report.Skipped += remaining
	if remaining > 0 {
		e.logger.Info("remaining items not dispatched",
			zap.Int("count", remaining),
			zap.String("reason", reason),
		)
	}
}

// partition splits items into fixed-size chunks preserving input order
func partition(items []reconcile.BatchItem, size int) [][]reconcile.BatchItem {
	var chunks [][]reconcile.BatchItem
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
