package reconcile

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// BatchItem
// ---------------------------------------------------------------------------

// BatchItemStatus is the lifecycle state of one pending write
type BatchItemStatus string

const (
	// BatchItemStatusQueued means the item has not been attempted yet
	BatchItemStatusQueued BatchItemStatus = "QUEUED"
	// BatchItemStatusSucceeded means the remote write was applied
	BatchItemStatusSucceeded BatchItemStatus = "SUCCEEDED"
	// BatchItemStatusFailed means the write failed after exhausting retries
	// or failed permanently
	BatchItemStatusFailed BatchItemStatus = "FAILED"
	// BatchItemStatusSkipped means the item was excluded before any network
	// attempt (value already correct, or no platform mapping)
	BatchItemStatusSkipped BatchItemStatus = "SKIPPED"
)

// BatchItem is one pending write against a remote platform
type BatchItem struct {
	ResourceKey ResourceKey
	Platform    PlatformCode
	Kind        ValueKind
	Value       decimal.Decimal
	// Reason records why the write is needed (usually the resolution
	// strategy that produced it)
	Reason string
}

// ---------------------------------------------------------------------------
// BatchRunReport
// ---------------------------------------------------------------------------

// BatchItemFailure records one item that could not be applied
type BatchItemFailure struct {
	ResourceKey ResourceKey
	Platform    PlatformCode
	Kind        ValueKind
	// Cause is the last error message seen for the item
	Cause string
	// Permanent is true when the failure was not retryable
	Permanent bool
}

// BatchRunReport aggregates the outcome of one executor run. It is built
// incrementally while the run progresses and immutable once returned.
// A report with nonzero Failed does not make the surrounding run failed:
// partial failure is a property of the report.
type BatchRunReport struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	// Applied lists the items whose remote write was confirmed, in the
	// order they were applied. Callers use it to append ledger entries
	// for exactly the writes that happened.
	Applied []BatchItem
	// Failures lists the per-item failure causes
	Failures []BatchItemFailure
	// Aborted is true when the run was cancelled before all chunks were
	// dispatched
	Aborted bool
	StartedAt time.Time
	Elapsed   time.Duration
}

// AllSucceeded returns true if every attempted item succeeded
func (r *BatchRunReport) AllSucceeded() bool {
	return r.Failed == 0
}

// RecordSuccess bumps the succeeded count and remembers the applied item
func (r *BatchRunReport) RecordSuccess(item BatchItem) {
	r.Succeeded++
	r.Applied = append(r.Applied, item)
}

// RecordFailure appends a failure and bumps the failed count
func (r *BatchRunReport) RecordFailure(f BatchItemFailure) {
	r.Failed++
	r.Failures = append(r.Failures, f)
}
