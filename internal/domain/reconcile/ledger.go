package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// LedgerEntry
// ---------------------------------------------------------------------------

// LedgerEntrySource categorizes who or what produced a ledger entry
type LedgerEntrySource string

const (
	// LedgerSourceSync marks an entry written by an automated sync run
	LedgerSourceSync LedgerEntrySource = "SYNC"
	// LedgerSourceManual marks an entry produced by a human operator.
	// Manual entries within the override window win price conflicts.
	LedgerSourceManual LedgerEntrySource = "MANUAL"
	// LedgerSourceWebhook marks an entry recorded from a platform webhook
	LedgerSourceWebhook LedgerEntrySource = "WEBHOOK"
)

// LedgerEntry is an immutable, append-only record of a previously applied
// change. Entries are owned and persisted by the external ledger; the core
// reads them as ground truth during conflict resolution.
type LedgerEntry struct {
	ID            uuid.UUID
	ResourceKey   ResourceKey
	Platform      PlatformCode
	Kind          ValueKind
	PreviousValue decimal.Decimal
	NewValue      decimal.Decimal
	// Source records who produced the change
	Source LedgerEntrySource
	// Strategy is the resolution strategy for sync-written entries
	Strategy ResolutionStrategy
	// Rationale is a free-form description of why the change was applied
	Rationale string
	// RecordedAt is when the change was recorded
	RecordedAt time.Time
}

// IsManual returns true if the entry was produced by a human operator
func (e *LedgerEntry) IsManual() bool {
	return e.Source == LedgerSourceManual
}

// ---------------------------------------------------------------------------
// Ledger Ports
// ---------------------------------------------------------------------------

// LedgerReader is the read side of the external transaction/price ledger,
// consumed by the conflict resolver.
type LedgerReader interface {
	// FindLatestSince returns entries for the resource recorded strictly
	// after since, newest first.
	FindLatestSince(ctx context.Context, key ResourceKey, kind ValueKind, since time.Time) ([]LedgerEntry, error)

	// FindManualOverride returns the most recent manual entry for the
	// resource within the recency window, or nil if none exists.
	FindManualOverride(ctx context.Context, key ResourceKey, kind ValueKind, window time.Duration) (*LedgerEntry, error)
}

// LedgerAppender is the write side of the ledger, used by the orchestrator
// to record applied resolutions after a batch run.
type LedgerAppender interface {
	// Append records one or more entries. Entries are immutable once written.
	Append(ctx context.Context, entries ...LedgerEntry) error
}
