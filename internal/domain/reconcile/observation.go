package reconcile

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// PlatformCode
// ---------------------------------------------------------------------------

// PlatformCode identifies one of the two synchronized commerce platforms
type PlatformCode string

const (
	// PlatformCodeShopify is the source platform
	PlatformCodeShopify PlatformCode = "SHOPIFY"
	// PlatformCodeWooCommerce is the target platform
	PlatformCodeWooCommerce PlatformCode = "WOOCOMMERCE"
)

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeShopify, PlatformCodeWooCommerce:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// ---------------------------------------------------------------------------
// ValueKind
// ---------------------------------------------------------------------------

// ValueKind distinguishes quantity observations from price observations
type ValueKind string

const (
	// ValueKindQuantity marks a stock quantity value
	ValueKindQuantity ValueKind = "QUANTITY"
	// ValueKindPrice marks a price value
	ValueKindPrice ValueKind = "PRICE"
)

// IsValid returns true if the value kind is valid
func (k ValueKind) IsValid() bool {
	return k == ValueKindQuantity || k == ValueKindPrice
}

// ---------------------------------------------------------------------------
// Observation
// ---------------------------------------------------------------------------

// Observation is a value read live from one platform at a point in time.
// Observations are ephemeral: they exist only for the duration of one
// synchronization pass and are never persisted by the core.
type Observation struct {
	// ResourceKey is the canonical cross-platform identifier
	ResourceKey ResourceKey
	// Platform identifies which platform produced the value
	Platform PlatformCode
	// Kind distinguishes quantity from price
	Kind ValueKind
	// Value is the observed quantity or price
	Value decimal.Decimal
	// Currency is the price currency (empty for quantity observations)
	Currency string
	// ObservedAt is when the value was read
	ObservedAt time.Time
}

// Conflict pairs two observations of the same resource that disagree
// beyond tolerance. It exists only for the duration of resolution.
type Conflict struct {
	ResourceKey ResourceKey
	Kind        ValueKind
	// Source is the observation from the source platform
	Source Observation
	// Target is the observation from the target platform
	Target Observation
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// ResolutionStrategy names the policy that decided a conflict
type ResolutionStrategy string

const (
	// StrategyLatestTransaction adopts the resulting value of the most
	// recent ledger entry recorded after the last synchronization time
	StrategyLatestTransaction ResolutionStrategy = "latest_transaction"
	// StrategyConservativeMinimum adopts the lower of two divergent
	// quantities to prevent overselling when the true state is ambiguous
	StrategyConservativeMinimum ResolutionStrategy = "conservative_minimum"
	// StrategyIgnore indicates the difference is within tolerance and no
	// write is required
	StrategyIgnore ResolutionStrategy = "ignore"
	// StrategyManualOverride preserves a recent human-set value
	StrategyManualOverride ResolutionStrategy = "manual_override"
	// StrategyRecalculateFromSource recomputes the target price from the
	// source price, exchange rate and margin
	StrategyRecalculateFromSource ResolutionStrategy = "recalculate_from_source"
)

// String returns the string representation of the strategy
func (s ResolutionStrategy) String() string {
	return string(s)
}

// Resolution is the output of conflict handling: the decided authoritative
// value, the strategy that produced it, and the evidence needed to
// independently re-derive the decision. The caller is responsible for
// recording it; the resolver itself performs no writes.
type Resolution struct {
	ResourceKey ResourceKey
	Kind        ValueKind
	// Strategy names the policy used
	Strategy ResolutionStrategy
	// Value is the decided authoritative value. Meaningless when
	// Strategy is StrategyIgnore.
	Value decimal.Decimal
	// WriteRequired is false when the resolution concluded no remote
	// update is needed
	WriteRequired bool
	// Evidence carries the inputs the decision was derived from
	Evidence ResolutionEvidence
	// ResolvedAt is when the decision was made
	ResolvedAt time.Time
}

// ResolutionEvidence captures the inputs a Resolution was derived from
type ResolutionEvidence struct {
	// Observations are the divergent platform reads
	Observations []Observation
	// LedgerEntries are the ledger records consulted, if any
	LedgerEntries []LedgerEntry
	// Detail is a short human-readable rationale
	Detail string
}
