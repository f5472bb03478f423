package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Resolver Configuration
// ---------------------------------------------------------------------------

// ResolverConfig holds the tunable policy parameters of conflict
// resolution. The defaults are policy, not physics: tolerance and override
// window are operator decisions.
type ResolverConfig struct {
	// PriceThresholdPercent is the percent difference below which a price
	// divergence is treated as rounding noise and ignored
	PriceThresholdPercent decimal.Decimal
	// ManualOverrideWindow is how recently a manual ledger entry must have
	// been recorded to win a price conflict
	ManualOverrideWindow time.Duration
}

// DefaultResolverConfig returns the default resolution policy
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		PriceThresholdPercent: decimal.NewFromInt(5),
		ManualOverrideWindow:  24 * time.Hour,
	}
}

// Validate validates the configuration
func (c *ResolverConfig) Validate() error {
	if c.PriceThresholdPercent.IsNegative() {
		return fmt.Errorf("reconcile: price threshold must not be negative")
	}
	if c.ManualOverrideWindow <= 0 {
		return fmt.Errorf("reconcile: manual override window must be positive")
	}
	return nil
}

// PriceContext carries the pricing inputs a price resolution needs: the
// current exchange rate from the source platform's currency to the target's,
// and the margin multiplier applied on top.
type PriceContext struct {
	ExchangeRate     decimal.Decimal
	MarginMultiplier decimal.Decimal
}

// ExpectedTargetPrice computes the price the target platform should carry
// for a given source price: (source / rate) * margin.
func (p PriceContext) ExpectedTargetPrice(sourcePrice decimal.Decimal) decimal.Decimal {
	return sourcePrice.Div(p.ExchangeRate).Mul(p.MarginMultiplier)
}

// ---------------------------------------------------------------------------
// Resolver
// ---------------------------------------------------------------------------

// Resolver decides the authoritative value for a conflict between two
// divergent platform observations. Its only I/O is reading ledger entries;
// every Resolution carries the inputs and strategy name so the decision can
// be re-derived and audited independently.
type Resolver struct {
	ledger LedgerReader
	cfg    ResolverConfig
}

// NewResolver creates a resolver over the given ledger read side
func NewResolver(ledger LedgerReader, cfg ResolverConfig) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{ledger: ledger, cfg: cfg}, nil
}

// ResolveQuantity decides the authoritative quantity for a divergence
// between the two platforms.
//
// If the ledger recorded a change for this resource strictly after
// lastSyncAt, that entry's resulting value is ground truth. Otherwise the
// lower of the two observations wins: when the true state is ambiguous,
// underselling is recoverable and overselling is not.
func (r *Resolver) ResolveQuantity(ctx context.Context, conflict Conflict, lastSyncAt time.Time) (Resolution, error) {
	entries, err := r.ledger.FindLatestSince(ctx, conflict.ResourceKey, ValueKindQuantity, lastSyncAt)
	if err != nil {
		return Resolution{}, fmt.Errorf("reconcile: reading ledger for %s: %w", conflict.ResourceKey, err)
	}

	if len(entries) > 0 {
		latest := entries[0]
		return Resolution{
			ResourceKey:   conflict.ResourceKey,
			Kind:          ValueKindQuantity,
			Strategy:      StrategyLatestTransaction,
			Value:         latest.NewValue,
			WriteRequired: true,
			Evidence: ResolutionEvidence{
				Observations:  []Observation{conflict.Source, conflict.Target},
				LedgerEntries: entries,
				Detail: fmt.Sprintf("ledger entry at %s recorded quantity %s after last sync %s",
					latest.RecordedAt.Format(time.RFC3339), latest.NewValue, lastSyncAt.Format(time.RFC3339)),
			},
			ResolvedAt: time.Now(),
		}, nil
	}

	value := decimal.Min(conflict.Source.Value, conflict.Target.Value)
	return Resolution{
		ResourceKey:   conflict.ResourceKey,
		Kind:          ValueKindQuantity,
		Strategy:      StrategyConservativeMinimum,
		Value:         value,
		WriteRequired: true,
		Evidence: ResolutionEvidence{
			Observations: []Observation{conflict.Source, conflict.Target},
			Detail: fmt.Sprintf("no ledger entry after last sync; adopting min(%s, %s)",
				conflict.Source.Value, conflict.Target.Value),
		},
		ResolvedAt: time.Now(),
	}, nil
}

// ResolvePrice decides whether and how to correct the target platform's
// price given the source platform's price and the pricing context.
//
// Differences below the configured threshold are rounding noise and
// resolve to ignore. A manual ledger entry inside the override window wins
// next: human intent is never silently reverted by automation. Otherwise
// the price is recomputed from the source, rounded to the minor unit of
// the target currency.
func (r *Resolver) ResolvePrice(ctx context.Context, conflict Conflict, pricing PriceContext) (Resolution, error) {
	expected := pricing.ExpectedTargetPrice(conflict.Source.Value)
	observed := conflict.Target.Value

	if !expected.IsZero() {
		percentDiff := observed.Sub(expected).Abs().Div(expected).Mul(decimal.NewFromInt(100))
		if percentDiff.LessThan(r.cfg.PriceThresholdPercent) {
			return Resolution{
				ResourceKey:   conflict.ResourceKey,
				Kind:          ValueKindPrice,
				Strategy:      StrategyIgnore,
				Value:         observed,
				WriteRequired: false,
				Evidence: ResolutionEvidence{
					Observations: []Observation{conflict.Source, conflict.Target},
					Detail: fmt.Sprintf("difference %s%% below threshold %s%%",
						percentDiff.StringFixed(2), r.cfg.PriceThresholdPercent),
				},
				ResolvedAt: time.Now(),
			}, nil
		}
	}

	override, err := r.ledger.FindManualOverride(ctx, conflict.ResourceKey, ValueKindPrice, r.cfg.ManualOverrideWindow)
	if err != nil {
		return Resolution{}, fmt.Errorf("reconcile: reading manual overrides for %s: %w", conflict.ResourceKey, err)
	}
	if override != nil {
		return Resolution{
			ResourceKey:   conflict.ResourceKey,
			Kind:          ValueKindPrice,
			Strategy:      StrategyManualOverride,
			Value:         override.NewValue,
			WriteRequired: !override.NewValue.Equal(observed),
			Evidence: ResolutionEvidence{
				Observations:  []Observation{conflict.Source, conflict.Target},
				LedgerEntries: []LedgerEntry{*override},
				Detail: fmt.Sprintf("manual entry at %s within %s window",
					override.RecordedAt.Format(time.RFC3339), r.cfg.ManualOverrideWindow),
			},
			ResolvedAt: time.Now(),
		}, nil
	}

	value := expected.Round(MinorUnitPlaces(conflict.Target.Currency))
	return Resolution{
		ResourceKey:   conflict.ResourceKey,
		Kind:          ValueKindPrice,
		Strategy:      StrategyRecalculateFromSource,
		Value:         value,
		WriteRequired: true,
		Evidence: ResolutionEvidence{
			Observations: []Observation{conflict.Source, conflict.Target},
			Detail: fmt.Sprintf("recomputed from source price %s with rate %s and margin %s",
				conflict.Source.Value, pricing.ExchangeRate, pricing.MarginMultiplier),
		},
		ResolvedAt: time.Now(),
	}, nil
}

// zeroDecimalCurrencies are ISO 4217 currencies without a minor unit
var zeroDecimalCurrencies = map[string]struct{}{
	"JPY": {}, "KRW": {}, "VND": {}, "CLP": {}, "ISK": {},
	"BIF": {}, "DJF": {}, "GNF": {}, "KMF": {}, "PYG": {},
	"RWF": {}, "UGX": {}, "VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

// MinorUnitPlaces returns how many decimal places the currency's minor
// unit carries: 0 for currencies without subdivision, otherwise 2.
func MinorUnitPlaces(currency string) int32 {
	if _, ok := zeroDecimalCurrencies[currency]; ok {
		return 0
	}
	return 2
}
