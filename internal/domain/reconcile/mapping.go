package reconcile

import (
	"context"
	"errors"
	"time"
)

// ErrMappingNotFound indicates no catalog entry maps the resource key to a
// platform identifier. Items without a mapping are skipped before any
// network attempt.
var ErrMappingNotFound = errors.New("reconcile: product mapping not found")

// ProductMapping links a canonical resource key to the identifiers one
// platform uses for the same tradable unit. Owned by the external mapping
// catalog; the core only reads it.
type ProductMapping struct {
	ResourceKey ResourceKey
	Platform    PlatformCode
	// PlatformProductID is the product identifier on the platform
	PlatformProductID string
	// PlatformVariantID is the variant/SKU-level identifier, where the
	// platform distinguishes it from the product (empty otherwise)
	PlatformVariantID string
	// InventoryItemID is the platform's inventory tracking identifier,
	// where distinct from the product (empty otherwise)
	InventoryItemID string
	// Currency is the currency prices are listed in on this platform
	Currency string
	UpdatedAt time.Time
}

// MappingCatalog resolves resource keys to per-platform identifiers
type MappingCatalog interface {
	// Find returns the mapping for (key, platform), or ErrMappingNotFound
	Find(ctx context.Context, key ResourceKey, platform PlatformCode) (*ProductMapping, error)
}
