package reconcile

import (
	"errors"
	"strings"
)

// ErrEmptyResourceKey indicates a resource key that is empty after normalization
var ErrEmptyResourceKey = errors.New("reconcile: resource key must not be empty")

// ResourceKey is the identifier shared across both platforms for one
// tradable unit (typically a SKU). Keys are normalized before any lookup,
// comparison or lock acquisition so that two spellings differing only in
// case or surrounding whitespace resolve to the same lock and the same
// ledger entries.
type ResourceKey string

// NewResourceKey normalizes raw into a canonical ResourceKey.
// Normalization trims whitespace and upper-cases the key.
func NewResourceKey(raw string) (ResourceKey, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if normalized == "" {
		return "", ErrEmptyResourceKey
	}
	return ResourceKey(normalized), nil
}

// MustResourceKey is like NewResourceKey but panics on invalid input.
// Intended for constants and tests.
func MustResourceKey(raw string) ResourceKey {
	key, err := NewResourceKey(raw)
	if err != nil {
		panic(err)
	}
	return key
}

// String returns the canonical string form of the key
func (k ResourceKey) String() string {
	return string(k)
}

// IsZero returns true if the key is empty
func (k ResourceKey) IsZero() bool {
	return k == ""
}
