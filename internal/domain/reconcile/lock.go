package reconcile

import (
	"context"
	"errors"
	"time"
)

// ---------------------------------------------------------------------------
// Coordination Store Port
// ---------------------------------------------------------------------------

// ErrCoordinationUnavailable indicates the coordination store could not be
// reached. This is an infrastructure failure: runs depending on the store
// must fail rather than proceed unlocked.
var ErrCoordinationUnavailable = errors.New("reconcile: coordination store unavailable")

// CoordinationStore is an external key-value store with atomic
// conditional-set and expiry, used only for leases. Implementations must
// guarantee that SetIfAbsent is atomic: concurrent callers racing on the
// same key see exactly one true.
type CoordinationStore interface {
	// SetIfAbsent atomically stores value under key with the given TTL if
	// and only if no live value exists. Returns true if this call created
	// the entry.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a live value exists under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// ---------------------------------------------------------------------------
// Lock Manager Port
// ---------------------------------------------------------------------------

// LockManager grants short-lived resource-scoped leases so that at most one
// synchronization action per (resource, operation) pair runs at a time
// across all process instances.
type LockManager interface {
	// Acquire attempts to take the lease for (key, operation). It returns
	// true only if this call created the lease; concurrent callers racing
	// on the same pair see exactly one true.
	Acquire(ctx context.Context, key ResourceKey, operation string, ttl time.Duration) (bool, error)

	// Release is a best-effort delete of the lease. A failed release is
	// bounded by the TTL: the lease expires on its own.
	Release(ctx context.Context, key ResourceKey, operation string) error

	// IsHeld reports whether a live lease exists. Advisory only: never a
	// substitute for the atomic Acquire check.
	IsHeld(ctx context.Context, key ResourceKey, operation string) (bool, error)
}
