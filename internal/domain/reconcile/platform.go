package reconcile

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Platform Errors
// ---------------------------------------------------------------------------

var (
	// ErrResourceNotFound indicates the resource does not exist on the
	// platform. Permanent: never retried.
	ErrResourceNotFound = errors.New("reconcile: resource not found on platform")
	// ErrPlatformUnavailable indicates a network-level failure reaching
	// the platform. Transient: retryable.
	ErrPlatformUnavailable = errors.New("reconcile: platform temporarily unavailable")
	// ErrPlatformRateLimited indicates the platform rejected the call for
	// exceeding its request-rate ceiling. Transient: retryable.
	ErrPlatformRateLimited = errors.New("reconcile: platform rate limited")
	// ErrPlatformRequestFailed indicates the platform rejected the request
	// (validation error, bad payload). Permanent: never retried.
	ErrPlatformRequestFailed = errors.New("reconcile: platform request failed")
	// ErrPlatformInvalidResponse indicates an unparseable platform response
	ErrPlatformInvalidResponse = errors.New("reconcile: invalid platform response")
)

// IsTransient classifies an error as retryable. Rate limiting, 5xx
// responses and network failures are transient; validation rejections and
// missing resources are not.
func IsTransient(err error) bool {
	return errors.Is(err, ErrPlatformUnavailable) || errors.Is(err, ErrPlatformRateLimited)
}

// IsNotFound reports whether err indicates a missing remote resource
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}

// ---------------------------------------------------------------------------
// Platform Ports
// ---------------------------------------------------------------------------

// PlatformReader reads live observations from one platform. Implementations
// must distinguish "not found" (ErrResourceNotFound) from transient
// failures so the orchestrator can decide whether a read is worth retrying.
type PlatformReader interface {
	// Platform returns the code of the platform this reader serves
	Platform() PlatformCode

	// GetQuantity reads the current stock quantity for the resource
	GetQuantity(ctx context.Context, key ResourceKey) (Observation, error)

	// GetPrice reads the current price for the resource
	GetPrice(ctx context.Context, key ResourceKey) (Observation, error)
}

// PlatformWriter applies values to one platform. All remote write access is
// wrapped by the batch executor; nothing else in the core calls these.
type PlatformWriter interface {
	// Platform returns the code of the platform this writer serves
	Platform() PlatformCode

	// ApplyQuantity sets the stock quantity for the resource
	ApplyQuantity(ctx context.Context, key ResourceKey, value decimal.Decimal) error

	// ApplyPrice sets the price for the resource
	ApplyPrice(ctx context.Context, key ResourceKey, value decimal.Decimal) error
}
