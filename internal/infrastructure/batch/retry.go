package batch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/shopbridge/backend/internal/domain/reconcile"
)

// RetryConfig holds the shared retry/backoff parameters. Every remote call
// site uses this one abstraction instead of hand-rolled retry loops; the
// transient-vs-permanent split comes from the domain error classifier.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// InitialDelay is the backoff floor for the first retry
	InitialDelay time.Duration
	// MaxDelay caps the delay between attempts
	MaxDelay time.Duration
	// Multiplier grows the delay per attempt
	Multiplier float64
	// RandomizationFactor adds jitter so concurrent executors do not
	// retry in lockstep
	RandomizationFactor float64
}

// DefaultRetryConfig returns the default retry policy
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:          3,
		InitialDelay:        500 * time.Millisecond,
		MaxDelay:            10 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.3,
	}
}

// Validate validates the configuration
func (c *RetryConfig) Validate() error {
	if c.MaxRetries < 0 {
		return errInvalidRetryConfig
	}
	if c.InitialDelay <= 0 || c.MaxDelay < c.InitialDelay {
		return errInvalidRetryConfig
	}
	if c.Multiplier < 1 {
		return errInvalidRetryConfig
	}
	return nil
}

// Retry runs op, retrying transient failures with exponential backoff and
// jitter up to the configured retry count. Permanent failures, as decided
// by reconcile.IsTransient, are returned immediately without further
// attempts.
func Retry(ctx context.Context, cfg RetryConfig, logger *zap.Logger, op func() error) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = cfg.InitialDelay
	expo.MaxInterval = cfg.MaxDelay
	expo.Multiplier = cfg.Multiplier
	expo.RandomizationFactor = cfg.RandomizationFactor

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := op(); err != nil {
			if !reconcile.IsTransient(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(cfg.MaxRetries)+1),
		backoff.WithNotify(func(err error, delay time.Duration) {
			logger.Debug("transient failure, backing off",
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		}),
	)
	return err
}
