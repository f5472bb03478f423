package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/shopbridge/backend/internal/domain/reconcile"
)

var (
	errInvalidRetryConfig    = errors.New("batch: invalid retry configuration")
	errInvalidBreakerConfig  = errors.New("batch: invalid circuit breaker configuration")
	errInvalidExecutorConfig = errors.New("batch: invalid executor configuration")
)

// BreakerConfig holds circuit breaker parameters for the remote write path
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive transient failures
	// after which the breaker opens
	FailureThreshold uint32
	// Cooldown is how long the breaker stays open before allowing a
	// half-open trial call
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the default breaker policy
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	}
}

// Validate validates the configuration
func (c *BreakerConfig) Validate() error {
	if c.FailureThreshold == 0 || c.Cooldown <= 0 {
		return errInvalidBreakerConfig
	}
	return nil
}

// Breaker wraps the remote call path with a circuit breaker. After the
// consecutive-failure threshold it opens and fails fast for the cooldown
// period, then allows one trial call before closing again on success.
// Only transient failures count toward tripping: a platform that answers
// with validation errors is up, just unhappy with the payload.
type Breaker struct {
	cb     *gobreaker.CircuitBreaker[struct{}]
	logger *zap.Logger
}

// NewBreaker creates a breaker with the given policy
func NewBreaker(name string, cfg BreakerConfig, logger *zap.Logger) (*Breaker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Breaker{logger: logger}
	b.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !reconcile.IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return b, nil
}

// Execute runs op through the breaker. While open it fails fast with
// ErrPlatformUnavailable without attempting the call.
func (b *Breaker) Execute(op func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, op()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: circuit breaker open", reconcile.ErrPlatformUnavailable)
	}
	return err
}

// State returns the current breaker state name (for diagnostics)
func (b *Breaker) State() string {
	return b.cb.State().String()
}
