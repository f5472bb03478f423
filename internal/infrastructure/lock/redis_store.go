package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopbridge/backend/internal/domain/reconcile"
)

// RedisCoordinationStore implements the coordination store on Redis.
// SET NX with expiry gives the atomic conditional-set the lock manager
// depends on, and works across all process instances sharing the Redis.
type RedisCoordinationStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisCoordinationStore creates a store with its own Redis client and
// verifies connectivity before returning.
func NewRedisCoordinationStore(cfg RedisConfig) (*RedisCoordinationStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", reconcile.ErrCoordinationUnavailable, err)
	}

	return &RedisCoordinationStore{
		client:    client,
		keyPrefix: "sync:lease:",
	}, nil
}

// NewRedisCoordinationStoreWithClient creates a store with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisCoordinationStoreWithClient(client *redis.Client, keyPrefix string) *RedisCoordinationStore {
	if keyPrefix == "" {
		keyPrefix = "sync:lease:"
	}
	return &RedisCoordinationStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// SetIfAbsent atomically stores value under key with a TTL if no live value
// exists. Returns true only if this call created the entry.
func (s *RedisCoordinationStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	created, err := s.client.SetNX(ctx, s.keyPrefix+key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", reconcile.ErrCoordinationUnavailable, err)
	}
	return created, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *RedisCoordinationStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", reconcile.ErrCoordinationUnavailable, err)
	}
	return nil
}

// Exists reports whether a live value exists under key
func (s *RedisCoordinationStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", reconcile.ErrCoordinationUnavailable, err)
	}
	return n > 0, nil
}

// Close closes the Redis client
func (s *RedisCoordinationStore) Close() error {
	return s.client.Close()
}

// Ensure RedisCoordinationStore implements CoordinationStore
var _ reconcile.CoordinationStore = (*RedisCoordinationStore)(nil)
