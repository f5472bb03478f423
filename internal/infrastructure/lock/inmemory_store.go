package lock

import (
	"context"
	"sync"
	"time"

	"github.com/shopbridge/backend/internal/domain/reconcile"
)

// entry is a stored lease value with expiration
type entry struct {
	value     string
	expiresAt time.Time
}

// InMemoryCoordinationStore implements the coordination store with an
// in-process map. Suitable for single-instance deployments and testing;
// it provides the same expired-is-absent semantics as the Redis store.
type InMemoryCoordinationStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryCoordinationStore creates an in-memory store and starts a
// background goroutine that removes expired entries.
func NewInMemoryCoordinationStore() *InMemoryCoordinationStore {
	store := &InMemoryCoordinationStore{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// SetIfAbsent stores value under key with a TTL if no live value exists.
// An expired entry counts as absent regardless of cleanup timing.
func (s *InMemoryCoordinationStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.entries[key]; exists && time.Now().Before(e.expiresAt) {
		return false, nil
	}

	s.entries[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return true, nil
}

// Delete removes key
func (s *InMemoryCoordinationStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Exists reports whether a live value exists under key
func (s *InMemoryCoordinationStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists || time.Now().After(e.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryCoordinationStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryCoordinationStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// cleanupLoop periodically removes expired entries
func (s *InMemoryCoordinationStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemoryCoordinationStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Ensure InMemoryCoordinationStore implements CoordinationStore
var _ reconcile.CoordinationStore = (*InMemoryCoordinationStore)(nil)
