package cache

import (
	"context"
	"sync"
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
)

// Store is a key-value cache with a time-to-live policy. Values are treated
// as immutable once stored: Put replaces an entry wholesale.
type Store[V any] interface {
	Get(key string) (V, bool)
	Put(key string, value V)
	Size() int
	Clear()
}

// memoryEntry represents a cached value with its insertion time
type memoryEntry[V any] struct {
	value     V
	timestamp time.Time
}

// MemoryStore provides a thread-safe in-memory Store
type MemoryStore[V any] struct {
	entries    map[string]memoryEntry[V]
	expiration time.Duration
	mutex      sync.RWMutex
}

// NewMemoryStore creates a new memory store. A zero expiration keeps
// entries for the lifetime of the process.
func NewMemoryStore[V any](expiration time.Duration) *MemoryStore[V] {
	return &MemoryStore[V]{
		entries:    make(map[string]memoryEntry[V]),
		expiration: expiration,
	}
}

// Get retrieves a value from the store if available and not expired
func (s *MemoryStore[V]) Get(key string) (V, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, exists := s.entries[key]
	if !exists || s.expired(entry, time.Now()) {
		var zero V
		return zero, false
	}

	return entry.value, true
}

// Put stores a value, overwriting any previous entry for key
func (s *MemoryStore[V]) Put(key string, value V) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[key] = memoryEntry[V]{
		value:     value,
		timestamp: time.Now(),
	}
}

// Clear clears all entries from the store
func (s *MemoryStore[V]) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = make(map[string]memoryEntry[V])
}

// Size returns the number of items in the store, expired ones included
func (s *MemoryStore[V]) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.entries)
}

// CleanExpired removes expired entries from the store
func (s *MemoryStore[V]) CleanExpired() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	count := 0
	now := time.Now()

	for key, entry := range s.entries {
		if s.expired(entry, now) {
			delete(s.entries, key)
			count++
		}
	}

	return count
}

func (s *MemoryStore[V]) expired(entry memoryEntry[V], now time.Time) bool {
	return s.expiration > 0 && now.Sub(entry.timestamp) > s.expiration
}

// Expirer is a store that can drop its expired entries
type Expirer interface {
	CleanExpired() int
}

// Janitor periodically removes expired entries from memory stores, which
// otherwise only hide them from Get.
type Janitor struct {
	interval time.Duration
	stores   []Expirer
	logger   logger.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewJanitor creates a janitor sweeping stores every interval
func NewJanitor(interval time.Duration, log logger.Logger, stores ...Expirer) *Janitor {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Janitor{interval: interval, stores: stores, logger: log}
}

// Start launches the sweep loop. A non-positive interval leaves it idle.
func (j *Janitor) Start() {
	if j.interval <= 0 || j.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	j.done = make(chan struct{})

	go func() {
		defer close(j.done)
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.Sweep()
			}
		}
	}()
}

// Sweep removes expired entries from every store once
func (j *Janitor) Sweep() int {
	removed := 0
	for _, store := range j.stores {
		removed += store.CleanExpired()
	}
	if removed > 0 {
		j.logger.Debug("Expired cache entries removed", map[string]interface{}{
			"removed": removed,
		})
	}
	return removed
}

// Stop ends the sweep loop and waits for it to exit
func (j *Janitor) Stop() {
	if j.cancel == nil {
		return
	}
	j.cancel()
	<-j.done
	j.cancel = nil
}
