package cache

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
	"github.com/dgraph-io/badger/v3"
)

// BadgerStore is a Store backed by a badger database. Values are stored as
// JSON under a key prefix, and badger's per-entry TTL enforces expiration.
type BadgerStore[V any] struct {
	db     *badger.DB
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

// OpenInMemoryBadger opens a badger database that never touches disk
func OpenInMemoryBadger() (*badger.DB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Disable Badger's default logger
	return badger.Open(opts)
}

// NewBadgerStore creates a store over db. prefix keeps several stores apart
// in one database; a zero ttl keeps entries until the database closes.
func NewBadgerStore[V any](db *badger.DB, prefix string, ttl time.Duration, log logger.Logger) *BadgerStore[V] {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &BadgerStore[V]{
		db:     db,
		prefix: prefix + ":",
		ttl:    ttl,
		logger: log,
	}
}

// Get retrieves and decodes a value
func (s *BadgerStore[V]) Get(key string) (V, bool) {
	var value V

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &value)
		})
	})

	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Warn("Failed to read cache entry", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		var zero V
		return zero, false
	}

	return value, true
}

// Put encodes and stores a value
func (s *BadgerStore[V]) Put(key string, value V) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("Failed to encode cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(s.key(key), data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		s.logger.Error("Failed to store cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// Size counts the live entries under the store prefix
func (s *BadgerStore[V]) Size() int {
	count := 0
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(s.prefix)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}

// Clear drops every entry under the store prefix
func (s *BadgerStore[V]) Clear() {
	if err := s.db.DropPrefix([]byte(s.prefix)); err != nil {
		s.logger.Error("Failed to clear cache", map[string]interface{}{
			"prefix": s.prefix,
			"error":  err.Error(),
		})
	}
}

func (s *BadgerStore[V]) key(key string) []byte {
	return []byte(s.prefix + key)
}
