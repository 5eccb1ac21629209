package cache

import (
	"io"
	"testing"
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(base string, day time.Time, rates map[string]string) *entity.Snapshot {
	snapshot := &entity.Snapshot{
		Base:  base,
		Date:  day,
		Rates: make(map[string]decimal.Decimal, len(rates)),
	}
	for target, rate := range rates {
		snapshot.Rates[target] = decimal.RequireFromString(rate)
	}
	return snapshot
}

func testLogger() logger.Logger {
	return logger.NewJSONLogger(io.Discard, logger.DebugLevel)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore[*entity.Snapshot](24 * time.Hour)

	assert.Equal(t, 0, store.Size())

	date := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	snapshot := testSnapshot("eur", date, map[string]string{"usd": "1.08"})

	store.Put("eur:2023-01-15", snapshot)
	assert.Equal(t, 1, store.Size())

	retrieved, ok := store.Get("eur:2023-01-15")
	require.True(t, ok)
	assert.Same(t, snapshot, retrieved)

	_, ok = store.Get("gbp:2023-01-15")
	assert.False(t, ok)

	// Test clearing
	assert.Equal(t, 0, store.CleanExpired())
	store.Clear()
	assert.Equal(t, 0, store.Size())
}

func TestMemoryStoreExpiration(t *testing.T) {
	store := NewMemoryStore[*entity.Snapshot](10 * time.Millisecond)
	snapshot := testSnapshot("eur", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), map[string]string{"usd": "1.08"})

	store.Put("eur:2023-01-15", snapshot)
	time.Sleep(20 * time.Millisecond)
	_, ok := store.Get("eur:2023-01-15")
	assert.False(t, ok)
	// hidden but still held until cleaned
	assert.Equal(t, 1, store.Size())

	assert.Equal(t, 1, store.CleanExpired())
	assert.Equal(t, 0, store.Size())
}

func TestJanitorSweepsExpiredEntries(t *testing.T) {
	snapshots := NewMemoryStore[*entity.Snapshot](5 * time.Millisecond)
	currencies := NewMemoryStore[entity.CurrencyList](5 * time.Millisecond)
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		snapshots.Put(SnapshotKey("eur", entity.On(date.AddDate(0, 0, i))), testSnapshot("eur", date, map[string]string{"usd": "1.08"}))
	}
	currencies.Put("currencies", entity.CurrencyList{"eur": "Euro"})

	janitor := NewJanitor(5*time.Millisecond, testLogger(), snapshots, currencies)
	janitor.Start()
	defer janitor.Stop()

	assert.Eventually(t, func() bool {
		return snapshots.Size() == 0 && currencies.Size() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestJanitorSweepAndStop(t *testing.T) {
	store := NewMemoryStore[*entity.Snapshot](time.Millisecond)
	store.Put("eur:latest", testSnapshot("eur", time.Now(), map[string]string{"usd": "1.08"}))
	time.Sleep(5 * time.Millisecond)

	janitor := NewJanitor(0, testLogger(), store)
	janitor.Start() // idle without an interval
	assert.Equal(t, 1, janitor.Sweep())
	assert.Equal(t, 0, janitor.Sweep())

	janitor.Stop()
	janitor.Stop()
}

func TestMemoryStoreZeroExpirationNeverExpires(t *testing.T) {
	store := NewMemoryStore[entity.CurrencyList](0)
	store.Put("currencies", entity.CurrencyList{"eur": "Euro"})

	time.Sleep(5 * time.Millisecond)

	list, ok := store.Get("currencies")
	require.True(t, ok)
	assert.Equal(t, "Euro", list["eur"])
	assert.Equal(t, 0, store.CleanExpired())
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryStore[*entity.Snapshot](0)
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	store.Put("eur:latest", testSnapshot("eur", date, map[string]string{"usd": "1.08"}))
	store.Put("eur:latest", testSnapshot("eur", date, map[string]string{"usd": "1.09"}))

	got, ok := store.Get("eur:latest")
	require.True(t, ok)
	assert.Equal(t, "1.09", got.Rates["usd"].String())
	assert.Equal(t, 1, store.Size())
}
