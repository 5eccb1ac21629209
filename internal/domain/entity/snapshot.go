package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the textual date format used at every boundary
const DateLayout = "2006-01-02"

// LatestKey is the temporal key of the provider's most recent snapshot
const LatestKey = "latest"

// Snapshot is one point-in-time set of rates for a single base currency
type Snapshot struct {
	Base  string                     `json:"base"`
	Date  time.Time                  `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// ExchangeRate is a single base/target rate derived from a snapshot
type ExchangeRate struct {
	Base       string          `json:"base"`
	Target     string          `json:"target"`
	Rate       decimal.Decimal `json:"rate"`
	Date       time.Time       `json:"date"`
	ObservedAt int64           `json:"timestamp"`
}

// RateSeries is an ascending-by-date sequence of exchange rates.
// Days without a resolvable rate are omitted.
type RateSeries []ExchangeRate

// CurrencyList maps a currency code to its display name
type CurrencyList map[string]string

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// TruncateDay drops the clock part of t, keeping its calendar date in UTC
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// When selects which snapshot to read: the latest one or an explicit day
type When struct {
	date time.Time
}

// Latest selects the provider's most recent snapshot
func Latest() When {
	return When{}
}

// On selects the snapshot published for the calendar day of date
func On(date time.Time) When {
	return When{date: TruncateDay(date)}
}

// IsLatest reports whether w selects the latest snapshot
func (w When) IsLatest() bool {
	return w.date.IsZero()
}

// Date returns the selected day, zero for Latest
func (w When) Date() time.Time {
	return w.date
}

// Key returns "latest" or the selected day in DateLayout
func (w When) Key() string {
	if w.IsLatest() {
		return LatestKey
	}
	return w.date.Format(DateLayout)
}

func (w When) String() string {
	return w.Key()
}
