package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the provider has no data for a currency or date
	ErrNotFound = errors.New("not found")
	// ErrRateLimited is returned when the provider throttles us
	ErrRateLimited = errors.New("rate limited")
	// ErrUpstreamUnavailable covers network failures and 5xx responses
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrMalformedResponse is returned when a payload cannot be normalized
	ErrMalformedResponse = errors.New("malformed response")
	// ErrInvalidSnapshotDate is a malformed response whose date key does not parse
	ErrInvalidSnapshotDate = fmt.Errorf("%w: invalid snapshot date", ErrMalformedResponse)
	// ErrNoRatesAvailable is returned for a snapshot without a rate map
	ErrNoRatesAvailable = errors.New("no rates available")
	// ErrTargetNotFound is returned when the rate map lacks the requested target
	ErrTargetNotFound = errors.New("target not found")
	// ErrInvalidRange is returned when start is after end
	ErrInvalidRange = errors.New("invalid range")
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidCurrency is returned for currency codes that cannot be sent upstream
	ErrInvalidCurrency = errors.New("invalid currency code")
	// ErrInvalidAmount is returned for conversion amounts that are not positive decimals
	ErrInvalidAmount = errors.New("invalid amount")
)

// IsOutage reports whether err means the provider could not serve the request
// at all, as opposed to answering that data is missing.
func IsOutage(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrRateLimited)
}
