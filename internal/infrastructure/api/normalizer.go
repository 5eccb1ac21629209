package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

// dateKey is the only top-level key that is not a base currency
const dateKey = "date"

// NormalizeSnapshot converts a provider document such as
//
//	{"date": "2024-01-01", "eur": {"usd": 1.08, "gbp": 0.86}}
//
// into a Snapshot. Top-level keys are scanned in document order: "date" is
// parsed as the snapshot day, the first other key holding an object becomes
// the base and its entries the rates. Entries that are not objects are
// skipped, and single rates that do not parse to a positive decimal are
// dropped. A document with no usable rate object is ErrMalformedResponse.
func NormalizeSnapshot(raw []byte, log logger.Logger) (*entity.Snapshot, error) {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMalformedResponse, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: document is not an object", entity.ErrMalformedResponse)
	}

	snapshot := &entity.Snapshot{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrMalformedResponse, err)
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrMalformedResponse, err)
		}

		if key == dateKey {
			date, err := parseSnapshotDate(value)
			if err != nil {
				return nil, err
			}
			snapshot.Date = date
			continue
		}

		if snapshot.Rates != nil {
			log.Debug("Ignoring additional rate object", map[string]interface{}{
				"base": snapshot.Base,
				"key":  key,
			})
			continue
		}

		rates, ok := decodeRateMap(key, value, log)
		if !ok {
			log.Warn("Skipping non-object entry in snapshot", map[string]interface{}{
				"key": key,
			})
			continue
		}
		snapshot.Base = strings.ToLower(key)
		snapshot.Rates = rates
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMalformedResponse, err)
	}

	if snapshot.Rates == nil {
		return nil, fmt.Errorf("%w: no rate object in document", entity.ErrMalformedResponse)
	}

	return snapshot, nil
}

func parseSnapshotDate(value json.RawMessage) (time.Time, error) {
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", entity.ErrInvalidSnapshotDate, string(value))
	}
	parsed, err := entity.ParseDate(text)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", entity.ErrInvalidSnapshotDate, text)
	}
	return parsed, nil
}

func decodeRateMap(base string, value json.RawMessage, log logger.Logger) (map[string]decimal.Decimal, bool) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, false
	}

	rates := make(map[string]decimal.Decimal, len(entries))
	for target, rawRate := range entries {
		rate, err := parseRate(rawRate)
		if err != nil {
			log.Warn("Dropping unparseable rate", map[string]interface{}{
				"base":   base,
				"target": target,
				"value":  string(rawRate),
				"error":  err.Error(),
			})
			continue
		}
		rates[target] = rate
	}

	return rates, true
}

// parseRate accepts JSON numbers and numeric strings
func parseRate(raw json.RawMessage) (decimal.Decimal, error) {
	text := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(text, `"`) {
		var unquoted string
		if err := json.Unmarshal(raw, &unquoted); err != nil {
			return decimal.Decimal{}, err
		}
		text = strings.TrimSpace(unquoted)
	}

	rate, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("rate %s is not positive", text)
	}
	return rate, nil
}
