package entity

import (
	"regexp"
	"strings"
)

var currencyCodePattern = regexp.MustCompile(`^[a-z0-9]{3,10}$`)

// NormalizeCurrency lowercases a currency code and checks it is safe to use
// as an upstream path segment. Crypto codes such as "1inch" are accepted.
func NormalizeCurrency(code string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if !currencyCodePattern.MatchString(normalized) {
		return "", ErrInvalidCurrency
	}
	return normalized, nil
}
