package entity

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhen(t *testing.T) {
	latest := Latest()
	assert.True(t, latest.IsLatest())
	assert.Equal(t, "latest", latest.Key())

	day := On(time.Date(2024, 3, 5, 17, 42, 0, 0, time.UTC))
	assert.False(t, day.IsLatest())
	assert.Equal(t, "2024-03-05", day.Key())
	assert.Equal(t, "2024-03-05", day.String())
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), day.Date())
}

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), date)

	for _, value := range []string{"", "2023-02-29", "29-02-2024", "2024/02/29", "latest"} {
		_, err := ParseDate(value)
		assert.Error(t, err, value)
	}
}

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"EUR", "eur", false},
		{" usd ", "usd", false},
		{"1inch", "1inch", false},
		{"usdt", "usdt", false},
		{"eu", "", true},
		{"", "", true},
		{"../eur", "", true},
		{"averyverylongcode", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeCurrency(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCurrency)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsOutage(t *testing.T) {
	assert.True(t, IsOutage(fmt.Errorf("fetch: %w", ErrUpstreamUnavailable)))
	assert.True(t, IsOutage(ErrRateLimited))
	assert.False(t, IsOutage(ErrNotFound))
	assert.False(t, IsOutage(ErrInvalidSnapshotDate))
	assert.False(t, IsOutage(errors.New("boom")))
	assert.ErrorIs(t, ErrInvalidSnapshotDate, ErrMalformedResponse)
}
