package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CacheLookupsTotal.WithLabelValues(CacheHit).Inc()
	m.CacheLookupsTotal.WithLabelValues(CacheHit).Inc()
	m.RangeDaysTotal.WithLabelValues(DayFailed).Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues(CacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RangeDaysTotal.WithLabelValues(DayFailed)))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	assert.Contains(t, names, "ratesnap_cache_lookups_total")
	assert.Contains(t, names, "ratesnap_range_days_total")
}

func TestNopDoesNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop()
		Nop()
	})
}
