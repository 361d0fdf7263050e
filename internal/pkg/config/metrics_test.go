package config

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Registered once: promauto panics on duplicate names.
var testMetrics = NewConfigMetrics("pkgconfig_test")

func TestNewConfigMetrics_Names(t *testing.T) {
	require.NotNil(t, testMetrics.LoadTimestamp)
	require.NotNil(t, testMetrics.FallbacksTotal)
	require.NotNil(t, testMetrics.FallbackActive)

	testMetrics.RecordFallback("names_probe")

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "pkgconfig_test_config_") {
			found[mf.GetName()] = true
		}
	}
	assert.True(t, found["pkgconfig_test_config_load_timestamp"])
	assert.True(t, found["pkgconfig_test_config_fallbacks_total"])
	assert.True(t, found["pkgconfig_test_config_fallback_active"])
}

func TestConfigMetrics_Record(t *testing.T) {
	before := testutil.ToFloat64(testMetrics.FallbacksTotal.WithLabelValues("cache_ttl"))
	testMetrics.RecordFallback("cache_ttl")
	testMetrics.RecordFallback("cache_ttl")
	assert.Equal(t, before+2, testutil.ToFloat64(testMetrics.FallbacksTotal.WithLabelValues("cache_ttl")))

	testMetrics.SetFallbackActive(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(testMetrics.FallbackActive))
	testMetrics.SetFallbackActive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(testMetrics.FallbackActive))

	start := float64(time.Now().Unix())
	testMetrics.RecordLoadTimestamp()
	assert.GreaterOrEqual(t, testutil.ToFloat64(testMetrics.LoadTimestamp), start)
}

func TestConfigMetrics_NilIsNoop(t *testing.T) {
	var m *ConfigMetrics
	assert.NotPanics(t, func() {
		m.RecordLoadTimestamp()
		m.RecordFallback("x")
		m.SetFallbackActive(true)
	})
}
