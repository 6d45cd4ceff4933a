package cache

import (
	"context"
	"testing"

	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/fitness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCacheConfig() *config.CacheConfig {
	return &config.CacheConfig{
		SnapshotTTL: 300,
		SummaryTTL:  300,
		Type:        config.CacheTypeMemory,
	}
}

func TestMetricsCacheRoundTrip(t *testing.T) {
	m := NewMetricsCache(testCacheConfig())
	ctx := context.Background()

	summary := fitness.Summary{Count: 2, TotalDuration: 90, AverageIntensity: 2, EstimatedCalories: 852}
	require.NoError(t, m.SummaryCache.Set(ctx, "u1:0:0", summary))

	got, err := m.SummaryCache.Get(ctx, "u1:0:0")
	require.NoError(t, err)
	assert.Equal(t, summary, got)

	_, err = m.SummaryCache.Get(ctx, "missing")
	assert.Error(t, err)
}

func TestMetricsCacheClear(t *testing.T) {
	m := NewMetricsCache(testCacheConfig())
	ctx := context.Background()

	require.NoError(t, m.SummaryCache.Set(ctx, "u1:0:0", fitness.Summary{Count: 1}))
	require.NoError(t, m.SummaryCache.Clear(ctx))

	_, err := m.SummaryCache.Get(ctx, "u1:0:0")
	assert.Error(t, err)
}

func TestMetricsCacheStats(t *testing.T) {
	m := NewMetricsCache(testCacheConfig())

	stats := m.GetStats()
	require.Len(t, stats, 2)
	assert.Equal(t, "summary", stats[0].CacheName)
	assert.Equal(t, "weight-progress", stats[1].CacheName)
}
