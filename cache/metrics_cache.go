package cache

import (
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/fitness"
)

// Cache key prefixes.
const (
	SummaryCachePrefix        = "summary-"
	WeightProgressCachePrefix = "weight-progress-"
)

// MetricsCache holds the computed-metric caches keyed by user and date
// range. Entries are short-lived and cleared on every write for the owning
// user.
type MetricsCache struct {
	SummaryCache        *PrefixedCache[fitness.Summary]
	WeightProgressCache *PrefixedCache[fitness.WeightProgress]
}

// NewMetricsCache creates the metric caches backed by the configured store.
func NewMetricsCache(cfg *config.CacheConfig) *MetricsCache {
	return &MetricsCache{
		SummaryCache:        NewPrefixedCache[fitness.Summary](newCacheInstanceByType(cfg), SummaryCachePrefix),
		WeightProgressCache: NewPrefixedCache[fitness.WeightProgress](newCacheInstanceByType(cfg), WeightProgressCachePrefix),
	}
}

// Stats pairs gocache codec statistics with a cache name.
type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
}

// GetStats returns the statistics for all metric caches.
func (m *MetricsCache) GetStats() []*Stats {
	return []*Stats{
		{
			Stats:     m.SummaryCache.GetStats(),
			CacheName: "summary",
		},
		{
			Stats:     m.WeightProgressCache.GetStats(),
			CacheName: "weight-progress",
		},
	}
}
