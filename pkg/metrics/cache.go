package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CacheMetrics counts metadata cache lookups.
type CacheMetrics struct {
	hits   prometheus.Counter
	misses prometheus.Counter
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	factory := promauto.With(reg)
	return &CacheMetrics{
		hits: factory.NewCounter(prometheus.CounterOpts{
			Name: "photoalbum_metadata_cache_hits_total",
			Help: "Media metadata lookups served from the LRU cache.",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Name: "photoalbum_metadata_cache_misses_total",
			Help: "Media metadata lookups that fell through to the store.",
		}),
	}
}

func (m *CacheMetrics) Hit() {
	if m == nil || m.hits == nil {
		return
	}
	m.hits.Inc()
}

func (m *CacheMetrics) Miss() {
	if m == nil || m.misses == nil {
		return
	}
	m.misses.Inc()
}
