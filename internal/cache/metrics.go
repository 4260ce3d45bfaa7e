package cache

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	invalidations prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sysdash_cache_hits_total",
			Help: "Query cache lookups served from a fresh entry",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sysdash_cache_misses_total",
			Help: "Query cache lookups that had to recompute",
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sysdash_cache_invalidations_total",
			Help: "Explicit drops of every cache entry",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.hits, m.misses, m.invalidations)
	}
	return m
}
