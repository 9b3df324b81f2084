package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	readHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "daybook_cache_read_hits_total",
		Help: "Cache slot reads that returned a stored document.",
	}, []string{"slot"})

	readMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "daybook_cache_read_misses_total",
		Help: "Cache slot reads that missed, including corrupt documents.",
	}, []string{"slot"})

	writeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "daybook_cache_write_failures_total",
		Help: "Best-effort cache writes that were dropped.",
	}, []string{"slot"})
)
