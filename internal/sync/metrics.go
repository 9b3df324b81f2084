package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "daybook_sync_checks_total",
		Help: "CheckAndSync invocations.",
	})

	fullLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "daybook_sync_full_loads_total",
		Help: "Full remote loads by trigger reason.",
	}, []string{"reason"})

	failuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "daybook_sync_failures_total",
		Help: "Full loads that stopped on a remote error.",
	})

	fullLoadSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "daybook_sync_full_load_seconds",
		Help:    "Wall time of completed full loads.",
		Buckets: prometheus.DefBuckets,
	})
)
