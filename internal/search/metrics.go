package search

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eightflix_searches_total",
		Help: "Searches that reached the store, by the stage that answered.",
	}, []string{"stage"})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eightflix_search_duration_seconds",
		Help:    "Time spent in the search cascade on a cache miss.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"stage"})
)

func observe(res Result, elapsed time.Duration) {
	stage := string(res.Stage)
	searchesTotal.WithLabelValues(stage).Inc()
	searchDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}
