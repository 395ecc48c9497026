package sensitivity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pe_sensitivity_probes_total",
			Help: "Total number of model re-evaluations performed by sweeps",
		},
		[]string{"kind", "metric"},
	)

	cacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pe_sensitivity_cache_requests_total",
			Help: "Sweep cache lookups by result",
		},
		[]string{"result"}, // hit, miss
	)

	sweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pe_sensitivity_sweep_duration_seconds",
			Help:    "Wall time of a complete sweep or matrix evaluation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"kind"}, // sweep, matrix
	)
)
