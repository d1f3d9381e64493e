package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal outcome: ok / 错误码 / bad_request
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regress_runs_total",
			Help: "Total number of regression runs by outcome",
		},
		[]string{"outcome"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "regress_run_duration_seconds",
			Help:    "Wall time of a regression run",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)

	BootstrapDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "regress_bootstrap_dropped_total",
			Help: "Bootstrap iterations dropped because the resample was singular",
		},
	)
)
