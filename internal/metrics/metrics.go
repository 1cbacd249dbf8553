// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ForecastDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forecaster",
			Name:      "run_duration_seconds",
			Help:      "Duration of a full forecast run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	ForecastErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forecaster",
			Name:      "errors_total",
			Help:      "Forecast failures by error kind.",
		},
		[]string{"kind"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forecaster",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by result.",
		},
		[]string{"result"},
	)

	ProviderAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forecaster",
			Name:      "provider_attempts_total",
			Help:      "Market-data provider calls by provider and status.",
		},
		[]string{"provider", "status"},
	)

	FinalLoss = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "forecaster",
			Name:      "training_final_loss",
			Help:      "Final training loss of the latest run per ticker.",
		},
		[]string{"ticker"},
	)
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ForecastDuration, ForecastErrors, CacheLookups, ProviderAttempts, FinalLoss)
	})
}
