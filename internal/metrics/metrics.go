package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climatology_upstream_calls_total",
			Help: "Total climate provider API calls",
		},
		[]string{"provider", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "climatology_upstream_latency_seconds",
			Help:    "Climate provider API call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	ForecastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climatology_forecasts_total",
			Help: "Total climatology requests by outcome",
		},
		[]string{"outcome"},
	)

	ForecastLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "climatology_forecast_duration_seconds",
			Help:    "End-to-end climatology request duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
	)

	MatchedYears = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "climatology_matched_years",
			Help:    "Number of historical records matching the requested calendar day",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 30, 40, 50},
		},
	)

	ProbeUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "climatology_upstream_probe_up",
			Help: "1 if the last upstream probe succeeded, 0 otherwise",
		},
		[]string{"provider"},
	)
)

// ObserveForecast records the outcome of one climatology request. An empty
// outcome counts as "ok".
func ObserveForecast(outcome string, matched int, elapsed time.Duration) {
	ForecastLatency.Observe(elapsed.Seconds())
	if outcome == "" {
		outcome = "ok"
		MatchedYears.Observe(float64(matched))
	}
	ForecastsTotal.WithLabelValues(outcome).Inc()
}
