package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics for fundscreen
// ⭐ SSOT: 메트릭 정의는 여기서만
type Registry struct {
	reg *prometheus.Registry

	ScreenDuration  *prometheus.HistogramVec
	ScreenRuns      *prometheus.CounterVec
	RankedCompanies prometheus.Gauge
	ExcludedRecords *prometheus.CounterVec
	FetchResults    *prometheus.CounterVec
}

// New creates a registry with every fundscreen metric registered
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		ScreenDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundscreen_screen_duration_seconds",
				Help:    "Duration of a derive+rank screening run in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"method"},
		),

		ScreenRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundscreen_screen_runs_total",
				Help: "Total number of screening runs by outcome",
			},
			[]string{"method", "status"},
		),

		RankedCompanies: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fundscreen_ranked_companies",
				Help: "Number of companies ranked by the latest run",
			},
		),

		ExcludedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundscreen_excluded_records_total",
				Help: "Records dropped before ranking, by exclusion reason",
			},
			[]string{"reason"},
		),

		FetchResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundscreen_fetch_results_total",
				Help: "Fundamentals fetch attempts by source and outcome",
			},
			[]string{"source", "status"},
		),
	}

	r.reg.MustRegister(
		r.ScreenDuration,
		r.ScreenRuns,
		r.RankedCompanies,
		r.ExcludedRecords,
		r.FetchResults,
	)

	return r
}

// Handler exposes the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying gatherer (tests)
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveScreen records a successful screening run
func (r *Registry) ObserveScreen(method string, duration time.Duration, ranked int, excluded map[string]int) {
	r.ScreenDuration.WithLabelValues(method).Observe(duration.Seconds())
	r.ScreenRuns.WithLabelValues(method, "ok").Inc()
	r.RankedCompanies.Set(float64(ranked))
	for reason, n := range excluded {
		r.ExcludedRecords.WithLabelValues(reason).Add(float64(n))
	}
}

// ObserveScreenError records a rejected screening run
func (r *Registry) ObserveScreenError(method string) {
	r.ScreenRuns.WithLabelValues(method, "error").Inc()
}

// ObserveFetch records one fundamentals fetch
func (r *Registry) ObserveFetch(source string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	r.FetchResults.WithLabelValues(source, status).Inc()
}
