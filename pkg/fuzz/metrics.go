package fuzz

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts what the fuzzing loop produces. Exposed over /metrics when
// a listen address is configured; long fuzzing campaigns are watched from
// dashboards rather than terminals.
type Metrics struct {
	registry *prometheus.Registry

	Iterations prometheus.Counter
	Tests      *prometheus.CounterVec
	Results    *prometheus.CounterVec
	Reports    *prometheus.CounterVec
	Reductions *prometheus.CounterVec
}

// NewMetrics creates and registers the loop's counters on a private
// registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		Iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shaderfuzz_iterations_total",
			Help: "Completed fuzzing loop iterations.",
		}),
		Tests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shaderfuzz_tests_total",
			Help: "Sibling tests created, by optimizer preset.",
		}, []string{"preset"}),
		Results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shaderfuzz_results_total",
			Help: "Per-device execution results, by status.",
		}, []string{"status"}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shaderfuzz_reports_total",
			Help: "Crash reports filed, by bucket.",
		}, []string{"bucket"}),
		Reductions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shaderfuzz_reductions_total",
			Help: "Reduction pipelines finished, by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(m.Iterations, m.Tests, m.Results, m.Reports, m.Reductions)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
