// Package metrics exposes the risk engine's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Simulation outcomes recorded on risk_simulations_total
const (
	OutcomeOK        = "ok"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// Registry holds every risk metric on a private prometheus registry.
// A nil *Registry is valid and records nothing.
type Registry struct {
	registry *prometheus.Registry

	ReportDuration     prometheus.Histogram
	ReportScore        prometheus.Gauge
	ReportsTotal       prometheus.Counter
	SimulationDuration *prometheus.HistogramVec
	SimulationsTotal   *prometheus.CounterVec
	Positions          prometheus.Gauge
	RegimeChanges      *prometheus.CounterVec
}

// NewRegistry creates a registry with all risk metrics registered
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		ReportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "risk_report_duration_seconds",
				Help:    "Duration of full risk report generation in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
		),

		ReportScore: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "risk_report_score",
				Help: "Overall risk score (0-100) of the latest report",
			},
		),

		ReportsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "risk_reports_total",
				Help: "Total number of risk reports generated",
			},
		),

		SimulationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "risk_simulation_duration_seconds",
				Help:    "Duration of Monte Carlo simulations in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"kind"},
		),

		SimulationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_simulations_total",
				Help: "Total number of Monte Carlo simulations by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		Positions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "risk_positions",
				Help: "Number of positions currently held in the store",
			},
		),

		RegimeChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_regime_changes_total",
				Help: "Total number of market regime changes by target regime",
			},
			[]string{"regime"},
		),
	}

	r.registry.MustRegister(
		r.ReportDuration,
		r.ReportScore,
		r.ReportsTotal,
		r.SimulationDuration,
		r.SimulationsTotal,
		r.Positions,
		r.RegimeChanges,
	)

	return r
}

// Handler returns the HTTP handler serving this registry
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests and custom exporters
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveReport records a completed report
func (r *Registry) ObserveReport(duration time.Duration, score float64) {
	if r == nil {
		return
	}
	r.ReportDuration.Observe(duration.Seconds())
	r.ReportScore.Set(score)
	r.ReportsTotal.Inc()
}

// ObserveSimulation records a simulation run of the given kind ("simulate", "stress")
func (r *Registry) ObserveSimulation(kind, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.SimulationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	r.SimulationsTotal.WithLabelValues(kind, outcome).Inc()
}

// SetPositions records the current position count
func (r *Registry) SetPositions(n int) {
	if r == nil {
		return
	}
	r.Positions.Set(float64(n))
}

// RegimeChanged counts a transition into regime
func (r *Registry) RegimeChanged(regime string) {
	if r == nil {
		return
	}
	r.RegimeChanges.WithLabelValues(regime).Inc()
}
