// Package metrics exposes tracker counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the tracker's counters on its own registry
type Recorder struct {
	registry          *prometheus.Registry
	balancerRuns      *prometheus.CounterVec
	columnInferences  *prometheus.CounterVec
	crossCycleQueries *prometheus.CounterVec
	approvalToggles   *prometheus.CounterVec
	codeExtractions   *prometheus.CounterVec
}

// NewRecorder registers every counter on a fresh registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		balancerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "granttrack",
			Name:      "balancer_runs_total",
			Help:      "Assignment balancer runs by outcome.",
		}, []string{"outcome"}),
		columnInferences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "granttrack",
			Name:      "column_inferences_total",
			Help:      "Match column inferences by confidence.",
		}, []string{"confidence"}),
		crossCycleQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "granttrack",
			Name:      "cross_cycle_searches_total",
			Help:      "Cross-cycle searches by result status.",
		}, []string{"status"}),
		approvalToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "granttrack",
			Name:      "approval_toggles_total",
			Help:      "Approval toggles by resulting state.",
		}, []string{"state"}),
		codeExtractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "granttrack",
			Name:      "code_extractions_total",
			Help:      "Speedtype extractions by source step.",
		}, []string{"source"}),
	}
	r.registry.MustRegister(
		r.balancerRuns,
		r.columnInferences,
		r.crossCycleQueries,
		r.approvalToggles,
		r.codeExtractions,
		collectors.NewGoCollector(),
	)
	return r
}

// BalancerRun counts one run; outcome is "ok", "invalid" or "error"
func (r *Recorder) BalancerRun(outcome string) {
	r.balancerRuns.WithLabelValues(outcome).Inc()
}

// ColumnInferred counts one inference at the given confidence
func (r *Recorder) ColumnInferred(confidence string) {
	r.columnInferences.WithLabelValues(confidence).Inc()
}

// CrossCycleSearch counts one search by its result status
func (r *Recorder) CrossCycleSearch(status string) {
	r.crossCycleQueries.WithLabelValues(status).Inc()
}

// ApprovalToggled counts one toggle
func (r *Recorder) ApprovalToggled(approved bool) {
	state := "unapproved"
	if approved {
		state = "approved"
	}
	r.approvalToggles.WithLabelValues(state).Inc()
}

// CodeExtracted counts one extraction; an empty source counts as "none"
func (r *Recorder) CodeExtracted(source string) {
	if source == "" {
		source = "none"
	}
	r.codeExtractions.WithLabelValues(source).Inc()
}

// Registry exposes the underlying registry for tests and custom exporters
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
