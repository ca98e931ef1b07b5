// Package metrics counts API pages, poll attempts and reconcile outcomes for a
// single CLI run. Counters live on a private registry and are written out in
// the Prometheus text format for node_exporter's textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Recorder struct {
	registry *prometheus.Registry

	reconcileTotal *prometheus.CounterVec
	pagesTotal     *prometheus.CounterVec
	pollsTotal     *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		reconcileTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "better_aws",
				Subsystem: "stack",
				Name:      "reconcile_total",
				Help:      "Total number of stack reconciliations by outcome",
			},
			[]string{"outcome"},
		),
		pagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "better_aws",
				Subsystem: "api",
				Name:      "pages_fetched_total",
				Help:      "Total number of list pages fetched by operation",
			},
			[]string{"operation"},
		),
		pollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "better_aws",
				Subsystem: "api",
				Name:      "poll_attempts_total",
				Help:      "Total number of polling attempts by operation",
			},
			[]string{"operation"},
		),
	}
	r.registry.MustRegister(r.reconcileTotal, r.pagesTotal, r.pollsTotal)
	return r
}

func (r *Recorder) PageFetched(operation string) {
	r.pagesTotal.WithLabelValues(operation).Inc()
}

func (r *Recorder) PollAttempt(operation string) {
	r.pollsTotal.WithLabelValues(operation).Inc()
}

func (r *Recorder) Reconciled(outcome string) {
	r.reconcileTotal.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteToTextfile atomically writes the current counter values to path.
func (r *Recorder) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
