// Package metrics wires the scheduler's observable state into Prometheus
// collectors: queue depth, per-submission processing duration, and a count
// of every adapter RunTest outcome, labeled by outcome.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the gauges/histograms/counters the scheduler updates as
// it runs. A nil *Collector is safe to call methods on: every method
// no-ops when the receiver is nil, so wiring metrics is optional.
type Collector struct {
	QueueDepth          prometheus.Gauge
	SubmissionDuration  prometheus.Histogram
	AdapterOutcomeTotal *prometheus.CounterVec
}

// NewCollector builds a Collector and registers its collectors against reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tourney",
			Name:      "queue_depth",
			Help:      "Number of requests currently waiting in the submission/report queue.",
		}),
		SubmissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tourney",
			Name:      "submission_processing_seconds",
			Help:      "Time spent running one submission's full cross-product test pass.",
			Buckets:   prometheus.DefBuckets,
		}),
		AdapterOutcomeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourney",
			Name:      "adapter_outcome_total",
			Help:      "Count of adapter RunTest outcomes, labeled by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(c.QueueDepth, c.SubmissionDuration, c.AdapterOutcomeTotal)
	return c
}

// SetQueueDepth records the current queue depth.
func (c *Collector) SetQueueDepth(n int) {
	if c == nil {
		return
	}
	c.QueueDepth.Set(float64(n))
}

// ObserveSubmissionDuration records how long a submission's cross-product
// pass took, in seconds.
func (c *Collector) ObserveSubmissionDuration(seconds float64) {
	if c == nil {
		return
	}
	c.SubmissionDuration.Observe(seconds)
}

// IncAdapterOutcome increments the counter for one RunTest outcome label.
func (c *Collector) IncAdapterOutcome(outcome string) {
	if c == nil {
		return
	}
	c.AdapterOutcomeTotal.WithLabelValues(outcome).Inc()
}
