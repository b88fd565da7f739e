package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "seatbill"

// Metrics are the billing pipeline instruments.
type Metrics struct {
	Runs           *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	Mismatches     *prometheus.CounterVec
	BilledTotal    *prometheus.CounterVec
	PricingWarning *prometheus.CounterVec
	BatchItems     *prometheus.CounterVec
}

// NewRegistry returns the registry for pipeline instruments. Runtime and
// database metrics stay on the default registry; /metrics serves both.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.Runs, m.RunDuration, m.Mismatches, m.BilledTotal, m.PricingWarning, m.BatchItems)
	return m
}

// NewNopMetrics returns unregistered instruments for tests and one-off commands.
func NewNopMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_runs_total",
			Help:      "Reconciliation runs by mode and outcome.",
		}, []string{"mode", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconciliation_run_duration_seconds",
			Help:      "Wall time of a reconcile-and-price run, including source fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		Mismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_mismatches_total",
			Help:      "Identity mismatches detected, by the dataset holding the unmatched record.",
		}, []string{"source"}),
		BilledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billed_amount_total",
			Help:      "Sum of grand totals produced, by component.",
		}, []string{"component"}),
		PricingWarning: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_warnings_total",
			Help:      "Pricing notes at warning level, by code.",
		}, []string{"code"}),
		BatchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_items_total",
			Help:      "Batch summary items by outcome.",
		}, []string{"outcome"}),
	}
}
