// Package metrics exposes Prometheus counters for import runs.
package metrics

import (
	"github.com/limit-importer/backend/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the importer's collectors. A nil *Recorder records nothing.
type Recorder struct {
	imports    *prometheus.CounterVec
	outcomes   *prometheus.CounterVec
	units      *prometheus.CounterVec
	reconciles *prometheus.CounterVec
	duration   prometheus.Histogram
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		imports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "limit_importer_imports_total",
			Help: "Import runs by final status",
		}, []string{"status"}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "limit_importer_pairing_outcomes_total",
			Help: "Pairing outcomes by kind",
		}, []string{"kind"}),
		units: f.NewCounterVec(prometheus.CounterOpts{
			Name: "limit_importer_channel_writes_total",
			Help: "Channel and scalar writes by status",
		}, []string{"status"}),
		reconciles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "limit_importer_reconciles_total",
			Help: "Manual reconciliation attempts by result",
		}, []string{"result"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "limit_importer_run_duration_seconds",
			Help:    "Duration of index, match and apply for one import",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
}

// ObserveImport counts a finished import.
func (r *Recorder) ObserveImport(status models.ImportStatus, seconds float64) {
	if r == nil {
		return
	}
	r.imports.WithLabelValues(string(status)).Inc()
	if seconds > 0 {
		r.duration.Observe(seconds)
	}
}

// ObserveOutcome counts every pairing outcome and unit write of a run.
func (r *Recorder) ObserveOutcome(out *models.Outcome) {
	if r == nil || out == nil {
		return
	}
	r.outcomes.WithLabelValues(string(models.OutcomePaired)).Add(float64(len(out.Paired)))
	r.outcomes.WithLabelValues(string(models.OutcomeUnpairedLimit)).Add(float64(len(out.UnpairedLimits)))
	r.outcomes.WithLabelValues(string(models.OutcomeUnpairedResult)).Add(float64(len(out.UnpairedResults)))

	for _, group := range [][]models.PairingOutcome{out.Paired, out.UnpairedLimits} {
		for _, p := range group {
			r.ObserveReport(p.Report)
		}
	}
}

// ObserveReport counts the unit writes of one apply.
func (r *Recorder) ObserveReport(report *models.ApplyReport) {
	if r == nil || report == nil {
		return
	}
	for _, u := range report.Units {
		r.units.WithLabelValues(string(u.Status)).Inc()
	}
}

// ObserveReconcile counts a manual pairing attempt.
func (r *Recorder) ObserveReconcile(ok bool) {
	if r == nil {
		return
	}
	result := "failed"
	if ok {
		result = "paired"
	}
	r.reconciles.WithLabelValues(result).Inc()
}
