package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder keeps the metrics of a single seeding process on a private
// registry, so a one-shot run can dump them for the node exporter's
// textfile collector.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram
	lastRun     *prometheus.GaugeVec
}

func New() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adminseed_runs_total",
				Help: "Total number of administrator seeding runs",
			},
			[]string{"outcome", "reason"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "adminseed_run_duration_seconds",
				Help:    "Duration of administrator seeding runs in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		lastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "adminseed_last_run_timestamp_seconds",
				Help: "Unix time of the last seeding run",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveRun records one run. An empty reason is recorded as "none".
func (r *Recorder) ObserveRun(outcome, reason string, started time.Time, finished time.Time) {
	if reason == "" {
		reason = "none"
	}
	r.runsTotal.WithLabelValues(outcome, reason).Inc()
	r.runDuration.Observe(finished.Sub(started).Seconds())
	r.lastRun.WithLabelValues(outcome).Set(float64(finished.Unix()))
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile atomically writes all metrics in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
