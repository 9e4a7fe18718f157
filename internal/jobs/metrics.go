// Package jobmetrics instruments background jobs and export artifacts.
package jobmetrics

import (
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes recorded in tekstil_jobs_total.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	// StatusAbandoned marks a run that returned asynq.SkipRetry.
	StatusAbandoned = "abandoned"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	artifacts   *prometheus.CounterVec
	bytes       *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against registerer. A nil registerer
// selects the default Prometheus registerer, registered once per process.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker measures one job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
	now     func() time.Time
}

// Track starts timing a run of job.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now(), now: time.Now}
}

// End records the outcome of the run and returns err unchanged.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	m := t.metrics
	end := t.now()
	m.duration.WithLabelValues(t.job).Observe(end.Sub(t.start).Seconds())
	status := Outcome(err)
	m.runs.WithLabelValues(t.job, status).Inc()
	if status == StatusSuccess {
		m.lastSuccess.WithLabelValues(t.job).Set(float64(end.Unix()))
	} else {
		m.failures.WithLabelValues(t.job).Inc()
	}
	return err
}

// Outcome classifies a handler error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, asynq.SkipRetry):
		return StatusAbandoned
	default:
		return StatusFailure
	}
}

// AddArtifact records one finished export by format and outcome
// (done, empty, failed). size counts only when a file was stored.
func (m *Metrics) AddArtifact(format, outcome string, size int) {
	if m == nil || format == "" {
		return
	}
	m.artifacts.WithLabelValues(format, outcome).Inc()
	if size > 0 {
		m.bytes.WithLabelValues(format).Add(float64(size))
	}
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tekstil_jobs_total",
			Help: "Job runs by job name and status (success, failure, abandoned).",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tekstil_jobs_failures_total",
			Help: "Job runs that returned an error.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tekstil_job_duration_seconds",
			Help:    "Duration of job runs.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tekstil_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per job.",
		}, []string{"job"}),
		artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tekstil_export_artifacts_total",
			Help: "Finished report exports by format and outcome.",
		}, []string{"format", "outcome"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tekstil_export_artifact_bytes_total",
			Help: "Bytes of stored report export artifacts.",
		}, []string{"format"}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration, m.lastSuccess, m.artifacts, m.bytes)
	return m
}
