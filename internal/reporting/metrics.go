package reporting

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for report assembly.
type Metrics struct {
	fetchFailures *prometheus.CounterVec
	documents     *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the reporting metrics against registerer. When the
// registerer is nil the default Prometheus registerer is used once.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tekstil_report_detail_fetch_failures_total",
			Help: "Jumlah kegagalan pengambilan detail dokumen per jenis.",
		}, []string{"kind"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tekstil_report_documents_total",
			Help: "Jumlah dokumen yang berhasil dirakit ke laporan.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tekstil_report_assemble_duration_seconds",
			Help:    "Durasi perakitan laporan.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	registerer.MustRegister(m.fetchFailures, m.documents, m.duration)
	return m
}

func (m *Metrics) failure(kind string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) assembled(kind string, count int, since time.Time) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(kind).Add(float64(count))
	m.duration.WithLabelValues(kind).Observe(time.Since(since).Seconds())
}
