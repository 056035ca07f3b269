package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// InvoiceMetrics counts stored invoices by their derived status.
type InvoiceMetrics struct {
	created *prometheus.CounterVec
}

func NewInvoiceMetrics(reg prometheus.Registerer) *InvoiceMetrics {
	if reg == nil {
		return &InvoiceMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoices_created_total",
		Help: "Invoices created, by payment status.",
	}, []string{"status"})
	reg.MustRegister(created)
	return &InvoiceMetrics{created: created}
}

func (m *InvoiceMetrics) IncCreated(status string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(status)).Inc()
}

// UploadMetrics tracks stored upload sizes and rejections.
type UploadMetrics struct {
	size     *prometheus.HistogramVec
	rejected *prometheus.CounterVec
}

func NewUploadMetrics(reg prometheus.Registerer) *UploadMetrics {
	if reg == nil {
		return &UploadMetrics{}
	}
	size := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upload_size_bytes",
		Help:    "Size of stored uploads after processing.",
		Buckets: prometheus.ExponentialBuckets(16<<10, 2, 10),
	}, []string{"backend"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_rejected_total",
		Help: "Uploads rejected before storage.",
	}, []string{"reason"})
	reg.MustRegister(size, rejected)
	return &UploadMetrics{size: size, rejected: rejected}
}

func (m *UploadMetrics) ObserveSize(backend string, bytes int64) {
	if m == nil || m.size == nil {
		return
	}
	m.size.WithLabelValues(normalizeLabel(backend)).Observe(float64(bytes))
}

func (m *UploadMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}
