package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IngestMetrics tracks the upload pipeline.
type IngestMetrics struct {
	files      *prometheus.CounterVec
	bytes      *prometheus.CounterVec
	rejections *prometheus.CounterVec
	batch      *prometheus.HistogramVec
}

func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	if reg == nil {
		return &IngestMetrics{}
	}
	factory := promauto.With(reg)
	return &IngestMetrics{
		files: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "photoalbum_ingest_files_total",
			Help: "Media files stored, by kind (image or video).",
		}, []string{"kind"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "photoalbum_ingest_bytes_total",
			Help: "Bytes of media stored, by kind.",
		}, []string{"kind"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "photoalbum_ingest_rejections_total",
			Help: "Upload batches rejected, by reason.",
		}, []string{"reason"}),
		batch: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "photoalbum_ingest_batch_duration_seconds",
			Help:    "Time to ingest one upload batch, by outcome.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
	}
}

// ObserveFile counts one stored file of the given MIME type.
func (m *IngestMetrics) ObserveFile(mimeType string, size int64) {
	if m == nil || m.files == nil {
		return
	}
	kind := KindOf(mimeType)
	m.files.WithLabelValues(kind).Inc()
	m.bytes.WithLabelValues(kind).Add(float64(size))
}

// IncRejection counts a batch refused for reason.
func (m *IngestMetrics) IncRejection(reason string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveBatch records how long a batch took and whether it succeeded.
func (m *IngestMetrics) ObserveBatch(outcome string, duration time.Duration) {
	if m == nil || m.batch == nil {
		return
	}
	m.batch.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// KindOf buckets a MIME type into image, video or other.
func KindOf(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	case strings.HasPrefix(mimeType, "video/"):
		return "video"
	default:
		return "other"
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return strings.ToLower(value)
}
