// Package telemetry provides Prometheus metrics, correlation-id aware logging
// helpers, and OpenTelemetry tracing setup.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	UploadsStarted      prometheus.Counter
	UploadsSucceeded    prometheus.Counter
	UploadsFailed       prometheus.Counter
	NameClaimRejections prometheus.Counter
	TranscodesSucceeded prometheus.Counter
	TranscodesFailed    prometheus.Counter
	DeletesSucceeded    prometheus.Counter

	// Histograms (seconds)
	UploadDuration    prometheus.Observer
	TranscodeDuration prometheus.Observer

	// Gauges
	ClipCountGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		UploadsStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "audioblog_uploads_started_total", Help: "Number of clip uploads started"})
		UploadsSucceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "audioblog_uploads_succeeded_total", Help: "Number of clip uploads persisted"})
		UploadsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "audioblog_uploads_failed_total", Help: "Number of clip uploads rejected or failed"})
		NameClaimRejections = promauto.NewCounter(prometheus.CounterOpts{Name: "audioblog_name_claim_rejections_total", Help: "Number of uploads rejected because the author name is owned by another identity"})
		TranscodesSucceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "audioblog_transcodes_succeeded_total", Help: "Number of MP3 derivatives produced"})
		TranscodesFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "audioblog_transcodes_failed_total", Help: "Number of failed MP3 conversions (non-fatal to the upload)"})
		DeletesSucceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "audioblog_deletes_total", Help: "Number of clip deletions"})
		UploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "audioblog_upload_duration_seconds", Help: "Clip persist duration seconds", Buckets: prometheus.DefBuckets})
		TranscodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "audioblog_transcode_duration_seconds", Help: "MP3 transcode duration seconds", Buckets: prometheus.DefBuckets})
		ClipCountGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "audioblog_clip_count", Help: "Number of clips currently in the store"})
	})
}

// SetClipCount records the current store size.
func SetClipCount(n int) {
	if ClipCountGauge != nil {
		ClipCountGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records it in obs if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with a corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
