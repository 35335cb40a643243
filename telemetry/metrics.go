// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
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
	ChannelsCreated    prometheus.Counter
	ChannelsDeleted    prometheus.Counter
	CreateFailures     prometheus.Counter
	DeleteFailures     prometheus.Counter
	DeletionsScheduled prometheus.Counter
	DeletionsCancelled prometheus.Counter
	MovesFailed        prometheus.Counter
	EventsHandled      prometheus.Counter
	PermissionDenials  prometheus.Counter
	ReconcileCycles    prometheus.Counter

	// Histograms (seconds)
	ProvisionDuration prometheus.Observer

	// Gauges
	TrackedChannelsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ChannelsCreated = promauto.NewCounter(prometheus.CounterOpts{Name: "voice_channels_created_total", Help: "Number of temporary voice channels created"})
		ChannelsDeleted = promauto.NewCounter(prometheus.CounterOpts{Name: "voice_channels_deleted_total", Help: "Number of temporary voice channels deleted"})
		CreateFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "voice_channel_create_failures_total", Help: "Number of failed channel create calls"})
		DeleteFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "voice_channel_delete_failures_total", Help: "Number of failed channel delete calls"})
		DeletionsScheduled = promauto.NewCounter(prometheus.CounterOpts{Name: "voice_deletions_scheduled_total", Help: "Number of deletion countdowns started"})
		DeletionsCancelled = promauto.NewCounter(prometheus.CounterOpts{Name: "voice_deletions_cancelled_total", Help: "Number of deletion countdowns cancelled by a join"})
		MovesFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "voice_member_move_failures_total", Help: "Number of failed member relocation calls"})
		EventsHandled = promauto.NewCounter(prometheus.CounterOpts{Name: "voice_presence_events_total", Help: "Number of voice presence notifications dispatched"})
		PermissionDenials = promauto.NewCounter(prometheus.CounterOpts{Name: "voice_permission_denials_total", Help: "Number of operations aborted by the permission gate"})
		ReconcileCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "voice_reconcile_cycles_total", Help: "Number of reconcile sweep cycles"})
		ProvisionDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "voice_provision_duration_seconds", Help: "Channel provisioning duration seconds", Buckets: prometheus.DefBuckets})
		TrackedChannelsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "voice_tracked_channels", Help: "Current number of tracked temporary channels"})
	})
}

// SetTrackedChannels records the current registry size.
func SetTrackedChannels(n int) {
	if TrackedChannelsGauge != nil {
		TrackedChannelsGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
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

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
