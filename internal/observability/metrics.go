package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crwn_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// RealtimeEventsPublished counts change events published per table and transport.
	RealtimeEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crwn_realtime_events_published_total",
		Help: "Total realtime change events published",
	}, []string{"table", "driver"})

	// RealtimeEventsDelivered counts change events handed to subscribers.
	RealtimeEventsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crwn_realtime_events_delivered_total",
		Help: "Total realtime change events delivered to subscribers",
	}, []string{"table"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crwn_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crwn_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// StorageUploads counts object uploads by bucket and outcome.
	StorageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crwn_storage_uploads_total",
		Help: "Total object uploads by bucket and outcome",
	}, []string{"bucket", "outcome"})

	// OnboardingTransitions counts onboarding step changes by destination step.
	OnboardingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crwn_onboarding_transitions_total",
		Help: "Total onboarding step transitions by destination step",
	}, []string{"step"})

	// MailDeliveries counts outbound mail by kind and outcome.
	MailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crwn_mail_deliveries_total",
		Help: "Total outbound mail by kind and outcome",
	}, []string{"kind", "outcome"})

	// ScheduledJobRuns counts cron job runs by job and outcome.
	ScheduledJobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crwn_scheduled_job_runs_total",
		Help: "Total scheduled job runs by job and outcome",
	}, []string{"job", "outcome"})
)

// Outcome returns the metric label for an error value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
