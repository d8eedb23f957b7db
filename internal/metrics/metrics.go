package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the application: HTTP traffic,
// bot activity, notification volume and database timings.
type Metrics struct {
	HTTPRequestDuration  *prometheus.HistogramVec // Histogram for HTTP request durations
	MessagesSent         *prometheus.CounterVec   // Counter for outgoing bot messages
	CallbacksReceived    *prometheus.CounterVec   // Counter for inbound bot commands/callbacks
	NewTechnicians       prometheus.Counter       // Counter for technician self-registrations
	NotificationsCreated prometheus.Counter       // Counter for persisted notifications
	DBQueryDuration      *prometheus.HistogramVec // Histogram for database query durations
}

// NewMetrics creates a new Metrics instance registered on the provided
// Prometheus Registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		HTTPRequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP API requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		MessagesSent: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_messages_sent_total",
			Help: "Total number of messages sent through the bot gateway",
		}, []string{"type"}), // type: task, client_info, invoice, invoice_pdf, text, reply, error
		CallbacksReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_callbacks_received_total",
			Help: "Total number of inbound commands and button callbacks",
		}, []string{"action"}), // action: start, accept_task, reject_task, complete_task
		NewTechnicians: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "telegram_new_technicians_total",
			Help: "Total number of technicians registered via /start",
		}),
		NotificationsCreated: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of persisted notifications",
		}),
		DBQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}),
	}
}
