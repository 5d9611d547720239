package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec

	// Appointment projection
	ProjectionDuration    prometheus.Histogram
	ProjectedAppointments *prometheus.HistogramVec
	DanglingPatientRefs   prometheus.Counter
	MalformedAppointments prometheus.Counter

	// Outbox
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxRetries           *prometheus.CounterVec

	// Agenda digest
	AgendaDigestsSent prometheus.Counter

	// Storage
	DatabaseOperations *prometheus.CounterVec
	CacheRequests      *prometheus.CounterVec
}

// New creates all application metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		ProjectionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "appointment_projection_duration_seconds",
			Help:      "Time spent joining, filtering and sorting appointments",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		ProjectedAppointments: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "appointment_projection_size",
			Help:      "Number of appointments returned by a projection",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}, []string{"mode"}),
		DanglingPatientRefs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_dangling_patient_refs_total",
			Help:      "Appointments whose patient reference did not resolve",
		}),
		MalformedAppointments: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_malformed_dates_total",
			Help:      "Records skipped because the appointment date did not parse",
		}),

		OutboxEventsProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),

		AgendaDigestsSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agenda_digests_sent_total",
			Help:      "Daily agenda e-mails sent",
		}),

		DatabaseOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Patient cache lookups by result",
		}, []string{"result"}),
	}
}

// NewNop returns metrics registered on a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry(), "")
}
