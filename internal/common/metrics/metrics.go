package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnosis_requests_total",
			Help: "Total number of API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	RequestFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnosis_request_failures_total",
			Help: "Total number of failed API requests by endpoint and phase",
		},
		[]string{"endpoint", "phase"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "diagnosis_request_duration_seconds",
			Help: "Duration of API request handling in seconds",
		},
		[]string{"endpoint"},
	)

	UpstreamCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnosis_upstream_calls_total",
			Help: "Total number of calls to the scoring engine by outcome",
		},
		[]string{"outcome"},
	)

	LeadRowsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diagnosis_lead_rows_inserted_total",
			Help: "Total number of diagnosis rows persisted",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnosis_notifications_sent_total",
			Help: "Total number of lead notifications dispatched by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)
