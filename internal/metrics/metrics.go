package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingOperations counts reservation manager calls by operation and outcome
	BookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "operations_total",
			Help:      "The total number of booking operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// HoldsExpired counts holds cancelled by their deadline, labelled by what noticed it
	HoldsExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "holds_expired_total",
			Help:      "The total number of holds cancelled on expiry",
		},
		[]string{"trigger"},
	)

	// ArmedTimers is the number of hold timers currently pending
	ArmedTimers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "booking",
			Name:      "armed_timers",
			Help:      "The number of hold expiry timers currently armed",
		},
	)

	SweepRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sweeper",
			Name:      "runs_total",
			Help:      "The total number of expiry sweep passes",
		},
	)

	SweepFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sweeper",
			Name:      "failures_total",
			Help:      "The total number of bookings a sweep pass failed to expire",
		},
	)

	// Notifications counts outgoing booking events by event name and outcome
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notify",
			Name:      "events_total",
			Help:      "The total number of booking events by delivery outcome",
		},
		[]string{"event", "outcome"},
	)

	// HTTPRequests counts served requests by chi route pattern
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "http",
			Name:      "requests_total",
			Help:      "The total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

const (
	TriggerTimer   = "timer"
	TriggerSweeper = "sweeper"
	TriggerRestore = "restore"
)
