package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_operations_total",
			Help: "Total booking lifecycle operations by outcome",
		},
		[]string{"operation", "status"},
	)

	sweepCancellations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_cancellations_total",
			Help: "Total bookings cancelled by the expiry sweeper",
		},
	)

	sweepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_errors_total",
			Help: "Total per-booking failures during expiry sweeps",
		},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Duration of expiry sweep cycles",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	remindersSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Total payment reminders delivered to the notifier",
		},
	)

	pendingExpired = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_expired_bookings",
			Help: "Expired pending bookings found by the last sweep",
		},
	)
)

func TrackOperation(operation, status string) {
	bookingOperations.WithLabelValues(operation, status).Inc()
}

func TrackSweep(found, cancelled, failed int, duration time.Duration) {
	pendingExpired.Set(float64(found))
	sweepCancellations.Add(float64(cancelled))
	sweepErrors.Add(float64(failed))
	sweepDuration.Observe(duration.Seconds())
}

func TrackReminderSent() {
	remindersSent.Inc()
}
