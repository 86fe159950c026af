package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registrationsConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registrations_confirmed_total",
			Help: "Total workshop registrations confirmed",
		},
	)

	refundsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refunds_processed_total",
			Help: "Total refunds processed by resulting status",
		},
		[]string{"status"},
	)

	workshopsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "workshops_cancelled_total",
			Help: "Total workshops cancelled",
		},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration by method and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
)

// RegistrationConfirmed records one confirmed registration.
func RegistrationConfirmed() {
	registrationsConfirmed.Inc()
}

// RefundProcessed records one refund attempt with its resulting status.
func RefundProcessed(status string) {
	refundsProcessed.WithLabelValues(status).Inc()
}

// WorkshopCancelled records one cancelled workshop.
func WorkshopCancelled() {
	workshopsCancelled.Inc()
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method string, status int, duration time.Duration) {
	httpRequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
