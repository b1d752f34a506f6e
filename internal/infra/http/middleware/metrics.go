package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	leadsCaptured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_captured_total",
			Help: "Total number of leads written to the CRM",
		},
		[]string{"source"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of requests denied by the rate limiter",
		},
		[]string{"route"},
	)

	remindersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_processed_total",
			Help: "Total number of deals processed by the reminder dispatcher",
		},
		[]string{"type", "outcome"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern limita a cardinalidade do label para rotas desconhecidas.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func RecordLeadCaptured(source string) {
	leadsCaptured.WithLabelValues(source).Inc()
}

func RecordRateLimited(route string) {
	rateLimited.WithLabelValues(route).Inc()
}

func RecordReminderSummary(reminderType string, sent, failed, skipped int) {
	remindersProcessed.WithLabelValues(reminderType, "sent").Add(float64(sent))
	remindersProcessed.WithLabelValues(reminderType, "failed").Add(float64(failed))
	remindersProcessed.WithLabelValues(reminderType, "skipped").Add(float64(skipped))
}
