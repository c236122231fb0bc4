package telemetry

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civicdesk_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "civicdesk_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	notificationsFanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civicdesk_notifications_fanout_total",
		Help: "Notification rows produced by the fan-out engine, by event.",
	}, []string{"event"})

	notificationFanoutErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civicdesk_notifications_fanout_errors_total",
		Help: "Fan-out events that failed to persist, by event.",
	}, []string{"event"})

	realtimeDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "civicdesk_realtime_delivered_total",
		Help: "Frames handed to connected websocket clients.",
	})

	realtimeDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civicdesk_realtime_dropped_total",
		Help: "Frames dropped before delivery, by reason.",
	}, []string{"reason"})

	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "civicdesk_realtime_connections",
		Help: "Currently registered websocket connections.",
	})

	emailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civicdesk_emails_total",
		Help: "Outbound emails by result.",
	}, []string{"result"})
)

// CountFanout records rows produced for one fan-out event.
func CountFanout(event string, rows int) {
	notificationsFanned.WithLabelValues(event).Add(float64(rows))
}

// CountFanoutError records a fan-out event whose persist failed.
func CountFanoutError(event string) {
	notificationFanoutErrors.WithLabelValues(event).Inc()
}

// CountDelivered records one frame handed to a connected client.
func CountDelivered() { realtimeDelivered.Inc() }

// CountDropped records one dropped frame with a reason label
// (queue_full, oversize, slow_client).
func CountDropped(reason string) { realtimeDropped.WithLabelValues(reason).Inc() }

// ConnectionOpened and ConnectionClosed track the live connection gauge.
func ConnectionOpened() { connectionsActive.Inc() }
func ConnectionClosed() { connectionsActive.Dec() }

// CountEmail records an outbound email result ("sent" or "failed").
func CountEmail(result string) { emailsSent.WithLabelValues(result).Inc() }

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per mux route template.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack passes through so websocket upgrades work behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}
