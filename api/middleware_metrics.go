package api

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// status is left out of the histogram to keep its cardinality down
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests, httpLatency)
}

// MetricsMiddleware tags each request with an id and records count and latency per route
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := routePath(r)
		if path == "/metrics" || path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		startTime := time.Now()
		requestID := uuid.New().String()
		w.Header().Set("X-Request-ID", requestID)

		wrappedWriter := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(wrappedWriter, r)

		totalDuration := time.Since(startTime)
		httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrappedWriter.statusCode)).Inc()
		// upgraded sockets live for the whole session, their duration is not a latency
		if !wrappedWriter.hijacked {
			httpLatency.WithLabelValues(r.Method, path).Observe(totalDuration.Seconds())
		}

		if totalDuration > 1*time.Second && !wrappedWriter.hijacked {
			zap.S().Warnw("Slow request detected",
				"requestId", requestID,
				"method", r.Method,
				"path", path,
				"duration", totalDuration,
				"status", wrappedWriter.statusCode,
			)
		}
	})
}

// routePath returns the mux route template so ids do not explode the label set
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// responseWriter wraps http.ResponseWriter to capture status code
// It implements http.Hijacker to support WebSocket upgrades
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	hijacked   bool
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker to support WebSocket upgrades
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		rw.hijacked = true
		rw.statusCode = http.StatusSwitchingProtocols
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}
