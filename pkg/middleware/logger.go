package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"travel-booking/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// statusRecorder keeps what the handler wrote for the access line
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Logger writes one access line per request and feeds the HTTP metrics.
// The route pattern and path parameters are only known once chi has routed
// the request, so they are read after the handler returns.
func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			elapsed := time.Since(start)
			route := routePattern(r)

			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

			fields := append([]zap.Field{
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.status),
				zap.Int("bytes", rw.bytes),
				zap.Duration("duration", elapsed),
				zap.String("ip", r.RemoteAddr),
			}, resourceFields(r, route)...)
			if r.URL.RawQuery != "" {
				fields = append(fields, zap.String("query", r.URL.RawQuery))
			}

			switch {
			case rw.status >= http.StatusInternalServerError:
				logger.Error("HTTP request", fields...)
			case rw.status >= http.StatusBadRequest:
				logger.Warn("HTTP request", fields...)
			default:
				logger.Info("HTTP request", fields...)
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// resourceFields names the {id} path parameter after the resource it addresses
func resourceFields(r *http.Request, route string) []zap.Field {
	id := chi.URLParam(r, "id")
	if id == "" {
		return nil
	}

	switch {
	case strings.Contains(route, "/bookings/"):
		return []zap.Field{zap.String("booking_id", id)}
	case strings.Contains(route, "/users/"):
		return []zap.Field{zap.String("user_id", id)}
	case strings.Contains(route, "/groups/"):
		return []zap.Field{zap.String("group_id", id)}
	}
	return []zap.Field{zap.String("id", id)}
}
