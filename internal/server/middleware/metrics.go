package middleware

import (
	"net/http"
	"time"
)

// RequestRecorder receives one observation per served request
type RequestRecorder interface {
	RecordRequest(method, endpoint string, statusCode int, duration time.Duration, responseSize int64)
}

// MetricsMiddleware records every response that passes through it, including
// those written by inner middleware such as the rate limiter. endpoint maps a
// request to its label and must return a bounded set of values.
func MetricsMiddleware(recorder RequestRecorder, endpoint func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			recorder.RecordRequest(r.Method, endpoint(r), wrapped.statusCode, time.Since(start), wrapped.written)
		})
	}
}
