package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/leslieo2/tioga-health/internal/security"
)

// ResponseWriter wraps http.ResponseWriter to capture status code and body size
type ResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *ResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// StatusCode returns the status written so far, 200 if none was set
func (rw *ResponseWriter) StatusCode() int {
	return rw.statusCode
}

// LoggingMiddleware creates a middleware that logs HTTP requests. Server
// errors log at error level, everything else at info. The client address
// comes from forwarding headers only when the peer is one of proxies.
func LoggingMiddleware(logger *zap.Logger, proxies security.TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("client_ip", proxies.ClientIP(r)),
				zap.Int("status_code", wrapped.statusCode),
				zap.Int64("response_size", wrapped.written),
				zap.Duration("duration", time.Since(start)),
				zap.String("user_agent", r.UserAgent()),
			}
			if wrapped.statusCode >= http.StatusInternalServerError {
				logger.Error("HTTP request", fields...)
				return
			}
			logger.Info("HTTP request", fields...)
		})
	}
}
