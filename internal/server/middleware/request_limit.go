package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/leslieo2/tioga-health/internal/constants"
)

// RequestSizeLimitMiddleware rejects declared oversize bodies and caps the rest
func RequestSizeLimitMiddleware(maxRequestSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxRequestSize <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxRequestSize {
				w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   constants.ErrorCodeRequestTooLarge,
					"message": fmt.Sprintf("Request body too large, max size: %d bytes", maxRequestSize),
				})
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
			}
			next.ServeHTTP(w, r)
		})
	}
}
