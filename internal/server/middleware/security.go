package middleware

import (
	"fmt"
	"net/http"
)

// SecurityHeadersConfig defines configuration for security headers
type SecurityHeadersConfig struct {
	Enabled               bool
	HSTSMaxAge            int
	ContentSecurityPolicy string
	// TLS enables Strict-Transport-Security, browsers ignore it over plain HTTP
	TLS bool
}

// SecurityHeadersMiddleware creates a security headers middleware
func SecurityHeadersMiddleware(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !config.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")

			if config.TLS && config.HSTSMaxAge > 0 {
				h.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", config.HSTSMaxAge))
			}
			if config.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", config.ContentSecurityPolicy)
			}

			next.ServeHTTP(w, r)
		})
	}
}
