package server

import (
	"net/http"

	"github.com/leslieo2/tioga-health/internal/constants"
	"github.com/leslieo2/tioga-health/internal/server/middleware"
)

// applyMiddleware wraps handler so that requests pass through logging,
// request metrics, security headers, the size limit and the rate limiter,
// in that order
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	if s.rateLimiter != nil {
		handler = s.rateLimiter.Middleware(handler)
	}

	handler = middleware.RequestSizeLimitMiddleware(s.config.Server.MaxRequestSize)(handler)

	handler = middleware.SecurityHeadersMiddleware(middleware.SecurityHeadersConfig{
		Enabled:               s.config.Security.Headers.Enabled,
		ContentSecurityPolicy: s.config.Security.Headers.ContentSecurityPolicy,
		HSTSMaxAge:            s.config.Security.Headers.HSTSMaxAge,
		TLS:                   s.config.TLS.Enabled,
	})(handler)

	handler = middleware.MetricsMiddleware(s.metrics, s.endpointLabel)(handler)
	handler = middleware.LoggingMiddleware(s.logger.Logger, s.proxies)(handler)

	return handler
}

func (s *Server) rateLimitExemptPaths() []string {
	paths := []string{constants.PathLiveness, constants.PathReady, constants.PathFavicon}
	if s.config.Observability.Metrics.Enabled {
		paths = append(paths, s.config.Observability.Metrics.Path)
	}
	return paths
}

// endpointLabel keeps the request metrics' endpoint label bounded: unknown
// paths collapse into a single value
func (s *Server) endpointLabel(r *http.Request) string {
	switch r.URL.Path {
	case constants.PathPage, constants.PathHealthPage, constants.PathLiveness,
		constants.PathReady, constants.PathFavicon:
		return r.URL.Path
	}
	if s.config.Observability.Metrics.Enabled && r.URL.Path == s.config.Observability.Metrics.Path {
		return r.URL.Path
	}
	return constants.EndpointOther
}
