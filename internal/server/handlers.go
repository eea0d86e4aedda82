package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/leslieo2/tioga-health/internal/constants"
	"github.com/leslieo2/tioga-health/internal/healthcheck"
	"github.com/leslieo2/tioga-health/internal/observability"
	"github.com/leslieo2/tioga-health/internal/store"
)

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+constants.PathPage+"{$}", s.pageHandler)
	mux.HandleFunc("GET "+constants.PathHealthPage, s.pageHandler)
	mux.HandleFunc("GET "+constants.PathLiveness, s.livenessHandler)
	mux.HandleFunc("GET "+constants.PathReady, s.readinessHandler)
	mux.HandleFunc("GET "+constants.PathFavicon, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if s.config.Observability.Metrics.Enabled {
		mux.Handle("GET "+s.config.Observability.Metrics.Path, s.metrics.Handler())
	}

	return mux
}

// pageHandler fetches the latest record once and renders its verdict
func (s *Server) pageHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.StartSpan(r.Context(), "render_health_page",
		attribute.String("http.method", r.Method),
		attribute.String("http.path", r.URL.Path),
	)
	defer span.End()

	record, err := s.fetchHealthCheck(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		s.metrics.RecordFetchError(s.config.Store.Driver)
		s.logger.Error("Failed to fetch health check",
			zap.String("driver", s.config.Store.Driver),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		s.sendHTML(w, http.StatusBadGateway, unavailablePage())
		return
	}

	now := s.now()
	healthy := healthcheck.IsHealthy(record, now)
	verdict := healthcheck.Verdict(record, now)
	age := record.Age(now)

	span.SetAttributes(
		attribute.String("healthcheck.verdict", verdict),
		attribute.String("healthcheck.status", record.Status),
		attribute.Int64("healthcheck.ts", record.TimestampSeconds),
	)
	s.metrics.RecordVerdict(healthy, age)

	s.sendHTML(w, http.StatusOK, verdictPage(verdict))

	s.logger.Debug("Rendered health check",
		zap.String("verdict", verdict),
		zap.String("status", record.Status),
		zap.Duration("age", age),
	)
}

func (s *Server) fetchHealthCheck(ctx context.Context) (healthcheck.Record, error) {
	ctx, span := s.tracer.StartSpan(ctx, "fetch_health_check",
		attribute.String("store.driver", s.config.Store.Driver),
	)
	defer span.End()

	record, err := s.store.Latest(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return record, err
}

// livenessHandler reports on the process itself, never on the recorded health check
func (s *Server) livenessHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.StartSpan(r.Context(), "liveness_check")
	defer span.End()

	health := observability.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   constants.Version,
		Uptime:    time.Since(s.startTime).String(),
	}

	s.sendJSON(w, http.StatusOK, health)
}

// readinessHandler is ready while the store answers, an empty store included
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.StartSpan(r.Context(), "readiness_check")
	defer span.End()

	_, err := s.store.Latest(ctx)
	ready := err == nil || errors.Is(err, store.ErrNoRecord)

	if !ready {
		s.logger.Warn("Store not ready", zap.Error(err))
		s.sendJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
