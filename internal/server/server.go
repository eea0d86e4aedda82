package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/leslieo2/tioga-health/internal/config"
	"github.com/leslieo2/tioga-health/internal/observability"
	"github.com/leslieo2/tioga-health/internal/security"
	"github.com/leslieo2/tioga-health/internal/store"
)

// ShutdownHook runs after the HTTP servers have stopped
type ShutdownHook func(ctx context.Context) error

type Server struct {
	config  *config.Config
	store   store.Store
	server  *http.Server
	handler http.Handler

	rateLimiter *security.RateLimiter
	proxies     security.TrustedProxies

	logger    *observability.Logger
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	startTime time.Time

	// now is the clock used to judge freshness
	now func() time.Time

	hooksMu sync.Mutex
	hooks   []namedHook
}

type namedHook struct {
	name string
	fn   ShutdownHook
}

// New builds the server around st. Metrics and tracing are initialised from cfg.
func New(cfg *config.Config, st store.Store, logger *observability.Logger) (*Server, error) {
	if st == nil {
		return nil, errors.New("health check store is required")
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	tracer, err := observability.NewTracer(cfg.Observability.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	s := &Server{
		config:    cfg,
		store:     st,
		logger:    logger,
		metrics:   observability.NewMetrics(),
		tracer:    tracer,
		startTime: time.Now(),
		now:       time.Now,
		proxies:   security.ParseTrustedProxies(cfg.Security.RateLimit.TrustedProxies),
	}

	if cfg.IsRateLimitEnabled() {
		s.rateLimiter = security.NewRateLimiter(&cfg.Security.RateLimit, s.rateLimitExemptPaths()...)
	}

	s.handler = s.applyMiddleware(s.routes())
	s.OnShutdown("tracer", tracer.Shutdown)

	return s, nil
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics exposes the server's collectors
func (s *Server) Metrics() *observability.Metrics {
	return s.metrics
}

// OnShutdown registers fn to run, in registration order, after the servers stop
func (s *Server) OnShutdown(name string, fn ShutdownHook) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, namedHook{name: name, fn: fn})
}

// Start serves until ctx is cancelled or a listener fails, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.config.GetServerAddress(),
		Handler:           s.handler,
		ReadTimeout:       s.config.Server.ReadTimeout,
		ReadHeaderTimeout: s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
		IdleTimeout:       s.config.Server.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 2)

	var metricsServer *http.Server
	if s.config.Observability.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(s.config.Observability.Metrics.Path, s.metrics.Handler())
		metricsServer = &http.Server{
			Addr:              s.config.GetMetricsAddress(),
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		s.logger.Info("Starting metrics server",
			zap.String("addr", metricsServer.Addr),
			zap.String("path", s.config.Observability.Metrics.Path),
		)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	s.logger.Info("Starting server",
		zap.String("addr", s.server.Addr),
		zap.String("store_driver", s.config.Store.Driver),
		zap.Bool("tls", s.config.TLS.Enabled),
	)
	go func() {
		var err error
		if s.config.TLS.Enabled {
			err = s.server.ListenAndServeTLS(s.config.TLS.CertFile, s.config.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("main server: %w", err)
		}
	}()

	s.metrics.SetHealthStatus(true)

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server...")
	case serveErr = <-errCh:
		s.logger.Error("Server failed", zap.Error(serveErr))
	}
	s.metrics.SetHealthStatus(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	return errors.Join(serveErr, s.shutdown(shutdownCtx, metricsServer))
}

// shutdown stops both servers in parallel, then runs the hooks
func (s *Server) shutdown(ctx context.Context, metricsServer *http.Server) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	stop := func(name string, srv *http.Server) {
		defer wg.Done()
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shutdown server", zap.String("server", name), zap.Error(err))
			mu.Lock()
			errs = append(errs, fmt.Errorf("%s server shutdown: %w", name, err))
			mu.Unlock()
		}
	}

	wg.Add(1)
	go stop("main", s.server)
	if metricsServer != nil {
		wg.Add(1)
		go stop("metrics", metricsServer)
	}
	wg.Wait()

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	s.hooksMu.Lock()
	hooks := append([]namedHook(nil), s.hooks...)
	s.hooksMu.Unlock()
	for _, h := range hooks {
		if err := h.fn(ctx); err != nil {
			s.logger.Error("Shutdown hook failed", zap.String("hook", h.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}

	s.logger.Info("Server stopped")
	return errors.Join(errs...)
}
