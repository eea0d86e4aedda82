package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/leslieo2/tioga-health/internal/config"
	"github.com/leslieo2/tioga-health/internal/constants"
	"github.com/leslieo2/tioga-health/internal/hotreload"
	"github.com/leslieo2/tioga-health/internal/observability"
	"github.com/leslieo2/tioga-health/internal/server"
	"github.com/leslieo2/tioga-health/internal/store"
)

func main() {
	flags := pflag.NewFlagSet("tioga-health", pflag.ExitOnError)
	flags.Usage = func() { printUsage(flags) }

	configFile := flags.String("config", "", "Path to configuration file (YAML or JSON)")
	version := flags.Bool("version", false, "Print version and exit")

	cliFlags := &config.CLIFlags{
		Flags:       flags,
		Host:        flags.String("host", "localhost", "Host to listen on"),
		Port:        flags.String("port", "8080", "Port to serve the health page on"),
		MetricsPort: flags.String("metrics-port", "9090", "Port to run the metrics server on"),

		ReadTimeout:     flags.Duration("read-timeout", 15*time.Second, "HTTP server read timeout"),
		WriteTimeout:    flags.Duration("write-timeout", 15*time.Second, "HTTP server write timeout"),
		IdleTimeout:     flags.Duration("idle-timeout", 60*time.Second, "HTTP server idle timeout"),
		ShutdownTimeout: flags.Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout"),

		StoreDriver: flags.String("store-driver", constants.StoreDriverSQLite, "Health check store: sqlite, postgres or file"),
		StoreDSN:    flags.String("store-dsn", "", "PostgreSQL connection string"),
		StorePath:   flags.String("store-path", "tioga.db", "SQLite database or health check file path"),

		LogLevel:  flags.String("log-level", "info", "Log level: debug, info, warn, error"),
		LogFormat: flags.String("log-format", "json", "Log format: json or console"),

		RateLimitEnabled: flags.Bool("rate-limit-enabled", true, "Enable per-client rate limiting"),
		RateLimitRPS:     flags.Int("rate-limit-rps", 10, "Requests per second allowed per client"),

		HotReload:         flags.Bool("hot-reload", true, "Reload the health check file when it changes"),
		HotReloadDebounce: flags.Duration("hot-reload-debounce", 500*time.Millisecond, "Debounce time for hot reload events"),

		TLSEnabled:  flags.Bool("tls-enabled", false, "Serve over HTTPS"),
		TLSCertFile: flags.String("tls-cert-file", "", "TLS certificate file"),
		TLSKeyFile:  flags.String("tls-key-file", "", "TLS private key file"),
	}

	_ = flags.Parse(os.Args[1:])

	if *version {
		fmt.Println(constants.Version)
		return
	}

	path := *configFile
	if path == "" {
		if _, err := os.Stat(constants.DefaultFileName); err == nil {
			path = constants.DefaultFileName
		}
	}

	cfg, err := config.LoadConfig(path, cliFlags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.Store, logger.Logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("Failed to close store", zap.Error(err))
		}
	}()

	srv, err := server.New(cfg, st, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	if fileStore, ok := st.(*store.FileStore); ok && cfg.HotReload.Enabled {
		manager, err := startHotReload(cfg, fileStore, srv.Metrics(), logger)
		if err != nil {
			return err
		}
		srv.OnShutdown("hotreload", manager.Shutdown)
	}

	if cfg.IsRateLimitEnabled() {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.Security.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.Security.RateLimit.BurstSize),
		)
	}

	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// startHotReload reloads fileStore whenever its document changes
func startHotReload(cfg *config.Config, fileStore *store.FileStore, metrics *observability.Metrics, logger *observability.Logger) (*hotreload.Manager, error) {
	manager, err := hotreload.NewManager(logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("create hot reload manager: %w", err)
	}
	manager.SetDebounceTime(cfg.HotReload.Debounce)

	if err := manager.Watch(fileStore.Path(), fileStore); err != nil {
		manager.Stop()
		return nil, fmt.Errorf("watch health check file: %w", err)
	}
	if err := manager.AddListener("metrics", func(_ context.Context, result hotreload.Result) error {
		metrics.RecordReload(result.Err)
		return nil
	}); err != nil {
		manager.Stop()
		return nil, err
	}
	if err := manager.Start(); err != nil {
		manager.Stop()
		return nil, fmt.Errorf("start hot reload: %w", err)
	}

	// the watcher now keeps the store current, so stop reading per request;
	// reload once to cover edits made before the watch began
	if err := fileStore.Reload(context.Background()); err != nil {
		logger.Warn("Health check file not loaded", zap.String("path", fileStore.Path()), zap.Error(err))
	}
	fileStore.SetCached(true)
	logger.Info("Hot reload enabled", zap.String("path", fileStore.Path()))
	return manager, nil
}

func printUsage(flags *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Serves a page reporting whether the latest recorded health check is fresh and OK.\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n%s", flags.FlagUsages())
	fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
	fmt.Fprintf(os.Stderr, "  TIOGA_HEALTH_HOST, TIOGA_HEALTH_PORT, TIOGA_HEALTH_METRICS_PORT\n")
	fmt.Fprintf(os.Stderr, "  TIOGA_HEALTH_STORE_DRIVER, TIOGA_HEALTH_STORE_DSN, TIOGA_HEALTH_STORE_PATH\n")
	fmt.Fprintf(os.Stderr, "  TIOGA_HEALTH_LOG_LEVEL, TIOGA_HEALTH_LOG_FORMAT\n")
	fmt.Fprintf(os.Stderr, "  TIOGA_HEALTH_RATE_LIMIT_ENABLED, TIOGA_HEALTH_RATE_LIMIT_RPS\n")
	fmt.Fprintf(os.Stderr, "  TIOGA_HEALTH_HOT_RELOAD, TIOGA_HEALTH_HOT_RELOAD_DEBOUNCE\n")
	fmt.Fprintf(os.Stderr, "\nConfiguration file:\n")
	fmt.Fprintf(os.Stderr, "  %s (loaded from the working directory when --config is not given)\n", constants.DefaultFileName)
	fmt.Fprintf(os.Stderr, "\nExample usage:\n")
	fmt.Fprintf(os.Stderr, "  %s --store-driver sqlite --store-path ./tioga.db\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s --store-driver file --store-path ./health.yaml --log-format console\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  TIOGA_HEALTH_STORE_DRIVER=postgres TIOGA_HEALTH_STORE_DSN=postgres://... %s\n", os.Args[0])
}
