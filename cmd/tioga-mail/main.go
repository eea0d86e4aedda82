// Command tioga-mail sends the road opening announcement to subscribers.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/leslieo2/tioga-health/internal/config"
	"github.com/leslieo2/tioga-health/internal/mailer"
	"github.com/leslieo2/tioga-health/internal/observability"
)

func main() {
	flags := pflag.NewFlagSet("tioga-mail", pflag.ExitOnError)
	configFile := flags.String("config", "", "Path to configuration file (YAML or JSON)")
	to := flags.String("to", "", "Send a single test email to this address")
	all := flags.Bool("all", false, "Send to every address in the to-send list not yet in the done file")
	envFile := flags.String("env-file", ".env", "Dotenv file holding AWS credentials, skipped when absent")
	_ = flags.Parse(os.Args[1:])

	// variables already set in the environment win over the file
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}

	if (*to == "") == !*all {
		fmt.Fprintf(os.Stderr, "Usage: %s --config mail.yaml (--to address | --all)\n\n%s", os.Args[0], flags.FlagUsages())
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configFile, nil)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Mail.Validate(); err != nil {
		log.Fatalf("Invalid mail configuration: %v", err)
	}

	logCfg := cfg.Observability.Logging
	logCfg.Format = "console"
	logger, err := observability.NewLogger(logCfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	msg, err := mailer.LoadMessage(cfg.Mail)
	if err != nil {
		logger.Fatal("Failed to load message", zap.Error(err))
	}
	client, err := mailer.NewSESClient(ctx, cfg.Mail)
	if err != nil {
		logger.Fatal("Failed to create SES client", zap.Error(err))
	}
	m := mailer.New(client, cfg.Mail, msg, logger.Logger)

	if *to != "" {
		if _, err := m.Send(ctx, *to); err != nil {
			logger.Fatal("Failed to send email", zap.Error(err))
		}
		return
	}

	summary, err := m.SendAll(ctx)
	if err != nil {
		logger.Fatal("Mailing stopped", zap.Error(err), zap.Int("sent", summary.Sent))
	}
	if summary.Failed > 0 {
		logger.Warn("Some recipients failed and were not marked done", zap.Int("failed", summary.Failed))
	}
}
