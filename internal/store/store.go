// Package store reads the latest recorded health check. Stores never write
// records, the health-check producer owns the data.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/leslieo2/tioga-health/internal/config"
	"github.com/leslieo2/tioga-health/internal/constants"
	"github.com/leslieo2/tioga-health/internal/healthcheck"
)

var (
	// ErrNoRecord is returned when the backend holds no health check yet
	ErrNoRecord = errors.New("no health check recorded")

	// ErrUnknownDriver is returned by New for an unsupported driver name
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Store supplies the most recent health-check record
type Store interface {
	Latest(ctx context.Context) (healthcheck.Record, error)
	Close() error
}

// New opens the store selected by cfg.Driver
func New(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	logger = logger.With(zap.String("driver", cfg.Driver))

	switch cfg.Driver {
	case constants.StoreDriverSQLite:
		return NewSQLiteStore(cfg, logger)
	case constants.StoreDriverPostgres:
		return NewPostgresStore(ctx, cfg, logger)
	case constants.StoreDriverFile:
		return NewFileStore(cfg.Path, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// latestQuery selects the newest row of table, which must be a validated identifier
func latestQuery(table string) string {
	return fmt.Sprintf("SELECT ts, status FROM %s ORDER BY ts DESC LIMIT 1", table)
}
