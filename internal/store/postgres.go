package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/leslieo2/tioga-health/internal/config"
	"github.com/leslieo2/tioga-health/internal/healthcheck"
)

// PostgresStore reads health checks from PostgreSQL through a pgx pool
type PostgresStore struct {
	pool         *pgxpool.Pool
	query        string
	queryTimeout time.Duration
	logger       *zap.Logger
}

func NewPostgresStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}

	// The pool connects lazily, an unreachable database shows up on the first fetch
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	logger.Info("Opened health check store",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database),
	)

	return &PostgresStore{
		pool:         pool,
		query:        latestQuery(cfg.Table),
		queryTimeout: cfg.QueryTimeout,
		logger:       logger,
	}, nil
}

func (s *PostgresStore) Latest(ctx context.Context) (healthcheck.Record, error) {
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	var record healthcheck.Record
	err := s.pool.QueryRow(ctx, s.query).Scan(&record.TimestampSeconds, &record.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return healthcheck.Record{}, ErrNoRecord
		}
		return healthcheck.Record{}, fmt.Errorf("query latest health check: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
