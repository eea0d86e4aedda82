package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/leslieo2/tioga-health/internal/config"
	"github.com/leslieo2/tioga-health/internal/healthcheck"
)

const sqliteDriverName = "sqlite3"

// SQLiteStore reads health checks from a SQLite database opened read-only
type SQLiteStore struct {
	db           *sqlx.DB
	query        string
	queryTimeout time.Duration
	logger       *zap.Logger
}

func NewSQLiteStore(cfg config.StoreConfig, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sqlx.Open(sqliteDriverName, sqliteDSN(cfg.Path, "ro"))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	db.SetMaxIdleConns(2)

	logger.Info("Opened health check store", zap.String("path", cfg.Path))

	return &SQLiteStore{
		db:           db,
		query:        latestQuery(cfg.Table),
		queryTimeout: cfg.QueryTimeout,
		logger:       logger,
	}, nil
}

// sqliteDSN builds a file: URI for path. The path is made absolute and
// percent-encoded so that '?' or '#' in it cannot leak into the query.
func sqliteDSN(path, mode string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(path),
		RawQuery: url.Values{
			"mode":          {mode},
			"_busy_timeout": {"5000"},
		}.Encode(),
	}
	return u.String()
}

func (s *SQLiteStore) Latest(ctx context.Context) (healthcheck.Record, error) {
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	var record healthcheck.Record
	if err := s.db.GetContext(ctx, &record, s.query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return healthcheck.Record{}, ErrNoRecord
		}
		return healthcheck.Record{}, fmt.Errorf("query latest health check: %w", err)
	}
	return record, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
