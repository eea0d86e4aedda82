package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/leslieo2/tioga-health/internal/constants"
)

// StoreConfig selects and configures the backend the latest health check is read from
type StoreConfig struct {
	Driver       string        `json:"driver" yaml:"driver"`
	DSN          string        `json:"dsn" yaml:"dsn"`
	Path         string        `json:"path" yaml:"path"`
	Table        string        `json:"table" yaml:"table"`
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout"`
	MaxOpenConns int           `json:"max_open_conns" yaml:"max_open_conns"`
}

// DefaultStoreConfig returns default store configuration
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Driver:       constants.StoreDriverSQLite,
		Path:         "tioga.db",
		Table:        "health_check",
		QueryTimeout: 5 * time.Second,
		MaxOpenConns: 4,
	}
}

// Validate validates the store configuration
func (s *StoreConfig) Validate() error {
	var errs []error

	switch s.Driver {
	case constants.StoreDriverSQLite, constants.StoreDriverFile:
		if s.Path == "" {
			errs = append(errs, fmt.Errorf("path is required for the %s driver", s.Driver))
		}
	case constants.StoreDriverPostgres:
		if s.DSN == "" {
			errs = append(errs, errors.New("dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid driver: %q, must be one of: sqlite, postgres, file", s.Driver))
	}

	if s.Driver != constants.StoreDriverFile && !validTableName(s.Table) {
		errs = append(errs, fmt.Errorf("invalid table name: %q", s.Table))
	}
	if s.QueryTimeout <= 0 {
		errs = append(errs, errors.New("query_timeout must be positive"))
	}
	if s.MaxOpenConns < 0 {
		errs = append(errs, errors.New("max_open_conns must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// validTableName accepts plain SQL identifiers only, the name is interpolated into queries
func validTableName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
