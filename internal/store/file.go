package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/leslieo2/tioga-health/internal/healthcheck"
)

// FileStore serves a health check kept in a YAML or JSON document such as
//
//	ts: 1750000000
//	status: OK
//
// Every Latest re-reads the document unless caching is switched on, which
// callers do once a watcher is driving Reload.
type FileStore struct {
	path   string
	logger *zap.Logger
	cached atomic.Bool

	mu      sync.RWMutex
	record  healthcheck.Record
	loadErr error
}

// NewFileStore loads path immediately. A failed load is kept and returned
// by Latest until a later Reload succeeds.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	s := &FileStore{path: path, logger: logger}
	if err := s.Reload(context.Background()); err != nil {
		logger.Warn("Health check file not loaded", zap.String("path", path), zap.Error(err))
	}
	return s
}

func (s *FileStore) Latest(ctx context.Context) (healthcheck.Record, error) {
	if err := ctx.Err(); err != nil {
		return healthcheck.Record{}, err
	}

	if !s.cached.Load() {
		record, err := readRecordFile(s.path)
		s.mu.Lock()
		s.record, s.loadErr = record, err
		s.mu.Unlock()
		return record, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadErr != nil {
		return healthcheck.Record{}, s.loadErr
	}
	return s.record, nil
}

// SetCached makes Latest serve the last loaded document instead of reading
// the file on every call. Only enable it while something calls Reload on change.
func (s *FileStore) SetCached(cached bool) {
	s.cached.Store(cached)
}

// Name identifies the store to the hot reload coordinator
func (s *FileStore) Name() string {
	return "file-store:" + s.path
}

// Path is the watched document
func (s *FileStore) Path() string {
	return s.path
}

// Reload re-reads the document
func (s *FileStore) Reload(ctx context.Context) error {
	record, err := readRecordFile(s.path)

	s.mu.Lock()
	s.record, s.loadErr = record, err
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.logger.Debug("Loaded health check file",
		zap.String("path", s.path),
		zap.Int64("ts", record.TimestampSeconds),
		zap.String("status", record.Status),
	)
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func readRecordFile(path string) (healthcheck.Record, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return healthcheck.Record{}, fmt.Errorf("read health check file: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return healthcheck.Record{}, ErrNoRecord
	}

	var record healthcheck.Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &record)
	default:
		err = yaml.Unmarshal(data, &record)
	}
	if err != nil {
		return healthcheck.Record{}, fmt.Errorf("parse health check file %s: %w", path, err)
	}

	if record.TimestampSeconds == 0 && record.Status == "" {
		return healthcheck.Record{}, ErrNoRecord
	}
	return record, nil
}
