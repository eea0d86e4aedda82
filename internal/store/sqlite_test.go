package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leslieo2/tioga-health/internal/config"
)

// seedSQLite creates a writable database holding rows and returns its path
func seedSQLite(t *testing.T, rows map[int64]string) string {
	t.Helper()
	return seedSQLiteAt(t, filepath.Join(t.TempDir(), "tioga.db"), rows)
}

func seedSQLiteAt(t *testing.T, path string, rows map[int64]string) string {
	t.Helper()

	db, err := sqlx.Connect(sqliteDriverName, sqliteDSN(path, "rwc"))
	require.NoError(t, err)
	defer db.Close()

	db.MustExec(`CREATE TABLE health_check (ts INTEGER NOT NULL, status TEXT NOT NULL)`)
	for ts, status := range rows {
		db.MustExec(`INSERT INTO health_check (ts, status) VALUES (?, ?)`, ts, status)
	}
	return path
}

func sqliteConfig(path string) config.StoreConfig {
	cfg := config.DefaultStoreConfig()
	cfg.Path = path
	return cfg
}

func TestSQLiteStore_LatestReturnsNewestRow(t *testing.T) {
	path := seedSQLite(t, map[int64]string{
		1000: "OK",
		3000: "DEGRADED",
		2000: "OK",
	})

	s, err := NewSQLiteStore(sqliteConfig(path), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	record, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3000), record.TimestampSeconds)
	assert.Equal(t, "DEGRADED", record.Status)
}

func TestSQLiteStore_EmptyTable(t *testing.T) {
	path := seedSQLite(t, nil)

	s, err := NewSQLiteStore(sqliteConfig(path), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestSQLiteStore_MissingTable(t *testing.T) {
	path := seedSQLite(t, nil)

	cfg := sqliteConfig(path)
	cfg.Table = "missing"
	s, err := NewSQLiteStore(cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Latest(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRecord)
}

func TestSQLiteStore_IsReadOnly(t *testing.T) {
	path := seedSQLite(t, map[int64]string{1000: "OK"})

	s, err := NewSQLiteStore(sqliteConfig(path), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.db.Exec(`INSERT INTO health_check (ts, status) VALUES (2000, 'OK')`)
	assert.Error(t, err)
}

func TestSQLiteStore_SeesNewRows(t *testing.T) {
	path := seedSQLite(t, map[int64]string{1000: "OK"})

	s, err := NewSQLiteStore(sqliteConfig(path), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	writer, err := sqlx.Connect(sqliteDriverName, path)
	require.NoError(t, err)
	defer writer.Close()
	now := time.Now().Unix()
	writer.MustExec(`INSERT INTO health_check (ts, status) VALUES (?, ?)`, now, "OK")

	record, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now, record.TimestampSeconds)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:///data/a%3Fb%23c.db?_busy_timeout=5000&mode=ro", sqliteDSN("/data/a?b#c.db", "ro"))
	assert.Equal(t, "file:///data/with%20space.db?_busy_timeout=5000&mode=rwc", sqliteDSN("/data/with space.db", "rwc"))

	relative := sqliteDSN("tioga.db", "ro")
	assert.True(t, strings.HasPrefix(relative, "file:///"), relative)
	assert.True(t, strings.HasSuffix(relative, "/tioga.db?_busy_timeout=5000&mode=ro"), relative)
}

func TestSQLiteStore_PathWithURIDelimiters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "odd?#dir")
	require.NoError(t, os.Mkdir(dir, 0o755))
	path := seedSQLiteAt(t, filepath.Join(dir, "tioga?1.db"), map[int64]string{42: "OK"})

	s, err := NewSQLiteStore(sqliteConfig(path), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	record, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), record.TimestampSeconds)
}
