package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leslieo2/tioga-health/internal/healthcheck"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestFileStore_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health.yaml")
	writeFile(t, path, "ts: 1750000000\nstatus: OK\n")

	s := NewFileStore(path, zap.NewNop())
	record, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1750000000), record.TimestampSeconds)
	assert.Equal(t, "OK", record.Status)
}

func TestFileStore_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health.json")
	writeFile(t, path, `{"ts": 42, "status": "FAIL"}`)

	s := NewFileStore(path, zap.NewNop())
	record, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), record.TimestampSeconds)
	assert.Equal(t, "FAIL", record.Status)
}

func TestFileStore_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		s := NewFileStore(filepath.Join(dir, "absent.yaml"), zap.NewNop())
		_, err := s.Latest(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoRecord)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		writeFile(t, path, "  \n")
		s := NewFileStore(path, zap.NewNop())
		_, err := s.Latest(context.Background())
		assert.ErrorIs(t, err, ErrNoRecord)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		writeFile(t, path, `{"ts": `)
		s := NewFileStore(path, zap.NewNop())
		_, err := s.Latest(context.Background())
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		path := filepath.Join(dir, "ok.yaml")
		writeFile(t, path, "ts: 1\nstatus: OK\n")
		s := NewFileStore(path, zap.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Latest(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFileStore_ReadsFreshWithoutReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health.yaml")
	writeFile(t, path, "ts: 1\nstatus: ERROR\n")

	s := NewFileStore(path, zap.NewNop())

	writeFile(t, path, "ts: 2\nstatus: OK\n")
	record, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, healthcheck.Record{TimestampSeconds: 2, Status: "OK"}, record)

	require.NoError(t, os.Remove(path))
	_, err = s.Latest(context.Background())
	assert.Error(t, err, "a vanished document is reported, not served from memory")
}

func TestFileStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health.yaml")
	writeFile(t, path, "ts: 100\nstatus: OK\n")

	s := NewFileStore(path, zap.NewNop())
	s.SetCached(true)
	assert.Equal(t, "file-store:"+path, s.Name())
	assert.Equal(t, path, s.Path())

	writeFile(t, path, "ts: 200\nstatus: DOWN\n")

	// cached until reloaded
	record, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), record.TimestampSeconds)

	require.NoError(t, s.Reload(context.Background()))
	record, err = s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(200), record.TimestampSeconds)
	assert.Equal(t, "DOWN", record.Status)
}

func TestFileStore_RecoversAfterFailedLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health.yaml")

	s := NewFileStore(path, zap.NewNop())
	s.SetCached(true)
	_, err := s.Latest(context.Background())
	require.Error(t, err)

	writeFile(t, path, "ts: 5\nstatus: OK\n")
	require.NoError(t, s.Reload(context.Background()))

	record, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), record.TimestampSeconds)
}
