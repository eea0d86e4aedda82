package hotreload

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestManager_Lifecycle(t *testing.T) {
	m, err := NewManager(zap.NewNop())
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}

	if m.IsRunning() {
		t.Error("manager should not be running initially")
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Errorf("second Start() should be a no-op, got %v", err)
	}
	if !m.IsRunning() {
		t.Error("manager should be running")
	}

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}
	if m.IsRunning() {
		t.Error("manager should be stopped")
	}
}

func TestManager_ReloadsWatchedFile(t *testing.T) {
	m, err := NewManager(zap.NewNop())
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}
	defer m.Stop()
	m.SetDebounceTime(50 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "health.yaml")
	if err := os.WriteFile(path, []byte("ts: 1\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	r := &mockReloadable{name: "file-store"}
	if err := m.Watch(path, r); err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}

	var notified atomic.Int32
	if err := m.AddListener("test", func(_ context.Context, res Result) error {
		if res.Name == "file-store" && res.Err == nil {
			notified.Add(1)
		}
		return nil
	}); err != nil {
		t.Fatalf("AddListener() failed: %v", err)
	}

	if err := m.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// replace by rename, the way editors and atomic writers do
	tmp := path + ".next"
	if err := os.WriteFile(tmp, []byte("ts: 2\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return notified.Load() >= 1 }) {
		t.Fatal("listener was not notified of the reload")
	}
	if r.reloadCount.Load() < 1 {
		t.Error("component was not reloaded")
	}

	m.Unwatch("file-store")
	m.RemoveListener("test")
}
