// Package hotreload reloads file-backed components when their files change.
package hotreload

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager wires a watcher, a coordinator and a broadcaster together
type Manager struct {
	watcher     *Watcher
	coordinator *Coordinator
	broadcaster *Broadcaster
	logger      *zap.Logger

	mu      sync.Mutex
	started bool
}

func NewManager(logger *zap.Logger) (*Manager, error) {
	logger = logger.Named("hotreload")

	watcher, err := NewWatcher(logger)
	if err != nil {
		return nil, err
	}
	broadcaster := NewBroadcaster(logger)

	return &Manager{
		watcher:     watcher,
		coordinator: NewCoordinator(watcher, broadcaster, logger),
		broadcaster: broadcaster,
		logger:      logger,
	}, nil
}

// Watch reloads r whenever path changes
func (m *Manager) Watch(path string, r Reloadable) error {
	return m.coordinator.Register(path, r)
}

// Unwatch stops reloading the component registered under name
func (m *Manager) Unwatch(name string) {
	m.coordinator.Unregister(name)
}

// AddListener adds a reload listener
func (m *Manager) AddListener(name string, listener Listener) error {
	return m.broadcaster.AddListener(name, listener)
}

// RemoveListener removes a reload listener
func (m *Manager) RemoveListener(name string) {
	m.broadcaster.RemoveListener(name)
}

// SetDebounceTime sets the debounce time for reload events
func (m *Manager) SetDebounceTime(d time.Duration) {
	m.coordinator.SetDebounceTime(d)
}

func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}
	if err := m.coordinator.Start(); err != nil {
		return err
	}

	m.started = true
	m.logger.Info("Hot reload system started")
	return nil
}

// Stop stops the system and releases the file watcher
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.coordinator.Stop()
	m.broadcaster.Close()
	if m.started {
		m.started = false
		m.logger.Info("Hot reload system stopped")
	}
}

// IsRunning returns whether the hot reload system is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Shutdown implements the server shutdown hook signature
func (m *Manager) Shutdown(_ context.Context) error {
	m.Stop()
	return nil
}
