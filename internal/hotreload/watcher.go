package hotreload

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher handles file system watching for hot reload. Directories are
// watched instead of files so that editors replacing a file by rename do
// not drop the watch.
type Watcher struct {
	watcher    *fsnotify.Watcher
	dirs       map[string]int
	events     chan Event
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	isWatching bool
	closed     bool
	logger     *zap.Logger
}

// Event represents a file system event
type Event struct {
	Path string
	Op   fsnotify.Op
}

// NewWatcher creates a new file watcher
func NewWatcher(logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		watcher: fsWatcher,
		dirs:    make(map[string]int),
		events:  make(chan Event, 100),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}, nil
}

// AddFile watches the directory holding path. Returns the absolute file path.
func (w *Watcher) AddFile(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	dir := filepath.Dir(absPath)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return "", fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	w.dirs[dir]++

	w.logger.Debug("Added watch path", zap.String("path", absPath), zap.String("dir", dir))
	return absPath, nil
}

// RemoveFile drops the watch added for path once no other file needs its directory
func (w *Watcher) RemoveFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	dir := filepath.Dir(absPath)

	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.dirs[dir] {
	case 0:
		return fmt.Errorf("path %s is not watched", absPath)
	case 1:
		delete(w.dirs, dir)
		if err := w.watcher.Remove(dir); err != nil {
			return fmt.Errorf("failed to remove directory %s: %w", dir, err)
		}
	default:
		w.dirs[dir]--
	}

	w.logger.Debug("Removed watch path", zap.String("path", absPath))
	return nil
}

// Events returns the channel for file system events
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching for file system events
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.isWatching || w.closed {
		w.mu.Unlock()
		return
	}
	w.isWatching = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.watch()
	w.logger.Info("File watcher started")
}

// Stop stops watching and releases the underlying watcher. It is safe to
// call on a watcher that was never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	wasWatching := w.isWatching
	w.isWatching = false
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	close(w.events)
	if err := w.watcher.Close(); err != nil {
		w.logger.Error("Failed to close file watcher", zap.Error(err))
	}
	if wasWatching {
		w.logger.Info("File watcher stopped")
	}
}

func (w *Watcher) watch() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if shouldSkipEvent(event) {
				continue
			}

			select {
			case w.events <- Event{Path: event.Name, Op: event.Op}:
			case <-w.ctx.Done():
				return
			}
			w.logger.Debug("File system event",
				zap.String("path", event.Name),
				zap.String("operation", event.Op.String()),
			)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// shouldSkipEvent drops editor scratch files and attribute-only changes
func shouldSkipEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return true
	}
	base := filepath.Base(event.Name)
	if base == "" || strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return true
	}
	switch filepath.Ext(base) {
	case ".tmp", ".swp", ".swx":
		return true
	}
	return false
}

// IsWatching returns whether the watcher is currently active
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isWatching
}
