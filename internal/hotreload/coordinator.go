package hotreload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reloadable represents a component backed by a file that can be reloaded
type Reloadable interface {
	Reload(ctx context.Context) error
	Name() string
}

// Coordinator maps file events to the components that depend on those files
// and reloads them once the events have settled
type Coordinator struct {
	watcher      *Watcher
	broadcaster  *Broadcaster
	reloadables  map[string]Reloadable
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	debounceTime time.Duration
	wg           sync.WaitGroup
	isRunning    bool
	logger       *zap.Logger
}

func NewCoordinator(watcher *Watcher, broadcaster *Broadcaster, logger *zap.Logger) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		watcher:      watcher,
		broadcaster:  broadcaster,
		reloadables:  make(map[string]Reloadable),
		ctx:          ctx,
		cancel:       cancel,
		debounceTime: 500 * time.Millisecond,
		logger:       logger,
	}
}

// Register reloads r whenever path changes
func (c *Coordinator) Register(path string, r Reloadable) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.reloadables {
		if existing.Name() == r.Name() {
			return fmt.Errorf("reloadable %s already registered", r.Name())
		}
	}

	absPath, err := c.watcher.AddFile(path)
	if err != nil {
		return err
	}
	if _, exists := c.reloadables[absPath]; exists {
		_ = c.watcher.RemoveFile(absPath)
		return fmt.Errorf("path %s already has a reloadable", absPath)
	}

	c.reloadables[absPath] = r
	c.logger.Info("Registered reloadable component",
		zap.String("name", r.Name()),
		zap.String("path", absPath),
	)
	return nil
}

// Unregister removes the component registered under name
func (c *Coordinator) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for path, r := range c.reloadables {
		if r.Name() != name {
			continue
		}
		delete(c.reloadables, path)
		if err := c.watcher.RemoveFile(path); err != nil {
			c.logger.Warn("Failed to remove watch", zap.String("path", path), zap.Error(err))
		}
		c.logger.Info("Unregistered reloadable component", zap.String("name", name))
		return
	}
}

// Start begins the hot reload coordination
func (c *Coordinator) Start() error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return fmt.Errorf("coordinator already running")
	}
	c.isRunning = true
	c.mu.Unlock()

	c.watcher.Start()

	c.wg.Add(1)
	go c.coordinateReloads()

	c.logger.Info("Hot reload coordinator started")
	return nil
}

// Stop stops coordination and the watcher
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		c.cancel()
		c.watcher.Stop()
		return
	}
	c.isRunning = false
	c.mu.Unlock()

	c.cancel()
	c.watcher.Stop()
	c.wg.Wait()

	c.logger.Info("Hot reload coordinator stopped")
}

// coordinateReloads collects changed paths until no event has arrived for
// the debounce time, then reloads each affected component once
func (c *Coordinator) coordinateReloads() {
	defer c.wg.Done()

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = make(map[string]struct{})
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case event, ok := <-c.watcher.Events():
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
				!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
				continue
			}
			if !c.isRegistered(event.Path) {
				continue
			}
			pending[event.Path] = struct{}{}

			debounce := c.getDebounceTime()
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			for path := range pending {
				c.reload(path)
				delete(pending, path)
			}
		}
	}
}

func (c *Coordinator) isRegistered(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.reloadables[path]
	return ok
}

func (c *Coordinator) reload(path string) {
	c.mu.RLock()
	r, ok := c.reloadables[path]
	c.mu.RUnlock()
	if !ok {
		return
	}

	err := r.Reload(c.ctx)
	if err != nil {
		c.logger.Error("Failed to reload component",
			zap.String("name", r.Name()),
			zap.String("path", path),
			zap.Error(err),
		)
	} else {
		c.logger.Info("Reloaded component", zap.String("name", r.Name()))
	}

	if c.broadcaster != nil {
		result := Result{Name: r.Name(), Path: path, Err: err}
		if berr := c.broadcaster.Broadcast(c.ctx, result); berr != nil {
			c.logger.Warn("Reload listeners failed", zap.Error(berr))
		}
	}
}

// SetDebounceTime sets the quiet period required before reloading
func (c *Coordinator) SetDebounceTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debounceTime = d
}

func (c *Coordinator) getDebounceTime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.debounceTime
}

// IsRunning returns whether the coordinator is currently running
func (c *Coordinator) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}
