// Package watch regenerates the proof whenever SoT contract files change.
// Events are debounced so a burst of editor saves triggers one regeneration.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Stats tracks watcher activity for debugging.
type Stats struct {
	FilesCreated  int
	FilesModified int
	FilesDeleted  int
	Regenerations int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
}

// RegenerateFunc is invoked once per settled batch of contract changes.
type RegenerateFunc func(ctx context.Context, changed []string)

// ContractWatcher watches a contracts directory for *.yaml / *.yml changes
// and triggers regeneration after the debounce window settles.
type ContractWatcher struct {
	mu           sync.Mutex
	watcher      *fsnotify.Watcher
	contractsDir string
	regenerate   RegenerateFunc
	logger       *zap.Logger
	debounceMap  map[string]time.Time
	debounceDur  time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
	running      bool
	stats        Stats
}

// New creates a ContractWatcher for the given contracts directory.
// A nil logger disables logging.
func New(contractsDir string, regenerate RegenerateFunc, logger *zap.Logger) (*ContractWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &ContractWatcher{
		watcher:      w,
		contractsDir: contractsDir,
		regenerate:   regenerate,
		logger:       logger,
		debounceMap:  make(map[string]time.Time),
		debounceDur:  500 * time.Millisecond, // Debounce rapid saves
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

// SetDebounce overrides the debounce window (tests use a short one).
func (cw *ContractWatcher) SetDebounce(d time.Duration) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.debounceDur = d
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
func (cw *ContractWatcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	if cw.running {
		cw.mu.Unlock()
		return nil
	}
	cw.running = true
	cw.mu.Unlock()

	// Directory might be created later; watch failure is not fatal.
	if err := os.MkdirAll(cw.contractsDir, 0755); err != nil {
		cw.logger.Warn("cannot create contracts dir", zap.String("dir", cw.contractsDir), zap.Error(err))
	}
	if err := cw.watcher.Add(cw.contractsDir); err != nil {
		cw.logger.Warn("initial watch failed", zap.String("dir", cw.contractsDir), zap.Error(err))
	} else {
		cw.logger.Info("watching contracts", zap.String("dir", cw.contractsDir))
	}

	go cw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (cw *ContractWatcher) Stop() {
	cw.mu.Lock()
	if !cw.running {
		cw.mu.Unlock()
		return
	}
	cw.running = false
	cw.mu.Unlock()

	close(cw.stopCh)
	<-cw.doneCh

	if err := cw.watcher.Close(); err != nil {
		cw.logger.Error("error closing watcher", zap.Error(err))
	}
}

// GetStats returns a snapshot of watcher activity.
func (cw *ContractWatcher) GetStats() Stats {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.stats
}

func (cw *ContractWatcher) run(ctx context.Context) {
	defer close(cw.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-cw.stopCh:
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleEvent(event)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error("watch error", zap.Error(err))
			cw.mu.Lock()
			cw.stats.Errors++
			cw.mu.Unlock()

		case <-debounceTicker.C:
			cw.processDebounced(ctx)
		}
	}
}

func (cw *ContractWatcher) handleEvent(event fsnotify.Event) {
	ext := strings.ToLower(filepath.Ext(event.Name))
	if ext != ".yaml" && ext != ".yml" {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return // Ignore chmod, etc.
	}

	cw.mu.Lock()
	cw.stats.LastEventTime = time.Now()
	cw.stats.LastEventPath = event.Name
	cw.stats.LastEventType = eventType
	switch eventType {
	case "create":
		cw.stats.FilesCreated++
	case "modify":
		cw.stats.FilesModified++
	case "delete", "rename":
		cw.stats.FilesDeleted++
	}
	cw.debounceMap[event.Name] = time.Now()
	cw.mu.Unlock()

	cw.logger.Debug("contract event", zap.String("type", eventType), zap.String("file", event.Name))
}

// processDebounced fires one regeneration for all events settled past the
// debounce window.
func (cw *ContractWatcher) processDebounced(ctx context.Context) {
	cw.mu.Lock()
	now := time.Now()
	var settled []string
	for path, eventTime := range cw.debounceMap {
		if now.Sub(eventTime) >= cw.debounceDur {
			settled = append(settled, path)
			delete(cw.debounceMap, path)
		}
	}
	if len(settled) > 0 {
		cw.stats.Regenerations++
	}
	cw.mu.Unlock()

	if len(settled) == 0 {
		return
	}

	cw.logger.Info("contracts changed, regenerating", zap.Int("files", len(settled)))
	cw.regenerate(ctx, settled)
}
