package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchedExtensions are the source document types that trigger reprocessing.
var watchedExtensions = map[string]bool{".md": true, ".yaml": true, ".yml": true, ".txt": true}

// ChangeHandler receives the settled batch of changed document paths.
type ChangeHandler func(ctx context.Context, paths []string)

// WatcherStats tracks watcher activity.
type WatcherStats struct {
	FilesCreated     int
	FilesModified    int
	FilesDeleted     int
	BatchesProcessed int
	Errors           int
	LastEventTime    time.Time
	LastEventPath    string
}

// Watcher monitors a docs source directory and batches change notifications
// so rapid saves trigger a single reprocessing run.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	sourceDir   string
	onChange    ChangeHandler
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	logger      *zap.Logger

	stats WatcherStats
}

// NewWatcher creates a watcher over sourceDir. onChange is invoked with each
// settled batch of changed paths.
func NewWatcher(sourceDir string, onChange ChangeHandler, logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fsWatcher,
		sourceDir:   sourceDir,
		onChange:    onChange,
		debounceMap: map[string]time.Time{},
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		logger:      logger,
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.sourceDir, 0o755); err != nil {
		w.logger.Warn("could not create watched dir", zap.String("dir", w.sourceDir), zap.Error(err))
	}
	if err := w.watcher.Add(w.sourceDir); err != nil {
		w.logger.Warn("initial watch failed", zap.String("dir", w.sourceDir), zap.Error(err))
	} else {
		w.logger.Info("watching docs directory", zap.String("dir", w.sourceDir))
	}

	// Watch existing subdirectories too; fsnotify is not recursive.
	entries, err := os.ReadDir(w.sourceDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
				sub := filepath.Join(w.sourceDir, entry.Name())
				if err := w.watcher.Add(sub); err == nil {
					w.logger.Debug("watching subdirectory", zap.String("dir", sub))
				}
			}
		}
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("error closing watcher", zap.Error(err))
	}
	w.logger.Info("docs watcher stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flushSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !watchedExtensions[strings.ToLower(filepath.Ext(event.Name))] {
		// New subdirectories need explicit watches.
		if event.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.watcher.Add(event.Name); err == nil {
					w.logger.Debug("watching new subdirectory", zap.String("dir", event.Name))
				}
			}
		}
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case event.Op&fsnotify.Create != 0:
		w.stats.FilesCreated++
	case event.Op&fsnotify.Write != 0:
		w.stats.FilesModified++
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		w.stats.FilesDeleted++
	default:
		return
	}
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.debounceMap[event.Name] = time.Now()
}

// flushSettled hands paths whose last event is older than the debounce window
// to the change handler as one batch.
func (w *Watcher) flushSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	if len(settled) > 0 {
		w.stats.BatchesProcessed++
	}
	w.mu.Unlock()

	if len(settled) == 0 {
		return
	}
	sort.Strings(settled)
	w.logger.Info("docs changed", zap.Int("files", len(settled)))
	w.onChange(ctx, settled)
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
