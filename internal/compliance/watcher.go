package compliance

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultReloadDebounce = 500 * time.Millisecond

// Watcher reloads a YAML catalog into a Holder when the file changes.
// A file that fails to parse or validate is logged and the active catalog kept.
type Watcher struct {
	path     string
	holder   *Holder
	debounce time.Duration
	logger   *zap.Logger
	watcher  *fsnotify.Watcher

	// OnReload is called after a successful swap. Optional.
	OnReload func(LoadedCatalog)
	// OnReject is called when a changed file fails to load. Optional.
	OnReject func(error)

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	done    chan struct{}
}

// NewWatcher creates a watcher for path. The parent directory is watched so
// editors that replace the file atomically are picked up.
func NewWatcher(path string, holder *Holder, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultReloadDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to resolve catalog path: %w", err)
	}

	return &Watcher{
		path:     abs,
		holder:   holder,
		debounce: debounce,
		logger:   logger,
		watcher:  fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching until ctx is cancelled or Stop is called
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	go w.run(ctx)

	w.logger.Info("policy catalog watcher started",
		zap.String("path", w.path),
		zap.Duration("debounce", w.debounce))
	return nil
}

// Stop closes the underlying watcher. No reload swaps the catalog once Stop returns.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

// Done is closed when the event loop exits
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("policy catalog watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.Reload)
}

// Reload reads the file now and swaps the catalog if it is valid.
// It is a no-op after Stop.
func (w *Watcher) Reload() {
	loaded, ok, err := w.reload()
	if !ok {
		return
	}
	if err != nil {
		w.logger.Error("policy catalog reload rejected, keeping active catalog",
			zap.String("path", w.path),
			zap.Error(err))
		if w.OnReject != nil {
			w.OnReject(err)
		}
		return
	}

	w.logger.Info("policy catalog reloaded",
		zap.String("path", w.path),
		zap.String("version", loaded.Version),
		zap.String("digest", loaded.Digest),
		zap.Int("policies", loaded.Catalog.Len()))

	if w.OnReload != nil {
		w.OnReload(loaded)
	}
}

// reload loads and swaps under mu so a concurrent Stop either waits for the
// swap or prevents it. ok is false when the watcher is stopped.
func (w *Watcher) reload() (loaded LoadedCatalog, ok bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return LoadedCatalog{}, false, nil
	}
	loaded, err = LoadCatalog(w.path)
	if err == nil {
		w.holder.Swap(loaded.Catalog)
	}
	return loaded, true, err
}
