// Package watch triggers rescans when Swift sources change on disk.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/classcleaner/classcleaner/pkg/config"
	"github.com/classcleaner/classcleaner/pkg/parser"
	"github.com/fsnotify/fsnotify"
	"github.com/sourcegraph/conc"
)

// DefaultDebounce is used when no positive debounce is configured.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc receives a batch of changed paths. A batch is delivered only
// after the tree has been quiet for the debounce period. Batches may overlap
// when a handler is slow; the handler's ctx is cancelled on shutdown.
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher monitors a directory tree for Swift source changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	root      string
	onChange  ChangeFunc
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	pending  map[string]struct{}
	lastSeen time.Time
}

// NewWatcher creates a watcher for root.
func NewWatcher(root string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  debounce,
		root:      root,
		logger:    slog.Default(),
		now:       time.Now,
		pending:   make(map[string]struct{}),
	}, nil
}

// OnChange sets the batch handler.
func (w *Watcher) OnChange(fn ChangeFunc) {
	w.onChange = fn
}

// SetLogger replaces the default logger.
func (w *Watcher) SetLogger(l *slog.Logger) {
	w.logger = l
}

// Start watches until ctx is cancelled, then waits for running handlers.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.logger.Info("watch.start", "root", w.root, "dirs", len(w.fsWatcher.WatchList()), "debounce", w.debounce)

	var handlers conc.WaitGroup
	defer handlers.Wait()

	ticker := time.NewTicker(max(w.debounce/3, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch.error", "err", err)

		case <-ticker.C:
			batch := w.ready()
			if len(batch) == 0 || w.onChange == nil {
				continue
			}
			w.logger.Debug("watch.batch", "changed", len(batch))
			handlers.Go(func() {
				w.onChange(ctx, batch)
			})
		}
	}
}

// addTree registers root and every non-excluded directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || w.excluded(path)) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) excluded(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	return w.config.ShouldExclude(rel)
}

// handleEvent records a relevant change. New directories are watched too.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	path := event.Name
	if strings.HasPrefix(filepath.Base(path), ".") || w.excluded(path) {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(path); err != nil {
				w.logger.Warn("watch.add", "path", path, "err", err)
			}
			w.mark(path)
			return
		}
	}
	if parser.DetectLanguage(path) == parser.LangSwift {
		w.mark(path)
		return
	}
	// a removed directory can take sources with it
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		if filepath.Ext(path) == "" {
			w.mark(path)
		}
	}
}

func (w *Watcher) mark(path string) {
	w.mu.Lock()
	w.pending[path] = struct{}{}
	w.lastSeen = w.now()
	w.mu.Unlock()
}

// ready returns the pending batch, sorted, once no change has arrived for
// the debounce period.
func (w *Watcher) ready() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 || w.now().Sub(w.lastSeen) < w.debounce {
		return nil
	}
	batch := make([]string, 0, len(w.pending))
	for p := range w.pending {
		batch = append(batch, p)
	}
	sort.Strings(batch)
	w.pending = make(map[string]struct{})
	return batch
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the watched directories.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
