// Package watcher is the file system watcher (C8): it watches a
// directory tree for writes, creates, removes and renames, debounces
// rapid-fire events per path, and drives the pipeline's single-file
// reindex path. Grounded on the teacher's FileWatcher
// (gnana997-uispec/pkg/indexer/watcher.go), adapted to call
// pipeline.ReindexFile/store.RemoveFile instead of the teacher's
// SymbolIndexer, and to classify files through pkg/langs instead of a
// two-language extension switch.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codecortex/codecortex/pkg/langs"
	"github.com/codecortex/codecortex/pkg/pipeline"
	"github.com/codecortex/codecortex/pkg/store"
)

// defaultDebounce matches spec §4.8's 200ms coalescing window.
const defaultDebounce = 200 * time.Millisecond

var ignoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"build":        true,
	"dist":         true,
	".venv":        true,
}

// Watcher watches a root directory and keeps the store in sync with the
// file system between full Run calls.
type Watcher struct {
	fsw      *fsnotify.Watcher
	pipeline *pipeline.Pipeline
	store    *store.Store
	logger   *slog.Logger
	debounce time.Duration

	timersMu sync.Mutex
	timers   map[string]*time.Timer

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a Watcher. debounce <= 0 selects the 200ms default.
func New(p *pipeline.Pipeline, st *store.Store, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fsw:      fsw,
		pipeline: p,
		store:    st,
		logger:   logger,
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start adds root and every non-ignored subdirectory to the watch list,
// then begins the background event loop. Safe to call once.
func (w *Watcher) Start(ctx context.Context, root string) error {
	if err := w.fsw.Add(root); err != nil {
		return fmt.Errorf("watcher: watch root %q: %w", root, err)
	}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (ignoredDirs[d.Name()] || hasDotPrefix(d.Name())) {
			return filepath.SkipDir
		}
		if path != root {
			if err := w.fsw.Add(path); err != nil {
				w.logger.Warn("watcher: failed to watch directory", "path", path, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watcher: walk %q: %w", root, err)
	}

	w.logger.Info("watcher started", "root", root)
	go w.eventLoop(ctx)
	return nil
}

// Stop halts the event loop and cancels every pending debounce timer.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.timersMu.Lock()
		for _, t := range w.timers {
			t.Stop()
		}
		w.timers = make(map[string]*time.Timer)
		w.timersMu.Unlock()
		err = w.fsw.Close()
		w.logger.Info("watcher stopped")
	})
	return err
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	if ignoredDirs[filepath.Base(filepath.Dir(path))] {
		return
	}
	if _, ok := langs.Detect(path); !ok {
		return
	}

	switch {
	case event.Op&fsnotify.Write == fsnotify.Write, event.Op&fsnotify.Create == fsnotify.Create:
		w.debounceReindex(ctx, path)
	case event.Op&fsnotify.Remove == fsnotify.Remove, event.Op&fsnotify.Rename == fsnotify.Rename:
		w.store.RemoveFile(path)
	}
}

// debounceReindex coalesces rapid-fire events for the same path: only
// the last event within the debounce window triggers a reindex.
func (w *Watcher) debounceReindex(ctx context.Context, path string) {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()

	if t, exists := w.timers[path]; exists {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		if err := w.pipeline.ReindexFile(ctx, path); err != nil {
			w.logger.Warn("watcher: reindex failed", "path", path, "error", err)
		}
		w.timersMu.Lock()
		delete(w.timers, path)
		w.timersMu.Unlock()
	})
}

func hasDotPrefix(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
