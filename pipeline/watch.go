package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for more changes before
// rebuilding.
const DefaultDebounce = 500 * time.Millisecond

// Watcher rebuilds the knowledge base when source documents change. Every
// relevant change triggers a full rebuild; there is no incremental graph
// maintenance.
type Watcher struct {
	pipeline   *Pipeline
	dirs       []string
	debounce   time.Duration
	extensions map[string]bool
	logger     *slog.Logger
	watcher    *fsnotify.Watcher
}

// NewWatcher creates a Watcher over the given directories.
func NewWatcher(p *Pipeline, dirs []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	extensions := make(map[string]bool)
	for _, ext := range p.cfg.Source.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = true
	}
	if len(extensions) == 0 {
		extensions[".md"] = true
	}

	return &Watcher{
		pipeline:   p,
		dirs:       dirs,
		debounce:   debounce,
		extensions: extensions,
		logger:     logger,
		watcher:    fsw,
	}, nil
}

// Run blocks, rebuilding on debounced changes until the context ends.
func (w *Watcher) Run(ctx context.Context, opts Options) error {
	defer w.watcher.Close()

	for _, dir := range w.dirs {
		if err := w.addWatchesRecursive(dir); err != nil {
			return err
		}
	}
	w.logger.Info("Watching for changes", "dirs", w.dirs, "debounce", w.debounce)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Source changed", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-fire:
			timer = nil
			fire = nil
			if _, err := w.pipeline.Run(ctx, opts); err != nil {
				// Keep watching; the next change may fix the input.
				w.logger.Error("Rebuild failed", "error", err)
			}
		}
	}
}

// relevant filters events to recognized documents, and picks up newly
// created directories.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addWatchesRecursive(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
			return false
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return w.extensions[filepath.Ext(event.Name)]
}

// addWatchesRecursive watches every directory under root, skipping hidden
// directories and node_modules.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if base == "node_modules" || (strings.HasPrefix(base, ".") && base != "." && path != root) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}
