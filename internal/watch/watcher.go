// Package watch rebuilds a site whenever its data tree changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/zensite/internal/logfields"
)

// BuildFunc runs one build. Errors are logged and watching continues.
type BuildFunc func(ctx context.Context) error

// Watcher watches a directory tree recursively and calls a BuildFunc once
// changes have been quiet for the debounce period.
type Watcher struct {
	root     string
	ignore   []string
	debounce time.Duration
	build    BuildFunc
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// New creates a watcher for root. Paths under any of ignore (typically the
// output directory) never trigger a build.
func New(root string, debounce time.Duration, build BuildFunc, logger *slog.Logger, ignore ...string) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		root:     absRoot,
		debounce: debounce,
		build:    build,
		logger:   logger,
		watcher:  fw,
	}
	for _, p := range ignore {
		if abs, err := filepath.Abs(p); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}
	return w, nil
}

// Run watches until ctx is done. It does not build on start.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.logger.Info("Watching for changes", logfields.Path(w.root), slog.Duration("debounce", w.debounce))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if event.Op.Has(fsnotify.Create) {
				// New directories must be watched explicitly.
				_ = w.addTree(event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.runBuild(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) runBuild(ctx context.Context) {
	start := time.Now()
	if err := w.build(ctx); err != nil {
		w.logger.Error("Rebuild failed", logfields.Error(err))
		return
	}
	w.logger.Info("Rebuild finished", logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return !w.Ignored(event.Name)
}

// Ignored reports whether a change to path is skipped: dotfiles, editor
// backups, anything under an ignored path, and siblings whose name starts
// with an ignored file's name (SQLite journals, textfile temp files).
func (w *Watcher) Ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return true
	}
	dir := filepath.Dir(path)
	for _, ig := range w.ignore {
		if path == ig || strings.HasPrefix(path, ig+string(filepath.Separator)) {
			return true
		}
		if dir == filepath.Dir(ig) && strings.HasPrefix(base, filepath.Base(ig)) {
			return true
		}
	}
	return false
}

// addTree watches dir and every directory below it. Non-directories are
// ignored.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.Ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
}
