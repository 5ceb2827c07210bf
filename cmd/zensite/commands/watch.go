package commands

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/zensite/internal/logfields"
	"git.home.luguber.info/inful/zensite/internal/version"
	"git.home.luguber.info/inful/zensite/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Target `embed:""`

	Debounce time.Duration `help:"Quiet period after the last change before rebuilding (default: watch.debounce)"`
}

func (w *WatchCmd) Run(g *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, _ = fmt.Fprintln(g.Stdout, version.Banner())
	builder := NewBuilder(g, w.Resolve(g.Config))

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = g.Config.Watch.DebounceDuration()
	}
	watcher, err := NewSiteWatcher(builder, debounce)
	if err != nil {
		return err
	}

	// A broken page should not stop the watcher; the next save retries it.
	if _, err := builder.Build(ctx); err != nil && ctx.Err() == nil {
		g.Logger.Warn("initial build failed", logfields.Error(err))
	}

	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	g.Logger.Info("watch stopped")
	return nil
}

// NewSiteWatcher watches the builder's data directory. The output directory,
// the history database and the metrics textfile are ignored when they live
// inside the data directory, so a build's own writes do not trigger another
// build.
func NewSiteWatcher(b *Builder, debounce time.Duration) (*watch.Watcher, error) {
	s := b.Settings()
	var ignore []string
	if out, err := filepath.Abs(s.Output); err == nil {
		ignore = append(ignore, out)
	}
	for _, p := range []string{s.History, s.MetricsFile} {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			ignore = append(ignore, abs)
		}
	}
	build := func(ctx context.Context) error {
		_, err := b.Build(ctx)
		return err
	}
	return watch.New(s.DataDir, debounce, build, b.g.Logger, ignore...)
}
