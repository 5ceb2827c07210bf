package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/zensite/internal/config"
	foundationerrors "git.home.luguber.info/inful/zensite/internal/foundation/errors"
	"git.home.luguber.info/inful/zensite/internal/history"
	"git.home.luguber.info/inful/zensite/internal/logfields"
	"git.home.luguber.info/inful/zensite/internal/metrics"
	"git.home.luguber.info/inful/zensite/internal/site"
	"git.home.luguber.info/inful/zensite/internal/version"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Target `embed:""`
}

// Target is the site a command builds. Flags override configuration values.
type Target struct {
	DataDir     string `arg:"" name:"datadir" help:"Directory holding page sources and metadata files"`
	Sitemap     string `arg:"" optional:"" name:"sitemap" help:"Identifier of the sitemap document (default: /SiteMap.html)"`
	Output      string `short:"o" help:"Output directory (default: DATADIR followed by \"html\")"`
	Jobs        int    `short:"j" help:"Number of documents rendered concurrently"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this textfile after each build"`
	History     string `help:"Record each build in this SQLite database"`
}

func (b *BuildCmd) Run(g *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, _ = fmt.Fprintln(g.Stdout, version.Banner())
	_, err := NewBuilder(g, b.Resolve(g.Config)).Build(ctx)
	return err
}

// Settings is a Target merged with configuration and defaults.
type Settings struct {
	DataDir     string
	Sitemap     string
	Output      string
	Jobs        int
	MetricsFile string
	History     string
}

func (t Target) Resolve(cfg *config.Config) Settings {
	jobs := t.Jobs
	if jobs < 1 {
		jobs = cfg.Jobs
	}
	return Settings{
		DataDir:     t.DataDir,
		Sitemap:     firstNonEmpty(t.Sitemap, cfg.Sitemap, site.DefaultSitemap),
		Output:      ResolveOutputDir(t.Output, cfg, t.DataDir),
		Jobs:        jobs,
		MetricsFile: firstNonEmpty(t.MetricsFile, cfg.Metrics.Textfile),
		History:     firstNonEmpty(t.History, cfg.History.Database),
	}
}

// Builder runs one complete build per call: a fresh Site, metadata cache and
// metrics registry each time, so edits between builds are always seen.
type Builder struct {
	g        *Global
	settings Settings
}

func NewBuilder(g *Global, settings Settings) *Builder {
	return &Builder{g: g, settings: settings}
}

func (b *Builder) Settings() Settings { return b.settings }

// Build renders the site, then writes the metrics textfile and the history
// record when configured. Failing to write either is logged, not returned.
func (b *Builder) Build(ctx context.Context) (*site.Report, error) {
	recorder := metrics.NewPrometheusRecorder(nil)
	started := time.Now()

	report, err := b.render(ctx, recorder)

	if path := b.settings.MetricsFile; path != "" {
		if werr := recorder.WriteTextfile(path); werr != nil {
			b.g.Logger.Warn("cannot write metrics textfile", logfields.Path(path), logfields.Error(werr))
		}
	}
	if path := b.settings.History; path != "" {
		if herr := b.record(ctx, path, started, report, err); herr != nil {
			b.g.Logger.Warn("cannot record build history", logfields.Path(path), logfields.Error(herr))
		}
	}
	return report, err
}

func (b *Builder) render(ctx context.Context, recorder metrics.Recorder) (*site.Report, error) {
	s, err := site.New(ctx, site.Options{
		DataDir:   b.settings.DataDir,
		OutputDir: b.settings.Output,
		SitemapID: b.settings.Sitemap,
		Logger:    b.g.Logger,
		Recorder:  recorder,
		Jobs:      b.settings.Jobs,
	})
	if err != nil {
		recorder.IncBuildOutcome(Outcome(ctx, err))
		return nil, err
	}
	_, _ = fmt.Fprintln(b.g.Stdout, "Generating website...")
	return s.RenderSite(ctx, func(id string) {
		_, _ = fmt.Fprintln(b.g.Stdout, id)
	})
}

func (b *Builder) record(ctx context.Context, path string, started time.Time, report *site.Report, buildErr error) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run := history.Run{
		ID:       uuid.NewString(),
		DataDir:  b.settings.DataDir,
		Started:  started,
		Finished: time.Now(),
		Outcome:  string(Outcome(ctx, buildErr)),
	}
	if buildErr != nil {
		run.Error = buildErr.Error()
	}
	var docs []history.DocumentResult
	if report != nil {
		run.ID = report.RunID
		run.Rendered, run.Skipped, run.Failed = len(report.Rendered), len(report.Skipped), len(report.Failed)
		for _, id := range report.Rendered {
			docs = append(docs, history.DocumentResult{Document: id, Result: string(metrics.DocumentRendered)})
		}
		for _, f := range report.Failed {
			docs = append(docs, history.DocumentResult{Document: f.ID, Result: string(metrics.DocumentFailed), Error: f.Err.Error()})
		}
	}
	// The build may have been interrupted; the record must still be written.
	return store.Record(context.WithoutCancel(ctx), run, docs)
}

// Outcome classifies the error returned by a build.
func Outcome(ctx context.Context, err error) metrics.BuildOutcome {
	if err == nil {
		return metrics.BuildSuccess
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return metrics.BuildCanceled
	}
	if ce, ok := foundationerrors.AsClassified(err); ok && !ce.IsFatal() {
		return metrics.BuildPartial
	}
	return metrics.BuildFailed
}
