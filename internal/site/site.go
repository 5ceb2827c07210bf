// Package site builds the document graph described by a sitemap and renders
// it into an output tree.
//
// A Site is the build context of one run: it owns the metadata file cache,
// the stage registry and every Document. Create a fresh Site for each build
// so metadata edits between builds are picked up.
package site

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	foundationerrors "git.home.luguber.info/inful/zensite/internal/foundation/errors"
	"git.home.luguber.info/inful/zensite/internal/logfields"
	"git.home.luguber.info/inful/zensite/internal/metadata"
	"git.home.luguber.info/inful/zensite/internal/metrics"
	"git.home.luguber.info/inful/zensite/internal/render"
)

// DefaultSitemap is the sitemap identifier used when none is given.
const DefaultSitemap = "/SiteMap.html"

// ErrNotDirectory is the cause when the data root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Options configures a Site. Only DataDir is required.
type Options struct {
	DataDir string
	// OutputDir defaults to DataDir + "html".
	OutputDir string
	// SitemapID defaults to DefaultSitemap.
	SitemapID string
	Registry  *render.Registry
	Cache     *metadata.Cache
	Logger    *slog.Logger
	Recorder  metrics.Recorder
	// Jobs > 1 renders documents concurrently.
	Jobs int
}

// Site is one build of a data tree.
type Site struct {
	dataDir   string
	outputDir string
	sitemap   *Sitemap
	registry  *render.Registry
	cache     *metadata.Cache
	logger    *slog.Logger
	recorder  metrics.Recorder
	jobs      int
}

// DefaultOutputDir derives the output root from the data root ("data" ->
// "datahtml"). Trailing separators are trimmed first, so "data/" also gives
// "datahtml" rather than a directory inside the data root.
func DefaultOutputDir(dataDir string) string {
	return strings.TrimRight(dataDir, `/\`) + "html"
}

// New validates the data root, parses the sitemap and links every document
// to its parent.
func New(ctx context.Context, opts Options) (*Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.DataDir == "" {
		return nil, foundationerrors.ConfigError("data directory is required").Build()
	}
	info, err := os.Stat(opts.DataDir)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "data directory does not exist").
			Fatal().
			WithContext("path", opts.DataDir).
			Build()
	}
	if !info.IsDir() {
		return nil, foundationerrors.ConfigError("data directory is not a directory").
			WithCause(ErrNotDirectory).
			WithContext("path", opts.DataDir).
			Build()
	}

	s := &Site{
		dataDir:   filepath.Clean(opts.DataDir),
		outputDir: opts.OutputDir,
		registry:  opts.Registry,
		cache:     opts.Cache,
		logger:    opts.Logger,
		recorder:  opts.Recorder,
		jobs:      max(opts.Jobs, 1),
	}
	if s.outputDir == "" {
		s.outputDir = DefaultOutputDir(opts.DataDir)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.cache == nil {
		s.cache = metadata.NewCache(s.logger)
	}
	if s.registry == nil {
		s.registry = render.NewDefaultRegistry()
	}
	if s.recorder == nil {
		s.recorder = metrics.NoopRecorder{}
	}
	s.registry.SetObserver(s.observeStage)

	sitemapID := opts.SitemapID
	if sitemapID == "" {
		sitemapID = DefaultSitemap
	}
	if s.sitemap, err = newSitemap(s, sitemapID); err != nil {
		return nil, err
	}

	for _, id := range s.sitemap.order {
		doc := s.sitemap.documents[id]
		if parent, ok := doc.Parent(); ok {
			parent.AddSubpage(id)
		}
	}
	return s, nil
}

func (s *Site) observeStage(stage string, d time.Duration, err error) {
	s.recorder.ObserveStageDuration(stage, d)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailed
	}
	s.recorder.IncStageResult(stage, result)
}

func (s *Site) DataDir() string           { return s.dataDir }
func (s *Site) OutputDir() string         { return s.outputDir }
func (s *Site) Sitemap() *Sitemap         { return s.sitemap }
func (s *Site) SitemapIdentifier() string { return s.sitemap.id }
func (s *Site) Cache() *metadata.Cache    { return s.cache }

// Document looks up a document by exact identifier.
func (s *Site) Document(id string) (*Document, bool) {
	doc, ok := s.sitemap.documents[id]
	return doc, ok
}

// Page is Document for render stages.
func (s *Site) Page(id string) (render.Page, bool) {
	doc, ok := s.Document(id)
	if !ok {
		return nil, false
	}
	return doc, true
}

// Identifiers returns the document identifiers in render order.
func (s *Site) Identifiers() []string {
	return append([]string(nil), s.sitemap.order...)
}

// Failure is a document whose render failed without aborting the build.
type Failure struct {
	ID  string
	Err error
}

// Report summarizes one RenderSite run.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Rendered []string
	Skipped  []string
	Failed   []Failure
}

type outcome struct {
	rendered bool
	err      error
}

// RenderSite renders every stale document in manifest order and calls
// notify, in that same order, for each document that was rendered.
//
// A document whose pipeline fails is recorded in the report and the build
// continues; the returned error then joins every such failure. Fatal errors
// abort the build.
func (s *Site) RenderSite(ctx context.Context, notify func(id string)) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Started: time.Now()}
	log := s.logger.With(logfields.RunID(report.RunID))

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return report, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "create output directory").
			Fatal().
			WithContext("path", s.outputDir).
			Build()
	}

	ids := s.sitemap.order
	results := make([]outcome, len(ids))
	done := 0
	emit := func(upTo int) {
		for ; done < upTo; done++ {
			s.collect(log, report, ids[done], results[done], notify)
		}
	}

	var fatal error
	if s.jobs <= 1 {
		for i, id := range ids {
			results[i] = s.renderOne(ctx, id)
			if isFatal(results[i].err) {
				fatal = results[i].err
				break
			}
			emit(i + 1)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.jobs)
		for i, id := range ids {
			g.Go(func() error {
				results[i] = s.renderOne(gctx, id)
				if isFatal(results[i].err) {
					return results[i].err
				}
				return nil
			})
		}
		fatal = g.Wait()
		for i := range results {
			if isFatal(results[i].err) {
				break
			}
			emit(i + 1)
		}
	}

	report.Duration = time.Since(report.Started)
	s.recorder.ObserveBuildDuration(report.Duration)
	s.recorder.SetMetadataFileLoads(s.cache.Loads())

	if fatal != nil {
		if ctx.Err() != nil {
			s.recorder.IncBuildOutcome(metrics.BuildCanceled)
		} else {
			s.recorder.IncBuildOutcome(metrics.BuildFailed)
		}
		log.Error("build aborted", logfields.Error(fatal), logfields.Count(len(report.Rendered)))
		return report, fatal
	}

	log.Info("build finished",
		slog.Int("rendered", len(report.Rendered)),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("failed", len(report.Failed)),
		logfields.DurationMS(float64(report.Duration.Microseconds())/1000))

	if len(report.Failed) > 0 {
		s.recorder.IncBuildOutcome(metrics.BuildPartial)
		errs := make([]error, 0, len(report.Failed))
		for _, f := range report.Failed {
			errs = append(errs, f.Err)
		}
		return report, errors.Join(errs...)
	}
	s.recorder.IncBuildOutcome(metrics.BuildSuccess)
	return report, nil
}

func (s *Site) renderOne(ctx context.Context, id string) outcome {
	rendered, err := s.sitemap.documents[id].Render(ctx)
	return outcome{rendered: rendered, err: err}
}

func (s *Site) collect(log *slog.Logger, report *Report, id string, res outcome, notify func(string)) {
	switch {
	case res.err != nil:
		report.Failed = append(report.Failed, Failure{ID: id, Err: res.err})
		s.recorder.IncDocumentResult(metrics.DocumentFailed)
		log.Warn("document failed", logfields.Document(id), logfields.Error(res.err))
	case res.rendered:
		report.Rendered = append(report.Rendered, id)
		s.recorder.IncDocumentResult(metrics.DocumentRendered)
		log.Debug("document rendered", logfields.Document(id))
		if notify != nil {
			notify(id)
		}
	default:
		report.Skipped = append(report.Skipped, id)
		s.recorder.IncDocumentResult(metrics.DocumentSkipped)
	}
}

// isFatal tells per-document failures, which let the build continue, from
// errors that abort it.
func isFatal(err error) bool {
	if err == nil {
		return false
	}
	ce, ok := foundationerrors.AsClassified(err)
	return !ok || ce.IsFatal()
}
