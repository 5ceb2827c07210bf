package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/zensite/internal/config"
	foundationerrors "git.home.luguber.info/inful/zensite/internal/foundation/errors"
	"git.home.luguber.info/inful/zensite/internal/history"
	"git.home.luguber.info/inful/zensite/internal/metrics"
)

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	data := filepath.Join(t.TempDir(), "data")
	for rel, content := range files {
		p := filepath.Join(data, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return data
}

func testGlobal(stdout io.Writer) *Global {
	return &Global{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: config.Default(),
		Stdout: stdout,
	}
}

func TestResolve(t *testing.T) {
	cfg := config.Default()

	s := Target{DataDir: "site"}.Resolve(cfg)
	assert.Equal(t, Settings{DataDir: "site", Sitemap: "/SiteMap.html", Output: "sitehtml", Jobs: 1}, s)

	cfg.Output = "/srv/www"
	cfg.Jobs = 4
	cfg.Metrics.Textfile = "m.prom"
	cfg.History.Database = "h.db"
	s = Target{DataDir: "site/"}.Resolve(cfg)
	assert.Equal(t, Settings{DataDir: "site/", Sitemap: "/SiteMap.html", Output: "/srv/www", Jobs: 4, MetricsFile: "m.prom", History: "h.db"}, s)

	s = Target{DataDir: "site", Sitemap: "/map.html", Output: "out", Jobs: 2, MetricsFile: "x.prom", History: "x.db"}.Resolve(cfg)
	assert.Equal(t, Settings{DataDir: "site", Sitemap: "/map.html", Output: "out", Jobs: 2, MetricsFile: "x.prom", History: "x.db"}, s)
}

func TestBuilderWritesMetricsAndHistory(t *testing.T) {
	data := writeSite(t, map[string]string{
		"SiteMap":      "/index.html\n/b.html\n",
		"metadata.txt": "renderers = \"TextToHtmlRenderer\"\n",
		"index":        "Welcome\n",
		"b":            "Bee\n",
	})
	dir := t.TempDir()
	var stdout bytes.Buffer
	settings := Target{
		DataDir:     data,
		MetricsFile: filepath.Join(dir, "zensite.prom"),
		History:     filepath.Join(dir, "history.db"),
	}.Resolve(config.Default())

	report, err := NewBuilder(testGlobal(&stdout), settings).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Generating website...\n/index.html\n/b.html\n", stdout.String())
	assert.Len(t, report.Rendered, 2)

	out, err := os.ReadFile(filepath.Join(data+"html", "b.html"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<p>Bee</p>")

	prom, err := os.ReadFile(settings.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `zensite_build_outcomes_total{outcome="success"} 1`)
	assert.Contains(t, string(prom), `zensite_documents_total{result="rendered"} 2`)

	store, err := history.Open(settings.History)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.RunID, runs[0].ID)
	assert.Equal(t, "success", runs[0].Outcome)
	assert.Equal(t, 2, runs[0].Rendered)
	assert.Equal(t, data, runs[0].DataDir)

	docs, err := store.Documents(context.Background(), runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []history.DocumentResult{
		{Document: "/index.html", Result: "rendered"},
		{Document: "/b.html", Result: "rendered"},
	}, docs)
}

func TestBuilderRecordsPartialBuild(t *testing.T) {
	data := writeSite(t, map[string]string{
		"SiteMap": "/a.html\n/bad.html\n",
		"a":       "a\n",
		"bad":     "# renderers = \"NoSuchRenderer\"\nbad\n",
	})
	db := filepath.Join(t.TempDir(), "history.db")
	var stdout bytes.Buffer
	settings := Target{DataDir: data, History: db}.Resolve(config.Default())

	report, err := NewBuilder(testGlobal(&stdout), settings).Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, metrics.BuildPartial, Outcome(context.Background(), err))
	assert.Equal(t, []string{"/a.html"}, report.Rendered)

	store, err := history.Open(db)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "partial", runs[0].Outcome)
	assert.Equal(t, 1, runs[0].Failed)
	assert.Contains(t, runs[0].Error, "NoSuchRenderer")

	docs, err := store.Documents(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "failed", docs[1].Result)
	assert.Equal(t, "/bad.html", docs[1].Document)
}

func TestBuilderMissingDataDir(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	settings := Target{DataDir: filepath.Join(t.TempDir(), "missing"), History: db}.Resolve(config.Default())

	report, err := NewBuilder(testGlobal(io.Discard), settings).Build(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, foundationerrors.CategoryConfig, foundationerrors.GetCategory(err))

	store, err := history.Open(db)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "failed", runs[0].Outcome)
	assert.NotEmpty(t, runs[0].ID)
}

func TestOutcome(t *testing.T) {
	ctx := context.Background()
	canceled, cancel := context.WithCancel(ctx)
	cancel()

	partial := errors.Join(
		foundationerrors.RenderError("stage failed").Build(),
		foundationerrors.RenderError("stage failed").Build(),
	)
	assert.Equal(t, metrics.BuildSuccess, Outcome(ctx, nil))
	assert.Equal(t, metrics.BuildCanceled, Outcome(canceled, errors.New("boom")))
	assert.Equal(t, metrics.BuildCanceled, Outcome(ctx, context.Canceled))
	assert.Equal(t, metrics.BuildPartial, Outcome(ctx, partial))
	assert.Equal(t, metrics.BuildFailed, Outcome(ctx, foundationerrors.FileSystemError("disk full").Build()))
	assert.Equal(t, metrics.BuildFailed, Outcome(ctx, errors.New("boom")))
}

func TestPrintHistory(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	var out bytes.Buffer
	require.NoError(t, PrintHistory(context.Background(), &out, store, 5, false))
	assert.Equal(t, "No builds recorded.\n", out.String())

	require.NoError(t, store.Record(context.Background(), history.Run{
		ID:       "0123456789abcdef",
		DataDir:  "data",
		Rendered: 1,
		Failed:   1,
		Outcome:  "partial",
	}, []history.DocumentResult{
		{Document: "/a.html", Result: "rendered"},
		{Document: "/b.html", Result: "failed", Error: "stage failed"},
	}))

	out.Reset()
	require.NoError(t, PrintHistory(context.Background(), &out, store, 5, true))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "RUN "))
	assert.True(t, strings.HasPrefix(lines[1], "01234567 "))
	assert.Contains(t, lines[1], "partial")
	assert.Contains(t, lines[2], "rendered /a.html")
	assert.Contains(t, lines[3], "failed /b.html: stage failed")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.LoggingConfig{Level: config.LogLevelWarn, Format: config.LogFormatJSON}, false)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	logger = NewLogger(&buf, config.LoggingConfig{Level: config.LogLevelError, Format: config.LogFormatText}, true)
	logger.Debug("verbose wins")
	assert.Contains(t, buf.String(), "msg=\"verbose wins\"")
}

func TestNewSiteWatcherIgnoresOutput(t *testing.T) {
	data := writeSite(t, map[string]string{"SiteMap": "\n"})
	settings := Target{
		DataDir:     data,
		Output:      filepath.Join(data, "out"),
		History:     filepath.Join(data, "history.db"),
		MetricsFile: filepath.Join(data, "zensite.prom"),
	}.Resolve(config.Default())

	w, err := NewSiteWatcher(NewBuilder(testGlobal(io.Discard), settings), 0)
	require.NoError(t, err)
	require.NotNil(t, w)

	for _, p := range []string{
		filepath.Join(data, "out", "index.html"),
		filepath.Join(data, "history.db-journal"),
		filepath.Join(data, "history.db-wal"),
		filepath.Join(data, "zensite.prom"),
		filepath.Join(data, "zensite.prom4021"),
	} {
		abs, err := filepath.Abs(p)
		require.NoError(t, err)
		assert.True(t, w.Ignored(abs), p)
	}
	assert.False(t, w.Ignored(filepath.Join(data, "index")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Run(ctx))
}
