package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/zensite/internal/config"
	"git.home.luguber.info/inful/zensite/internal/site"
)

// Global is the state shared by every subcommand once configuration is loaded.
type Global struct {
	Logger *slog.Logger
	Config *config.Config
	Stdout io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: ./zensite.yaml when present)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Render every stale document listed in a sitemap"`
	Watch   WatchCmd   `cmd:"" help:"Build a site, then rebuild it whenever its sources change"`
	History HistoryCmd `cmd:"" help:"List recent builds recorded in the history database"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// Setup loads .env files and the configuration, then replaces the bootstrap
// logger with the configured one.
func (c *CLI) Setup(stdout io.Writer) (*Global, error) {
	if _, err := config.LoadEnvFiles(".env", ".env.local"); err != nil {
		return nil, err
	}
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(os.Stderr, cfg.Logging, c.Verbose)
	slog.SetDefault(logger)
	return &Global{Logger: logger, Config: cfg, Stdout: stdout}, nil
}

// NewLogger builds the process logger. -v always wins over the configured level.
func NewLogger(w io.Writer, lc config.LoggingConfig, verbose bool) *slog.Logger {
	level := lc.Level.Slog()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ResolveOutputDir determines the output directory.
// Priority: CLI flag > config output > data directory + "html"
func ResolveOutputDir(cliOutput string, cfg *config.Config, dataDir string) string {
	if cliOutput != "" {
		return cliOutput
	}
	if cfg.Output != "" {
		return cfg.Output
	}
	return site.DefaultOutputDir(dataDir)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
