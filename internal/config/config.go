package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/zensite/internal/foundation/errors"
)

// DefaultFile is read from the working directory when no --config is given.
const DefaultFile = "zensite.yaml"

const (
	defaultSitemap  = "/SiteMap.html"
	defaultDebounce = "500ms"
	defaultHistory  = 20
)

// Config represents the application configuration
type Config struct {
	// Output overrides the output root (default: data dir + "html").
	Output  string        `yaml:"output,omitempty"`
	Sitemap string        `yaml:"sitemap,omitempty"`
	Jobs    int           `yaml:"jobs,omitempty"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	History HistoryConfig `yaml:"history"`
	Watch   WatchConfig   `yaml:"watch"`
}

type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// MetricsConfig enables writing Prometheus metrics to a textfile after
// every build.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// HistoryConfig enables the SQLite build history.
type HistoryConfig struct {
	Database string `yaml:"database,omitempty"`
	// Limit is how many runs `zensite history` lists.
	Limit int `yaml:"limit,omitempty"`
}

type WatchConfig struct {
	// Debounce is the quiet period after the last change before a rebuild.
	Debounce string `yaml:"debounce,omitempty"`
}

// DebounceDuration returns the parsed debounce. Validate guarantees it parses.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 0
	}
	return d
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from path. An empty path reads DefaultFile when
// it exists and falls back to defaults otherwise. `${VAR}` references are
// expanded and ZENSITE_* environment variables override file values.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, cfg); err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid configuration file").
				Fatal().
				WithContext("path", path).
				Build()
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "configuration file not found").
			Fatal().
			WithContext("path", path).
			Build()
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(data))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadEnvFiles loads .env style files into the process environment. Missing
// files are skipped and variables already set are not overridden.
func LoadEnvFiles(paths ...string) ([]string, error) {
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid env file").
				Fatal().
				WithContext("path", p).
				Build()
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"ZENSITE_OUTPUT":         &c.Output,
		"ZENSITE_SITEMAP":        &c.Sitemap,
		"ZENSITE_METRICS_FILE":   &c.Metrics.Textfile,
		"ZENSITE_HISTORY_DB":     &c.History.Database,
		"ZENSITE_WATCH_DEBOUNCE": &c.Watch.Debounce,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("ZENSITE_LOG_LEVEL"); ok {
		c.Logging.Level = LogLevel(v)
	}
	if v, ok := os.LookupEnv("ZENSITE_LOG_FORMAT"); ok {
		c.Logging.Format = LogFormat(v)
	}
	if v, ok := os.LookupEnv("ZENSITE_JOBS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return foundationerrors.ConfigError("ZENSITE_JOBS must be an integer").
				WithCause(err).
				WithContext("value", v).
				Build()
		}
		c.Jobs = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Sitemap == "" {
		c.Sitemap = defaultSitemap
	}
	if c.Jobs == 0 {
		c.Jobs = 1
	}
	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
	if c.History.Limit == 0 {
		c.History.Limit = defaultHistory
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = defaultDebounce
	}
}

// Validate checks field values and canonicalizes the logging enums.
func (c *Config) Validate() error {
	level, err := ParseLogLevel(string(c.Logging.Level))
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid logging.level").Fatal().Build()
	}
	format, err := ParseLogFormat(string(c.Logging.Format))
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid logging.format").Fatal().Build()
	}
	c.Logging.Level, c.Logging.Format = level, format

	if c.Jobs < 1 {
		return foundationerrors.ConfigError(fmt.Sprintf("jobs must be at least 1, got %d", c.Jobs)).Build()
	}
	if c.History.Limit < 1 {
		return foundationerrors.ConfigError(fmt.Sprintf("history.limit must be at least 1, got %d", c.History.Limit)).Build()
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid watch.debounce").Fatal().Build()
	}
	if d < 0 {
		return foundationerrors.ConfigError("watch.debounce must not be negative").Build()
	}
	return nil
}
