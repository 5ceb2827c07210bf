package metadata

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	foundationerrors "git.home.luguber.info/inful/zensite/internal/foundation/errors"
	"git.home.luguber.info/inful/zensite/internal/literal"
	"git.home.luguber.info/inful/zensite/internal/logfields"
)

// maxLineSize bounds a single metadata or content line.
const maxLineSize = 1 << 20

// Cache holds parsed metadata files keyed by absolute path. Entries are
// written once and never invalidated, so a Cache must not outlive the build
// run that created it.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*literal.Map
	group   singleflight.Group
	loads   atomic.Int64
	logger  *slog.Logger
}

// NewCache creates an empty cache. Parse warnings go to logger, or to the
// default logger when nil.
func NewCache(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries: make(map[string]*literal.Map),
		logger:  logger,
	}
}

// Load returns the parsed content of file, parsing it on first use only.
// Concurrent first loads of the same path parse it once. The returned map is
// shared and must be treated as read-only.
func (c *Cache) Load(file string) (*literal.Map, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "resolve metadata path").
			WithContext("file", file).
			Build()
	}

	if entry, ok := c.lookup(abs); ok {
		return entry, nil
	}

	v, err, _ := c.group.Do(abs, func() (any, error) {
		if entry, ok := c.lookup(abs); ok {
			return entry, nil
		}
		entry, err := c.parseFile(abs)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[abs] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*literal.Map), nil
}

// Loads reports how many files have actually been parsed.
func (c *Cache) Loads() int64 {
	return c.loads.Load()
}

// Len reports the number of cached files.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) lookup(abs string) (*literal.Map, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[abs]
	return entry, ok
}

func (c *Cache) parseFile(path string) (*literal.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "open metadata file").
			Fatal().
			WithContext("file", path).
			Build()
	}
	defer func() { _ = f.Close() }()

	c.loads.Add(1)
	entry := literal.NewMap()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, matched, err := ParseAssignment(line)
		switch {
		case !matched:
			c.warn("cannot parse line", path, lineNo, line, nil)
		case err != nil:
			c.warn("cannot parse literal", path, lineNo, line, err)
		default:
			entry.Set(key, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "read metadata file").
			Fatal().
			WithContext("file", path).
			Build()
	}
	return entry, nil
}

func (c *Cache) warn(msg, file string, line int, text string, err error) {
	attrs := []slog.Attr{logfields.File(file), logfields.Line(line), slog.String("text", text)}
	if err != nil {
		attrs = append(attrs, logfields.Error(err))
	}
	c.logger.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
}
