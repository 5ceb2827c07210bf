package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}

// ParseLogLevel accepts a level name in any case.
func ParseLogLevel(raw string) (LogLevel, error) {
	return lookup(logLevels, raw)
}

// Slog maps the level onto slog.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormats = map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}

func ParseLogFormat(raw string) (LogFormat, error) {
	return lookup(logFormats, raw)
}

func lookup[T ~string](values map[string]T, raw string) (T, error) {
	if v, ok := values[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return v, nil
	}
	valid := make([]string, 0, len(values))
	for k := range values {
		valid = append(valid, k)
	}
	slices.Sort(valid)
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, valid)
}
