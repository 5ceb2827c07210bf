package logfields

import "log/slog"

// Canonical log field names shared by the build, the watcher and the CLI.
const (
	KeyRunID      = "run_id"
	KeyDocument   = "document"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyLine       = "line"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Document(id string) slog.Attr     { return slog.String(KeyDocument, id) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Line(n int) slog.Attr             { return slog.Int(KeyLine, n) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
