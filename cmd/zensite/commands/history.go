package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/zensite/internal/foundation/errors"
	"git.home.luguber.info/inful/zensite/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Database  string `arg:"" optional:"" help:"History database (default: history.database from the configuration)"`
	Limit     int    `short:"n" help:"Number of runs to list (default: history.limit)"`
	Documents bool   `short:"d" help:"Also list the rendered and failed documents of each run"`
}

func (h *HistoryCmd) Run(g *Global, _ *CLI) error {
	path := firstNonEmpty(h.Database, g.Config.History.Database)
	if path == "" {
		return errors.ConfigError("no history database configured").
			WithContext("hint", "pass a database path or set history.database").
			Build()
	}
	limit := h.Limit
	if limit < 1 {
		limit = g.Config.History.Limit
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return PrintHistory(context.Background(), g.Stdout, store, limit, h.Documents)
}

// PrintHistory writes the most recent runs as a table, newest first.
func PrintHistory(ctx context.Context, w io.Writer, store *history.Store, limit int, documents bool) error {
	runs, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "No builds recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tOUTCOME\tRENDERED\tSKIPPED\tFAILED\tDATADIR")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			shortID(r.ID), r.Started.Format(time.DateTime), r.Duration().Round(time.Millisecond),
			r.Outcome, r.Rendered, r.Skipped, r.Failed, r.DataDir)
		if !documents {
			continue
		}
		docs, err := store.Documents(ctx, r.ID)
		if err != nil {
			return err
		}
		for _, d := range docs {
			line := "\t  " + d.Result + " " + d.Document
			if d.Error != "" {
				line += ": " + d.Error
			}
			_, _ = fmt.Fprintln(tw, line)
		}
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
