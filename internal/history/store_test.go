package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := t.Context()
	base := time.UnixMilli(1_700_000_000_000)

	for i, id := range []string{"run-1", "run-2", "run-3"} {
		run := Run{
			ID:       id,
			DataDir:  "data",
			Started:  base.Add(time.Duration(i) * time.Minute),
			Finished: base.Add(time.Duration(i)*time.Minute + 1500*time.Millisecond),
			Rendered: i,
			Outcome:  "success",
		}
		if err := store.Record(ctx, run, nil); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-3" || runs[1].ID != "run-2" {
		t.Errorf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
	if runs[0].Rendered != 2 {
		t.Errorf("expected rendered=2, got %d", runs[0].Rendered)
	}
	if got := runs[0].Duration(); got != 1500*time.Millisecond {
		t.Errorf("expected duration 1.5s, got %v", got)
	}
	if !runs[0].Started.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("started not preserved: %v", runs[0].Started)
	}
}

func TestDocumentsOfRun(t *testing.T) {
	store := openStore(t)
	ctx := t.Context()

	want := []DocumentResult{
		{Document: "/index.html", Result: "rendered"},
		{Document: "/bad.html", Result: "failed", Error: "stage not implemented"},
	}
	run := Run{ID: "r", DataDir: "data", Started: time.Now(), Finished: time.Now(), Rendered: 1, Failed: 1, Outcome: "partial"}
	if err := store.Record(ctx, run, want); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Record(ctx, Run{ID: "other", Started: time.Now(), Finished: time.Now(), Outcome: "success"},
		[]DocumentResult{{Document: "/x.html", Result: "rendered"}}); err != nil {
		t.Fatalf("record other: %v", err)
	}

	got, err := store.Documents(ctx, "r")
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("documents mismatch (-want +got):\n%s", diff)
	}
}

func TestDuplicateRunIsRejected(t *testing.T) {
	store := openStore(t)
	ctx := t.Context()
	run := Run{ID: "same", Started: time.Now(), Finished: time.Now(), Outcome: "success"}
	if err := store.Record(ctx, run, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	err := store.Record(ctx, run, []DocumentResult{{Document: "/a.html", Result: "rendered"}})
	if !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed, got %v", err)
	}
	docs, err := store.Documents(ctx, "same")
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("failed transaction left %d document rows", len(docs))
	}
}

func TestPersistentStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Record(t.Context(), Run{ID: "p", Started: time.Now(), Finished: time.Now(), Outcome: "success"}, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	runs, err := reopened.Recent(t.Context(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "p" {
		t.Fatalf("expected the recorded run after reopen, got %+v", runs)
	}
}
