package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string, ignore ...string) (<-chan struct{}, *atomic.Int32) {
	t.Helper()
	builds := make(chan struct{}, 16)
	var count atomic.Int32
	build := func(context.Context) error {
		count.Add(1)
		builds <- struct{}{}
		return nil
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := New(root, 50*time.Millisecond, build, logger, ignore...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	// Give the watcher time to register the tree.
	time.Sleep(100 * time.Millisecond)
	return builds, &count
}

func waitBuild(t *testing.T, builds <-chan struct{}) {
	t.Helper()
	select {
	case <-builds:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a rebuild")
	}
}

func TestRebuildOnChange(t *testing.T) {
	root := t.TempDir()
	builds, _ := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "index"), []byte("x"), 0o644))
	waitBuild(t, builds)
}

func TestBurstIsDebounced(t *testing.T) {
	root := t.TempDir()
	builds, count := startWatcher(t, root)

	for i := range 5 {
		require.NoError(t, os.WriteFile(filepath.Join(root, "f"), []byte{byte(i)}, 0o644))
		time.Sleep(5 * time.Millisecond)
	}
	waitBuild(t, builds)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), count.Load())
}

func TestNewDirectoriesAreWatched(t *testing.T) {
	root := t.TempDir()
	builds, _ := startWatcher(t, root)

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	waitBuild(t, builds)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "page"), []byte("x"), 0o644))
	waitBuild(t, builds)
}

func TestIgnoredPaths(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "html")
	require.NoError(t, os.Mkdir(out, 0o755))
	builds, count := startWatcher(t, root, out)

	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".swp"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), count.Load())

	require.NoError(t, os.WriteFile(filepath.Join(root, "page"), []byte("x"), 0o644))
	waitBuild(t, builds)
}

func TestIgnoredSideFiles(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, "history.db")
	prom := filepath.Join(root, "zensite.prom")
	w, err := New(root, time.Second, func(context.Context) error { return nil }, nil, db, prom)
	require.NoError(t, err)

	for _, p := range []string{db, db + "-journal", db + "-wal", db + "-shm", prom, prom + "123456"} {
		assert.True(t, w.Ignored(p), p)
	}
	for _, p := range []string{filepath.Join(root, "page"), filepath.Join(root, "sub", "history.db-wal")} {
		assert.False(t, w.Ignored(p), p)
	}
}

func TestHistoryJournalDoesNotTriggerBuild(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, "history.db")
	builds, count := startWatcher(t, root, db)

	require.NoError(t, os.WriteFile(db, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(db+"-journal", []byte("x"), 0o644))
	require.NoError(t, os.Remove(db+"-journal"))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), count.Load())

	require.NoError(t, os.WriteFile(filepath.Join(root, "page"), []byte("x"), 0o644))
	waitBuild(t, builds)
}
