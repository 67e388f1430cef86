package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dir string) (*Watcher, <-chan []string) {
	t.Helper()
	w, err := New([]string{dir}, 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []string, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(_ context.Context, changed []string) error {
			changes <- changed
			return nil
		})
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return w, changes
}

func expectChange(t *testing.T, changes <-chan []string) []string {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("no change delivered")
		return nil
	}
}

func expectQuiet(t *testing.T, changes <-chan []string) {
	t.Helper()
	select {
	case c := <-changes:
		t.Fatalf("unexpected change: %v", c)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherDeliversDebouncedBatch(t *testing.T) {
	dir := t.TempDir()
	_, changes := startWatcher(t, dir)

	a := filepath.Join(dir, "a.go")
	b := filepath.Join(dir, "b.go")
	require.NoError(t, os.WriteFile(a, []byte("package x\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("package x\n"), 0o644))

	got := expectChange(t, changes)
	assert.Contains(t, got, a)
}

func TestWatcherIgnoresOwnWritesAndOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w, changes := startWatcher(t, dir)

	own := filepath.Join(dir, "user_builder.go")
	w.MarkOwnWrites([]string{own})
	require.NoError(t, os.WriteFile(own, []byte("package x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user_test.go"), []byte("package x\n"), 0o644))

	expectQuiet(t, changes)
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	_, changes := startWatcher(t, dir)

	sub := filepath.Join(dir, "models")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// give the watcher time to add the new directory
	time.Sleep(200 * time.Millisecond)

	file := filepath.Join(sub, "order.go")
	require.NoError(t, os.WriteFile(file, []byte("package models\n"), 0o644))

	assert.Equal(t, []string{file}, expectChange(t, changes))
}

func TestNewSkipsHiddenAndVendorDirs(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{".git", "vendor/pkg", "testdata", "models"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, d), 0o755))
	}
	w, err := New([]string{dir}, time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	assert.ElementsMatch(t, []string{dir, filepath.Join(dir, "models")}, w.fsw.WatchList())
}
