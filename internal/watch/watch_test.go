package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, dir string, debounce time.Duration) <-chan string {
	t.Helper()
	got := make(chan string, 16)
	w, err := New(Options{Debounce: debounce}, func(path string) { got <- path })
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Add(dir); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-errc; err != nil {
			t.Errorf("Run returned %v", err)
		}
	})
	return got
}

func expectPath(t *testing.T, got <-chan string, want string) {
	t.Helper()
	select {
	case p := <-got:
		if p != want {
			t.Errorf("expected %s, got %s", want, p)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", want)
	}
}

func expectNone(t *testing.T, got <-chan string, wait time.Duration) {
	t.Helper()
	select {
	case p := <-got:
		t.Errorf("unexpected event for %s", p)
	case <-time.After(wait):
	}
}

func TestWatchDebounce(t *testing.T) {
	dir := t.TempDir()
	got := startWatcher(t, dir, 100*time.Millisecond)

	path := filepath.Join(dir, "model.obj")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("v 0 0 0\n"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	expectPath(t, got, path)
	expectNone(t, got, 300*time.Millisecond)
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	got := startWatcher(t, dir, 20*time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "model.mtl"), []byte("newmtl a\n"), 0644); err != nil {
		t.Fatal(err)
	}
	expectNone(t, got, 200*time.Millisecond)

	upper := filepath.Join(dir, "ROCK.OBJ")
	if err := os.WriteFile(upper, []byte("v 0 0 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	expectPath(t, got, upper)
}

func TestWatchNewDirectory(t *testing.T) {
	dir := t.TempDir()
	got := startWatcher(t, dir, 20*time.Millisecond)

	sub := filepath.Join(dir, "props")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher time to register the new directory.
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(sub, "crate.obj")
	if err := os.WriteFile(path, []byte("v 0 0 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	expectPath(t, got, path)
}

func TestNewErrors(t *testing.T) {
	if _, err := New(Options{}, nil); err == nil {
		t.Error("expected error for nil handler")
	}
	if _, err := New(Options{Pattern: "[bad"}, func(string) {}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestWatchDirectoryMovedIn(t *testing.T) {
	dir := t.TempDir()
	got := startWatcher(t, dir, 20*time.Millisecond)

	// Build the tree outside the watched root, then move it in whole.
	staging := filepath.Join(t.TempDir(), "kit")
	if err := os.MkdirAll(filepath.Join(staging, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staging, "nested", "barrel.obj"), []byte("v 0 0 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staging, "readme.txt"), []byte("props\n"), 0644); err != nil {
		t.Fatal(err)
	}

	moved := filepath.Join(dir, "kit")
	if err := os.Rename(staging, moved); err != nil {
		t.Skipf("rename across temp dirs not supported: %v", err)
	}

	expectPath(t, got, filepath.Join(moved, "nested", "barrel.obj"))
	expectNone(t, got, 200*time.Millisecond)
}
