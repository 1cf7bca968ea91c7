package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, w *Watcher) <-chan []string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []string, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, func(paths []string) { changes <- paths })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})
	return changes
}

func waitChange(t *testing.T, changes <-chan []string) []string {
	t.Helper()
	select {
	case paths := <-changes:
		return paths
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
		return nil
	}
}

func TestNew(t *testing.T) {
	w, err := New(0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	if w.debounce != DefaultDebounce {
		t.Errorf("New(0) debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
}

func TestAddFileReportsWrites(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	other := filepath.Join(dir, "other.yaml")
	if err := os.WriteFile(file, []byte("a: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.AddFile(file); err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	changes := startWatcher(t, w)

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(other, []byte("b: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte("a: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	paths := waitChange(t, changes)
	abs, _ := filepath.Abs(file)
	for _, p := range paths {
		if p != abs {
			t.Errorf("unexpected path in change set: %s", p)
		}
	}
	if len(paths) == 0 {
		t.Error("expected at least one changed path")
	}
}

func TestAddTreeReportsNestedChanges(t *testing.T) {
	root := t.TempDir()
	mesh := filepath.Join(root, "constant", "polyMesh")
	if err := os.MkdirAll(mesh, 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := New(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.AddTree(root); err != nil {
		t.Fatalf("AddTree() error = %v", err)
	}

	w.mu.RLock()
	tracked := w.dirs[mesh]
	w.mu.RUnlock()
	if !tracked {
		t.Error("AddTree() did not track nested directory")
	}

	changes := startWatcher(t, w)
	if err := os.WriteFile(filepath.Join(mesh, "owner"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	paths := waitChange(t, changes)
	if len(paths) == 0 {
		t.Error("expected at least one changed path")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := New(0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestIsSubPath(t *testing.T) {
	tests := []struct {
		path, parent string
		want         bool
	}{
		{"/a/b/c", "/a/b", true},
		{"/a/b", "/a/b", false},
		{"/a/bc", "/a/b", false},
		{"/x", "/a", false},
	}
	for _, tt := range tests {
		if got := isSubPath(tt.path, tt.parent); got != tt.want {
			t.Errorf("isSubPath(%q, %q) = %v, want %v", tt.path, tt.parent, got, tt.want)
		}
	}
}
