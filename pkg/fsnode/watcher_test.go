package fsnode

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsChangedFolders(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(sub); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{filepath.Join(dir, "a.txt"), filepath.Join(sub, "b.txt"), filepath.Join(sub, "c.txt")} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	seen := map[string]bool{}
	deadline := time.After(5 * time.Second)
	for !seen[dir] || !seen[sub] {
		select {
		case batch := <-w.Changes():
			for _, d := range batch {
				seen[d] = true
			}
		case <-deadline:
			t.Fatalf("expected changes for %s and %s, got %v", dir, sub, seen)
		}
	}
}

func TestWatcherIgnoresUnwatchedFolders(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}
	w.Unwatch(dir)

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case batch := <-w.Changes():
		t.Errorf("expected no changes after unwatch, got %v", batch)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchMissingFolder(t *testing.T) {
	w, err := NewWatcher(0)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()
	if err := w.Watch(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error watching a missing folder")
	}
}
