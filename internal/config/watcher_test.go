// ABOUTME: Tests for the fsnotify config watcher
// ABOUTME: Validates change detection, unrelated-file filtering, and stop behavior

package config

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_DetectsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "label: a\n")

	var called atomic.Int32
	w, err := NewWatcher([]string{path}, func() { called.Add(1) })
	if err != nil {
		t.Fatal(err)
	}
	w.SetDebounce(20 * time.Millisecond)
	w.Start()
	defer w.Stop()

	writeFile(t, path, "label: b\n")

	if !waitFor(func() bool { return called.Load() > 0 }, 2*time.Second) {
		t.Error("expected onChange after file modification")
	}
}

func TestWatcher_DetectsCreation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	var called atomic.Int32
	w, err := NewWatcher([]string{path}, func() { called.Add(1) })
	if err != nil {
		t.Fatal(err)
	}
	w.SetDebounce(20 * time.Millisecond)
	w.Start()
	defer w.Stop()

	writeFile(t, path, "label = \"x\"\n")

	if !waitFor(func() bool { return called.Load() > 0 }, 2*time.Second) {
		t.Error("expected onChange after file creation")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "label: a\n")

	var called atomic.Int32
	w, err := NewWatcher([]string{path}, func() { called.Add(1) })
	if err != nil {
		t.Fatal(err)
	}
	w.SetDebounce(20 * time.Millisecond)
	w.Start()
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "notes.txt"), "unrelated")
	time.Sleep(200 * time.Millisecond)

	if called.Load() != 0 {
		t.Errorf("onChange called %d times for an unrelated file", called.Load())
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	w, err := NewWatcher([]string{path}, func() {})
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	w.Start()
	w.Stop()
	w.Stop()
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	w, err := NewWatcher([]string{path}, func() {})
	if err != nil {
		t.Fatal(err)
	}
	w.Stop()
}

func TestNewWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher([]string{filepath.Join(t.TempDir(), "nope", "config.yaml")}, func() {})
	if err == nil {
		t.Error("expected error when the parent directory does not exist")
	}
}
