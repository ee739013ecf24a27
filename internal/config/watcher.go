// ABOUTME: fsnotify-based file watcher for config hot-reload
// ABOUTME: Watches parent directories so editor rename-and-replace saves are seen; debounces bursts

package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mauromedda/maude-go/internal/log"
)

// Watcher calls onChange when any monitored file is written, created,
// renamed, or removed.
type Watcher struct {
	paths    map[string]bool
	onChange func()
	debounce time.Duration
	fsw      *fsnotify.Watcher
	stopCh   chan struct{}
	done     chan struct{}
	mu       sync.Mutex
	running  bool
	stopOnce sync.Once
}

// NewWatcher creates a watcher for paths. The files need not exist yet;
// their parent directories must.
func NewWatcher(paths []string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		paths:    make(map[string]bool, len(paths)),
		onChange: onChange,
		debounce: 100 * time.Millisecond,
		fsw:      fsw,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		w.paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return w, nil
}

// SetDebounce overrides the default quiet period (100ms) before onChange runs.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Start begins watching in a goroutine. Safe to call multiple times; subsequent calls are no-ops.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.loop()
}

// Stop halts the watcher and waits for it to exit. Safe to call multiple
// times and concurrently.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		started := w.running
		w.running = false
		w.mu.Unlock()

		close(w.stopCh)
		if started {
			<-w.done
		}
		w.fsw.Close()
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	w.mu.Lock()
	debounce := w.debounce
	w.mu.Unlock()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.paths[filepath.Clean(ev.Name)] || ev.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher: %v", err)
		case <-timer.C:
			w.onChange()
		}
	}
}
