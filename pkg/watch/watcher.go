// Package watch converts files as they appear in watched folders.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is handed on.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors directories and reports files that were created or
// rewritten, once writes to them have settled.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dirs     map[string]bool
	files    map[string]*fileState
	mu       sync.Mutex
	debounce time.Duration
	timers   map[string]*time.Timer
	wg       sync.WaitGroup

	// Match filters candidate paths. nil accepts everything.
	Match   func(path string) bool
	OnFile  func(path string) error
	OnError func(path string, err error)
}

type fileState struct {
	lastModified time.Time
	size         int64
	processing   bool
}

// NewWatcher creates a watcher with the given debounce. debounce <= 0 uses
// DefaultDebounce.
func NewWatcher(debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		watcher:  fsWatcher,
		dirs:     make(map[string]bool),
		files:    make(map[string]*fileState),
		timers:   make(map[string]*time.Timer),
		debounce: debounce,
	}, nil
}

// Add starts watching a directory. Only direct children are reported.
func (w *Watcher) Add(dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("not a directory: %s", absPath)
	}

	if err := w.watcher.Add(absPath); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	w.mu.Lock()
	w.dirs[absPath] = true
	w.mu.Unlock()
	return nil
}

// Dirs returns the watched directories.
func (w *Watcher) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	return out
}

// Run starts the watch loop. Blocks until ctx is cancelled, then waits for
// callbacks already running.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			absPath, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if w.Match != nil && !w.Match(absPath) {
				continue
			}
			w.schedule(absPath)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if w.OnError != nil {
				w.OnError("", err)
			}
		}
	}
}

// schedule restarts the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.timers[path]; exists && timer.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.handleChange(path)
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for path, timer := range w.timers {
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
	w.watcher.Close()
}

func (w *Watcher) handleChange(path string) {
	stat, err := os.Stat(path)
	if err != nil {
		// removed again before it settled
		if !os.IsNotExist(err) && w.OnError != nil {
			w.OnError(path, err)
		}
		return
	}
	if stat.IsDir() {
		return
	}

	w.mu.Lock()
	delete(w.timers, path)
	state, seen := w.files[path]
	if !seen {
		state = &fileState{}
		w.files[path] = state
	}
	if state.processing || (seen && stat.ModTime().Equal(state.lastModified) && stat.Size() == state.size) {
		w.mu.Unlock()
		return
	}
	state.processing = true
	state.lastModified = stat.ModTime()
	state.size = stat.Size()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		state.processing = false
		w.mu.Unlock()
	}()

	if w.OnFile != nil {
		if err := w.OnFile(path); err != nil && w.OnError != nil {
			w.OnError(path, err)
		}
	}
}

// Close stops the watcher without waiting for Run.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
