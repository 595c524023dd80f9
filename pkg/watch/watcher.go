// Package watch re-runs a scan when its input files change.
package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before the callback runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors an index dump (and optionally a config file) and triggers a
// rescan once writes have settled.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	files     map[string]bool
	debounce  time.Duration
	callback  func(path string)
	quiet     bool
	out       io.Writer
	mu        sync.Mutex
	pending   map[string]time.Time
	runMu     sync.Mutex
}

// NewWatcher creates a watcher for the given files.
func NewWatcher(files []string, debounce time.Duration) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("watch: no files to watch")
	}

	watched := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		watched[abs] = true
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		files:     watched,
		debounce:  debounce,
		out:       os.Stderr,
		pending:   make(map[string]time.Time),
	}, nil
}

// SetCallback sets the function to call when a file changes. Calls never overlap.
func (w *Watcher) SetCallback(cb func(path string)) {
	w.callback = cb
}

// SetQuiet suppresses status messages.
func (w *Watcher) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// SetOutput sets where status messages go. The default is stderr, which keeps
// them out of results written to stdout.
func (w *Watcher) SetOutput(out io.Writer) {
	w.out = out
}

// Start watches until ctx is done. Parent directories are watched rather than
// the files themselves so that files replaced by rename are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.dirs() {
		if err := w.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("watch: %s: %w", dir, err)
		}
	}

	if !w.quiet {
		cyan := color.New(color.FgCyan)
		for _, f := range w.Files() {
			cyan.Fprintf(w.out, "Watching %s for changes...\n", f)
		}
		cyan.Fprintln(w.out, "Press Ctrl+C to stop")
		fmt.Fprintln(w.out)
	}

	// Start debounce processor
	go w.processDebounced(ctx)

	// Process events
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.New(color.FgRed).Fprintf(w.out, "Watch error: %v\n", err)
		}
	}
}

func (w *Watcher) dirs() []string {
	var dirs []string
	for f := range w.files {
		dirs = append(dirs, filepath.Dir(f))
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

// handleEvent processes a filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Only care about writes and creates
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	path, err := filepath.Abs(event.Name)
	if err != nil || !w.files[path] {
		return
	}

	// Add to pending with current time
	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// processDebounced processes pending changes after debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending processes files that have been stable for the debounce period.
func (w *Watcher) processPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	var ready []string

	for path, lastMod := range w.pending {
		if now.Sub(lastMod) >= w.debounce {
			ready = append(ready, path)
		}
	}

	for _, path := range ready {
		delete(w.pending, path)
		if w.callback != nil {
			go w.runCallback(path)
		}
	}
}

// runCallback executes the callback for a changed file.
func (w *Watcher) runCallback(path string) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if !w.quiet {
		color.New(color.FgYellow).Fprintf(w.out, "\nFile changed: %s\n", path)
	}
	w.callback(path)
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// Files returns the watched files, sorted.
func (w *Watcher) Files() []string {
	var out []string
	for f := range w.files {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
