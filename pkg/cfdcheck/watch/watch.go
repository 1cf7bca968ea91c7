// Package watch reports changes to the inputs of an evaluation: the config
// file and the mesh of a case directory.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches files and directory trees and reports changes in batches.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool // watched files, by absolute path
	dirs     map[string]bool // directories added with fsnotify
	trees    map[string]bool // roots watched recursively
	mu       sync.RWMutex
	closed   bool
	debounce time.Duration
}

// New creates a new Watcher. A non-positive debounce uses DefaultDebounce.
func New(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		watcher:  fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		trees:    make(map[string]bool),
		debounce: debounce,
	}, nil
}

// AddFile watches a single file. The parent directory is watched so that
// editors replacing the file atomically are still seen.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.addWatch(filepath.Dir(abs)); err != nil {
		return err
	}

	w.mu.Lock()
	w.files[abs] = true
	w.mu.Unlock()
	return nil
}

// AddTree watches a directory and all its subdirectories.
// Symlinks are not followed to avoid loops.
func (w *Watcher) AddTree(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	info, err := os.Lstat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.AddFile(abs)
	}

	w.mu.Lock()
	w.trees[abs] = true
	w.mu.Unlock()

	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			return w.addWatch(path)
		}
		return nil
	})
}

// addWatch adds a single directory to the watch list.
func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.dirs[path] {
		return nil
	}

	if err := w.watcher.Add(path); err != nil {
		logging.Get("watch").Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.dirs[path] = true
	return nil
}

// relevant reports whether an event path belongs to a watched file or tree.
func (w *Watcher) relevant(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.files[path] {
		return true
	}
	for root := range w.trees {
		if path == root || isSubPath(path, root) {
			return true
		}
	}
	return false
}

// Run starts the event loop. It blocks until the context is cancelled.
// onChange receives the sorted set of paths that changed since the last
// call, once no further event has arrived for the debounce interval.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) {
	log := logging.Get("watch")

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.handleCreate(event.Name)
			}
			log.Debug("change", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]bool)
			if onChange != nil {
				onChange(paths)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error("watcher error", "error", err)
		}
	}
}

// handleCreate starts watching directories created inside a watched tree.
func (w *Watcher) handleCreate(path string) {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() {
		return
	}
	w.mu.RLock()
	inTree := false
	for root := range w.trees {
		if isSubPath(path, root) {
			inTree = true
			break
		}
	}
	w.mu.RUnlock()
	if inTree {
		_ = w.AddTree(path)
	}
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	w.dirs = make(map[string]bool)
	return w.watcher.Close()
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
