// Package watcher re-runs work when source files change on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is reported
const DefaultDebounce = 500 * time.Millisecond

// ErrNoPaths is returned by Watch when nothing could be watched
var ErrNoPaths = errors.New("no files to watch")

// ChangeFunc handles one changed file. It runs on the watch goroutine, so
// calls never overlap.
type ChangeFunc func(ctx context.Context, path string) error

// Watcher watches source files for changes
type Watcher struct {
	paths    []string
	onChange ChangeFunc
	debounce time.Duration
}

// New creates a watcher for paths
func New(paths []string, onChange ChangeFunc) *Watcher {
	return &Watcher{
		paths:    paths,
		onChange: onChange,
		debounce: DefaultDebounce,
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Watch blocks until ctx is cancelled, calling onChange for each file that
// was written or replaced once it has been quiet for the debounce period.
// Errors from onChange are logged and watching continues.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	// Directories are watched rather than files so that editors replacing
	// the file on save are still seen
	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, path := range w.paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := fsw.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
		files[abs] = true
		log.Printf("Watching %s for changes", abs)
	}
	if len(files) == 0 {
		return ErrNoPaths
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !files[abs] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending[abs] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			clear(pending)

			for _, path := range changed {
				log.Printf("File changed: %s", path)
				if err := w.onChange(ctx, path); err != nil {
					log.Printf("Handling change to %s failed: %v", path, err)
				}
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
