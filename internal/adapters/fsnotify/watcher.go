// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches the files a dataset was loaded from and debounces rapid events
// (editors often trigger several writes, or a rename dance, per save).
package fsnotify

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/corey/gbsearch/internal/ports"
	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is how long a file must stay quiet before onChange fires.
const DebounceInterval = 50 * time.Millisecond

// Editor droppings that share a watched directory.
var ignoreSuffixes = []string{".swp", ".swx", "~", ".tmp", ".DS_Store"}

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}

	mu       sync.Mutex
	files    map[string]bool // absolute paths reported to onChange
	dirs     map[string]bool // parent directories added to fw
	onChange func(string)
	pending  map[string]*time.Timer
	started  bool
	stopped  bool
}

var _ ports.Watcher = (*Watcher)(nil)

// NewWatcher creates a new file system watcher.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:      fw,
		done:    make(chan struct{}),
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		pending: make(map[string]*time.Timer),
	}, nil
}

// Watch starts monitoring paths. onChange is called with the absolute path
// of a watched file once it has been quiet for DebounceInterval after a
// write, create, remove or rename.
//
// Files are watched through their parent directories so that editors which
// save by renaming a temp file over the original keep being tracked. Calling
// Watch again replaces the watched set and the callback.
func (w *Watcher) Watch(paths []string, onChange func(string)) error {
	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for dir := range dirs {
		if w.dirs[dir] {
			continue
		}
		if err := w.fw.Add(dir); err != nil {
			return err
		}
	}
	for dir := range w.dirs {
		if !dirs[dir] {
			w.fw.Remove(dir)
		}
	}
	w.files = files
	w.dirs = dirs
	w.onChange = onChange

	if !w.started {
		w.started = true
		go w.loop()
	}
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.schedule(event.Name)
			}

		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// Errors are swallowed; fsnotify recovers automatically

		case <-w.done:
			return
		}
	}
}

// schedule (re)arms the debounce timer for path.
func (w *Watcher) schedule(path string) {
	if shouldIgnorePath(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || !w.files[path] {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(DebounceInterval)
		return
	}
	w.pending[path] = time.AfterFunc(DebounceInterval, func() { w.fire(path) })
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	cb := w.onChange
	stopped := w.stopped
	w.mu.Unlock()

	if !stopped && cb != nil {
		cb(path)
	}
}

// Stop ends monitoring and releases all resources. Pending callbacks are
// dropped. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	close(w.done)
	return w.fw.Close()
}

// shouldIgnorePath returns true if the file should never trigger onChange.
func shouldIgnorePath(path string) bool {
	base := filepath.Base(path)
	for _, suffix := range ignoreSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return strings.HasPrefix(base, ".#")
}
