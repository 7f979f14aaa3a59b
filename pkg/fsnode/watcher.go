package fsnode

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/sharptree/pkg/debug"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before reporting the affected folders.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reports folders whose entries changed on disk. It only watches the
// folders it is told about (typically each folder as it gets loaded) and
// delivers batches of changed folder paths on Changes. Refreshing the tree is
// left to the owner of the tree.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	changes  chan []string

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWatcher creates a watcher and starts its event loop.
func NewWatcher(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		fs:       fsw,
		debounce: debounce,
		changes:  make(chan []string, 1),
		pending:  make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
	go w.loop()
	return w, nil
}

// Watch adds a folder.
func (w *Watcher) Watch(dir string) error {
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	debug.Log("fsnode: watching %s", dir)
	return nil
}

// Unwatch removes a folder. Unknown folders are ignored.
func (w *Watcher) Unwatch(dir string) {
	_ = w.fs.Remove(dir)
}

// Changes delivers sorted batches of changed folder paths.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.cancel()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			// Content writes do not change the tree.
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.mark(filepath.Dir(event.Name))

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			debug.Log("fsnode: watcher error: %v", err)
		}
	}
}

func (w *Watcher) mark(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[dir] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := make([]string, 0, len(w.pending))
	for dir := range w.pending {
		batch = append(batch, dir)
	}
	clear(w.pending)
	w.mu.Unlock()

	slices.Sort(batch)
	select {
	case w.changes <- batch:
	case <-w.ctx.Done():
	}
}
