package rules

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher calls a reload function after any of the watched rule files changes.
// Bursts of file events within the debounce window cause one reload.
type Watcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]struct{}
	reload   func(ctx context.Context)
	debounce time.Duration

	mu    sync.Mutex
	dirty bool
	done  chan struct{}
}

type WatcherOption func(*Watcher)

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher watches the directories holding paths. Files need not exist yet.
func NewWatcher(paths []string, reload func(ctx context.Context), opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create file watcher")
	}

	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]struct{}),
		reload:   reload,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, goerr.Wrap(err, "invalid rule file path", goerr.V("path", p))
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, goerr.Wrap(err, "failed to watch rule directory", goerr.V("dir", dir))
		}
	}
	return w, nil
}

// Start runs the event loop until ctx is cancelled or Close is called
func (w *Watcher) Start(ctx context.Context) {
	ctxlog.From(ctx).Info("Rule watcher started", "files", len(w.files), "debounce", w.debounce)
	go w.processEvents(ctx)
}

// Done is closed when the event loop exits
func (w *Watcher) Done() <-chan struct{} { return w.done }

func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)
	logger := ctxlog.From(ctx)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Error("Rule watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := w.files[abs]; !ok {
		return
	}

	w.mu.Lock()
	w.dirty = true
	w.mu.Unlock()
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.mu.Lock()
	dirty := w.dirty
	w.dirty = false
	w.mu.Unlock()

	if !dirty {
		return
	}
	ctxlog.From(ctx).Info("Rule files changed, reloading")
	w.reload(ctx)
}
