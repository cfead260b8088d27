// Package watcher keeps the index current by applying filesystem change
// notifications as they arrive.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/fileindex/internal/index"
	"github.com/mvp-joe/fileindex/internal/pathfilter"
)

const (
	// DefaultQueueSize bounds the events waiting for the consumer.
	DefaultQueueSize = 1000

	// DefaultDebounce is the quiet period before a progress notification.
	DefaultDebounce = 300 * time.Millisecond
)

// ErrAlreadyRunning is returned by Start when a session is active.
var ErrAlreadyRunning = errors.New("watcher already running")

// Watcher applies create, modify, remove and rename events under a set of
// roots to an index.Service.
//
// Events flow from fsnotify through a bridge goroutine into a bounded queue
// drained by a single consumer. When the queue is full the bridge blocks, so
// no event is ever dropped. Progress notifications are debounced so a burst of
// changes produces one notification.
type Watcher struct {
	svc       *index.Service
	filter    *pathfilter.Filter
	queueSize int
	debounce  time.Duration
	logger    *slog.Logger

	mu  sync.Mutex
	run *session
}

// session is one Start..Stop lifetime.
type session struct {
	ctx      context.Context
	fsw      *fsnotify.Watcher
	queue    chan fsnotify.Event
	stopCh   chan struct{}
	stopOnce sync.Once
	group    errgroup.Group
	notify   func(func())
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithQueueSize sets the bridge queue capacity.
func WithQueueSize(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

// WithDebounce sets the progress notification quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFilter ignores events for excluded paths.
func WithFilter(f *pathfilter.Filter) Option {
	return func(w *Watcher) {
		w.filter = f
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a stopped watcher writing into svc.
func New(svc *index.Service, opts ...Option) *Watcher {
	w := &Watcher{
		svc:       svc,
		queueSize: DefaultQueueSize,
		debounce:  DefaultDebounce,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start subscribes to changes under every existing root, recursively.
// Missing roots are skipped. The session ends on Stop or when ctx is done.
func (w *Watcher) Start(ctx context.Context, roots []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.run != nil {
		if w.run.ctx.Err() == nil {
			return ErrAlreadyRunning
		}
		// The previous session ended with its context; release it first.
		_ = w.shutdown(w.run)
		w.run = nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	s := &session{
		ctx:    ctx,
		fsw:    fsw,
		queue:  make(chan fsnotify.Event, w.queueSize),
		stopCh: make(chan struct{}),
		notify: debounce.New(w.debounce),
	}

	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			w.logger.Debug("not watching missing root", slog.String("path", root))
			continue
		}
		w.addRecursive(s, root, nil)
	}

	s.group.Go(func() error {
		w.bridge(ctx, s)
		return nil
	})
	s.group.Go(func() error {
		w.consume(ctx, s)
		return nil
	})

	w.run = s
	w.logger.Debug("watcher started", slog.Int("roots", len(roots)))
	return nil
}

// Running reports whether a session is active. A session whose context has
// ended is not.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.run != nil && w.run.ctx.Err() == nil
}

// Stop ends the active session and waits for its goroutines. Calling Stop on a
// stopped watcher is a no-op.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	s := w.run
	w.run = nil
	w.mu.Unlock()

	if s == nil {
		return nil
	}
	return w.shutdown(s)
}

// shutdown closes the session and waits for its goroutines.
func (w *Watcher) shutdown(s *session) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	err := s.fsw.Close()
	_ = s.group.Wait()
	w.logger.Debug("watcher stopped")
	return err
}

// bridge moves fsnotify events into the bounded queue. The send blocks when the
// queue is full.
func (w *Watcher) bridge(ctx context.Context, s *session) {
	defer close(s.queue)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return

		case ev, ok := <-s.fsw.Events:
			if !ok {
				return
			}
			select {
			case s.queue <- ev:
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}

		case err, ok := <-s.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", slog.String("error", err.Error()))
		}
	}
}

// consume applies queued events one at a time. On exit it replaces any
// pending progress notification with a no-op.
func (w *Watcher) consume(ctx context.Context, s *session) {
	defer s.notify(func() {})

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-s.queue:
			if !ok {
				return
			}
			if w.apply(s, ev) {
				s.notify(func() { w.svc.EmitProgress("") })
			}
		}
	}
}

// apply patches the index for one event and reports whether it was handled.
func (w *Watcher) apply(s *session, ev fsnotify.Event) bool {
	path := ev.Name

	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// The path is gone, so its kind is unknown.
		if w.filter.Excluded(path, false) || w.filter.Excluded(path, true) {
			return false
		}
		w.svc.RemoveTree(path)
		return true

	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write), ev.Has(fsnotify.Chmod):
		info, err := os.Lstat(path)
		if err != nil {
			// Gone before we got to it; a Remove event follows.
			return false
		}
		if w.filter.Excluded(path, info.IsDir()) {
			return false
		}
		w.svc.Insert(path, index.EntryFromFileInfo(filepath.Base(path), info))

		if ev.Has(fsnotify.Create) && info.IsDir() {
			// Directories created (or moved in) after Start: watch them and
			// pick up whatever they already contain.
			var items []index.Item
			w.addRecursive(s, path, &items)
			w.svc.InsertBatch(items)
		}
		return true
	}
	return false
}

// addRecursive adds every directory under root to the fsnotify watch list,
// pruning excluded subtrees. When items is non-nil, every entry below root is
// also collected for insertion.
func (w *Watcher) addRecursive(s *session, root string, items *[]index.Item) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("skipping unwatchable path",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		if path != root && w.filter.Excluded(path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if items != nil && path != root {
			if info, err := d.Info(); err == nil {
				*items = append(*items, index.Item{
					Path:  path,
					Entry: index.EntryFromFileInfo(d.Name(), info),
				})
			}
		}

		if d.IsDir() {
			if err := s.fsw.Add(path); err != nil {
				w.logger.Warn("failed to watch directory",
					slog.String("path", path),
					slog.String("error", err.Error()))
			}
		}
		return nil
	})
}
