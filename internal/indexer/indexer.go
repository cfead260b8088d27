// Package indexer wires the scanner, the watcher and the cache store around an
// index.Service and exposes the operations collaborators call: start, search,
// status, stop and clear cache.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mvp-joe/fileindex/internal/cache"
	"github.com/mvp-joe/fileindex/internal/index"
	"github.com/mvp-joe/fileindex/internal/pathfilter"
	"github.com/mvp-joe/fileindex/internal/scanner"
	"github.com/mvp-joe/fileindex/internal/watcher"
)

// DefaultSearchLimit applies when a caller passes a non-positive limit.
const DefaultSearchLimit = 1000

// Config contains configuration for the indexer.
type Config struct {
	// Scanning
	BatchSize int
	Filter    *pathfilter.Filter

	// Watching
	QueueSize int
	Debounce  time.Duration

	// Search
	DefaultLimit int

	// Store persists snapshots; nil disables the cache entirely.
	Store *cache.Store

	Logger *slog.Logger
}

// DefaultConfig returns a configuration with sensible defaults and no cache.
func DefaultConfig() Config {
	return Config{
		BatchSize:    scanner.DefaultBatchSize,
		QueueSize:    watcher.DefaultQueueSize,
		Debounce:     watcher.DefaultDebounce,
		DefaultLimit: DefaultSearchLimit,
	}
}

// Indexer runs indexing sessions over an index.Service.
//
// Only one session is active at a time. Start cancels and waits for any scan
// still in flight and stops the watcher before beginning the next session, so
// two scans never interleave their writes.
type Indexer struct {
	svc          *index.Service
	scanner      *scanner.Scanner
	watcher      *watcher.Watcher
	store        *cache.Store
	defaultLimit int
	logger       *slog.Logger

	// Background work outlives the context of the call that started it.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu         sync.Mutex
	task       *Task
	taskCancel context.CancelFunc
}

// New creates an indexer over svc.
func New(svc *index.Service, cfg Config) *Indexer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Indexer{
		svc: svc,
		scanner: scanner.New(svc,
			scanner.WithBatchSize(cfg.BatchSize),
			scanner.WithFilter(cfg.Filter),
			scanner.WithLogger(logger)),
		watcher: watcher.New(svc,
			watcher.WithQueueSize(cfg.QueueSize),
			watcher.WithDebounce(cfg.Debounce),
			watcher.WithFilter(cfg.Filter),
			watcher.WithLogger(logger)),
		store:        cfg.Store,
		defaultLimit: limit,
		logger:       logger,
		baseCtx:      ctx,
		baseCancel:   cancel,
	}
}

// Service returns the underlying index.
func (i *Indexer) Service() *index.Service {
	return i.svc
}

// Start begins a new indexing session over roots.
//
// If the cache holds a fresh snapshot for the same roots, the index is
// hydrated from it, the status becomes watching, the watcher starts and the
// returned task is already done. Otherwise a background scan is started; when
// it completes the snapshot is saved and the watcher started.
//
// ctx bounds only the wait for a previous scan to wind down; the new session
// runs until Stop or Close.
func (i *Indexer) Start(ctx context.Context, roots []string) (*Task, error) {
	abs, err := normalizeRoots(roots)
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.haltLocked(ctx); err != nil {
		return nil, err
	}

	i.svc.SetRoots(abs)
	task := newTask()
	i.task = task

	if i.store != nil && i.store.Load(i.svc) && i.svc.Count() > 0 {
		task.fromCache = true
		i.svc.SetStatus(index.StatusWatching)
		i.svc.EmitProgress("")

		count := i.svc.Count()
		i.logger.Info("index loaded from cache",
			slog.Int("entries", count),
			slog.String("path", i.store.Path()))

		var werr error
		if err := i.watcher.Start(i.baseCtx, abs); err != nil {
			i.svc.SetStatus(index.StatusError)
			werr = fmt.Errorf("failed to start watcher: %w", err)
			i.logger.Error("failed to start watcher", slog.String("error", err.Error()))
		}
		task.finish(scanner.Result{Completed: true, Count: count}, werr)
		return task, nil
	}

	scanCtx, cancel := context.WithCancel(i.baseCtx)
	i.taskCancel = cancel
	go i.run(scanCtx, task, abs)

	return task, nil
}

// run is the background scan task.
func (i *Indexer) run(ctx context.Context, task *Task, roots []string) {
	res := i.scanner.Scan(ctx, roots)
	if !res.Completed {
		task.finish(res, ErrStopped)
		return
	}

	if i.store != nil {
		if err := i.store.Save(i.svc); err != nil {
			i.logger.Warn("failed to save index cache",
				slog.String("path", i.store.Path()),
				slog.String("error", err.Error()))
		}
	}

	// Stop may have landed between the last entry and here.
	if ctx.Err() != nil || i.svc.ShouldStop() {
		task.finish(res, ErrStopped)
		return
	}

	if err := i.watcher.Start(i.baseCtx, roots); err != nil {
		i.svc.SetStatus(index.StatusError)
		i.logger.Error("failed to start watcher", slog.String("error", err.Error()))
		task.finish(res, fmt.Errorf("failed to start watcher: %w", err))
		return
	}
	task.finish(res, nil)
}

// Search returns up to limit entries whose name (or, for queries containing a
// path separator, whose full path) contains query, case-insensitively.
func (i *Indexer) Search(query string, limit int) []index.Result {
	if limit <= 0 {
		limit = i.defaultLimit
	}
	return i.svc.Search(query, limit)
}

// Status returns the current status and entry count.
func (i *Indexer) Status() index.Progress {
	return i.svc.Progress()
}

// CurrentTask returns the most recent session handle, or nil.
func (i *Indexer) CurrentTask() *Task {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.task
}

// Stop halts any scan, stops the watcher and sets the status to idle. The
// index contents are kept.
func (i *Indexer) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()

	_ = i.haltLocked(context.Background())
	i.svc.SetStatus(index.StatusIdle)
}

// ClearCache deletes the cache file. The in-memory index is untouched.
func (i *Indexer) ClearCache() error {
	if i.store == nil {
		return nil
	}
	if err := i.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear index cache: %w", err)
	}
	return nil
}

// SaveCache writes the current index to the cache. It is a no-op without a
// store or while a scan is running, since a partial scan is not a snapshot.
func (i *Indexer) SaveCache() error {
	if i.store == nil || i.svc.Status() == index.StatusScanning {
		return nil
	}
	if err := i.store.Save(i.svc); err != nil {
		return fmt.Errorf("failed to save index cache: %w", err)
	}
	return nil
}

// Subscribe registers for status and progress events.
func (i *Indexer) Subscribe(buffer int) *index.Subscription {
	return i.svc.Subscribe(buffer)
}

// Unsubscribe cancels a subscription and closes its channel.
func (i *Indexer) Unsubscribe(sub *index.Subscription) {
	i.svc.Unsubscribe(sub)
}

// Close stops all background work.
func (i *Indexer) Close() error {
	i.Stop()
	i.baseCancel()
	return nil
}

// haltLocked requests stop, cancels and waits for the current scan, then stops
// the watcher. The scan is awaited first so it cannot start a watcher after
// the watcher has been stopped. Callers must hold i.mu.
func (i *Indexer) haltLocked(ctx context.Context) error {
	if i.task != nil {
		select {
		case <-i.task.Done():
		default:
			i.svc.RequestStop()
			if i.taskCancel != nil {
				i.taskCancel()
			}
			if err := i.task.Wait(ctx); err != nil && ctx.Err() != nil {
				return fmt.Errorf("waiting for previous scan: %w", err)
			}
		}
	}
	if i.taskCancel != nil {
		i.taskCancel()
		i.taskCancel = nil
	}

	if err := i.watcher.Stop(); err != nil {
		i.logger.Debug("error closing watcher", slog.String("error", err.Error()))
	}
	return nil
}

// normalizeRoots validates roots, makes them absolute and drops duplicates
// while keeping order. Roots that do not exist are kept; the scanner skips
// them.
func normalizeRoots(roots []string) ([]string, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}

	seen := make(map[string]bool, len(roots))
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		if strings.TrimSpace(root) == "" || strings.ContainsRune(root, 0) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRoot, root)
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRoot, root, err)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out, nil
}
