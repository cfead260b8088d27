// Package scanner performs the one-shot recursive walk that populates the
// index from scratch.
package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mvp-joe/fileindex/internal/index"
	"github.com/mvp-joe/fileindex/internal/pathfilter"
)

// DefaultBatchSize is the number of entries committed per write section.
const DefaultBatchSize = 5000

// Result summarizes a finished scan.
type Result struct {
	Completed bool // false when stopped or cancelled
	Count     int  // entries in the index after the scan
}

// Scanner walks roots and writes entries into an index.Service in batches.
type Scanner struct {
	svc       *index.Service
	batchSize int
	filter    *pathfilter.Filter
	logger    *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithBatchSize sets how many entries are accumulated before each commit.
func WithBatchSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithFilter excludes matching paths; excluded directories are pruned.
func WithFilter(f *pathfilter.Filter) Option {
	return func(s *Scanner) {
		s.filter = f
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a scanner writing into svc.
func New(svc *index.Service, opts ...Option) *Scanner {
	s := &Scanner{
		svc:       svc,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan clears the index and rebuilds it from roots.
//
// The stop flag and ctx are checked before every root and every entry. When
// either fires, the batch being accumulated is discarded, the status returns
// to idle and Completed is false. Otherwise the remainder is committed and the
// status becomes watching. Both paths end with a progress notification that
// carries no current path.
func (s *Scanner) Scan(ctx context.Context, roots []string) Result {
	start := time.Now()

	s.svc.Clear()
	s.svc.SetRoots(roots)
	s.svc.ResetStop()
	s.svc.SetStatus(index.StatusScanning)

	stopped := func() bool {
		return s.svc.ShouldStop() || ctx.Err() != nil
	}

	batch := make([]index.Item, 0, s.batchSize)

	for _, root := range roots {
		if stopped() {
			break
		}
		if _, err := os.Lstat(root); err != nil {
			s.logger.Debug("skipping unreadable root",
				slog.String("path", root),
				slog.String("error", err.Error()))
			continue
		}

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if stopped() {
				return filepath.SkipAll
			}
			if err != nil {
				s.logger.Debug("skipping entry",
					slog.String("path", path),
					slog.String("error", err.Error()))
				return nil
			}

			if path != root && s.filter.Excluded(path, d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			info, err := d.Info()
			if err != nil {
				s.logger.Debug("skipping entry without metadata",
					slog.String("path", path),
					slog.String("error", err.Error()))
				return nil
			}

			batch = append(batch, index.Item{
				Path:  path,
				Entry: index.EntryFromFileInfo(d.Name(), info),
			})

			if len(batch) >= s.batchSize {
				s.svc.InsertBatch(batch)
				batch = batch[:0]
				s.svc.EmitProgress(path)
			}
			return nil
		})
	}

	if stopped() {
		if s.svc.Status() == index.StatusScanning {
			s.svc.SetStatus(index.StatusIdle)
		}
		s.svc.EmitProgress("")

		count := s.svc.Count()
		s.logger.Info("scan stopped",
			slog.Int("indexed", count),
			slog.Duration("elapsed", time.Since(start)))
		return Result{Completed: false, Count: count}
	}

	s.svc.InsertBatch(batch)
	s.svc.SetStatus(index.StatusWatching)
	s.svc.EmitProgress("")

	count := s.svc.Count()
	s.logger.Info("scan complete",
		slog.Int("indexed", count),
		slog.Int("roots", len(roots)),
		slog.Duration("elapsed", time.Since(start)))
	return Result{Completed: true, Count: count}
}
