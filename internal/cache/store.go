package cache

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mvp-joe/fileindex/internal/index"
)

const (
	// FileName is the snapshot file name inside the cache directory.
	FileName = "file_index_cache.json"

	// DefaultMaxAge is how long a snapshot stays valid for a warm start.
	DefaultMaxAge = 24 * time.Hour
)

// Snapshot is the on-disk form of the index. There is no schema version: a
// structural change to index.Entry makes old files fail to parse, and they are
// then treated as absent.
type Snapshot struct {
	Timestamp uint64                 `json:"timestamp"`
	Entries   map[string]index.Entry `json:"entries"`
	Roots     []string               `json:"roots,omitempty"`
}

// Store persists index snapshots to a single JSON file.
//
// Every failure on the read side (missing directory, unreadable file, bad JSON,
// expired snapshot) means "no usable cache" and the caller falls back to a
// full scan. Writes replace the whole file atomically.
type Store struct {
	path   string
	maxAge time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source (used by tests to age snapshots).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger for degraded-cache diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a store backed by path. If path is empty, DefaultPath is
// used; a non-positive maxAge falls back to DefaultMaxAge.
func NewStore(path string, maxAge time.Duration, opts ...Option) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	s := &Store{
		path:   path,
		maxAge: maxAge,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DefaultPath returns {UserCacheDir}/fileindex/file_index_cache.json.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache directory: %w", err)
	}
	return filepath.Join(dir, "fileindex", FileName), nil
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Save writes the current index, its roots and a fresh timestamp.
func (s *Store) Save(svc *index.Service) error {
	snap := Snapshot{
		Timestamp: uint64(s.now().Unix()),
		Entries:   svc.Snapshot(),
		Roots:     svc.Roots(),
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	w := bufio.NewWriter(tmp)
	if err := json.NewEncoder(w).Encode(&snap); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	s.logger.Debug("index cache saved",
		slog.String("path", s.path),
		slog.Int("entries", len(snap.Entries)))
	return nil
}

// Load hydrates svc from the snapshot if it is fresh enough and was taken for
// the same roots. It returns false, leaving svc untouched, otherwise.
func (s *Store) Load(svc *index.Service) bool {
	snap, err := s.read()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("ignoring unusable index cache",
				slog.String("path", s.path),
				slog.String("error", err.Error()))
		}
		return false
	}

	if !s.fresh(snap.Timestamp) {
		s.logger.Debug("index cache expired", slog.String("path", s.path))
		return false
	}

	roots := svc.Roots()
	if len(roots) > 0 && len(snap.Roots) > 0 && !slices.Equal(roots, snap.Roots) {
		s.logger.Debug("index cache built for different roots", slog.String("path", s.path))
		return false
	}

	svc.Load(snap.Entries)
	return true
}

// Clear deletes the snapshot file if present.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

// Info describes the snapshot on disk.
type Info struct {
	Path      string        `json:"path"`
	Exists    bool          `json:"exists"`
	Timestamp time.Time     `json:"timestamp,omitempty"`
	Age       time.Duration `json:"age,omitempty"`
	Entries   int           `json:"entries"`
	Roots     []string      `json:"roots,omitempty"`
	Valid     bool          `json:"valid"`
}

// Info reads the snapshot and reports its metadata. A missing file is not an
// error; a corrupt one is.
func (s *Store) Info() (Info, error) {
	info := Info{Path: s.path}

	snap, err := s.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return info, nil
		}
		info.Exists = true
		return info, err
	}

	ts := time.Unix(int64(snap.Timestamp), 0)
	info.Exists = true
	info.Timestamp = ts
	info.Age = s.now().Sub(ts)
	info.Entries = len(snap.Entries)
	info.Roots = snap.Roots
	info.Valid = s.fresh(snap.Timestamp)
	return info, nil
}

func (s *Store) read() (*Snapshot, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode cache: %w", err)
	}
	if snap.Entries == nil {
		snap.Entries = make(map[string]index.Entry)
	}
	for p, e := range snap.Entries {
		e.SetName(e.Name) // name_lower is derived, never trusted from disk
		snap.Entries[p] = e
	}
	return &snap, nil
}

// fresh reports whether a snapshot taken at ts is within maxAge. Timestamps in
// the future count as age zero.
func (s *Store) fresh(ts uint64) bool {
	now := s.now().Unix()
	age := now - int64(ts)
	if age < 0 {
		age = 0
	}
	return time.Duration(age)*time.Second <= s.maxAge
}
