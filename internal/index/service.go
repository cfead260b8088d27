// Package index holds the in-memory file index: the path to Entry mapping, the
// indexing status, the cooperative stop flag and the substring search over it.
//
// A Service is the single owner of that state. The scanner, the watcher, the
// cache store and the query handlers all operate through its methods and never
// touch the map directly.
//
// Concurrency: the map, the status and the roots are each guarded by an RWMutex.
// Any number of readers (Search, Count, Snapshot) proceed together; a writer
// (Insert, InsertBatch, Remove, RemoveTree, Clear, Load) excludes everyone for
// the duration of that one call. No method performs I/O under a lock.
package index

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultSearchCacheSize is the number of memoized search result sets.
const DefaultSearchCacheSize = 256

// Service is the shared, concurrency-safe file index.
type Service struct {
	mu      sync.RWMutex
	entries map[string]Entry
	gen     uint64 // bumped on every write, guarded by mu

	statusMu sync.RWMutex
	status   Status

	rootsMu sync.RWMutex
	roots   []string

	stop atomic.Bool

	events  *broadcaster
	results *searchCache
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	searchCacheSize int
}

// WithSearchCacheSize sets how many search result sets are memoized.
// Zero disables memoization.
func WithSearchCacheSize(n int) Option {
	return func(o *serviceOptions) {
		o.searchCacheSize = n
	}
}

// NewService creates an empty index in the idle state.
func NewService(opts ...Option) *Service {
	o := serviceOptions{searchCacheSize: DefaultSearchCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		entries: make(map[string]Entry),
		status:  StatusIdle,
		events:  newBroadcaster(),
		results: newSearchCache(o.searchCacheSize),
	}
}

// Status returns the current indexing status.
func (s *Service) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// SetStatus updates the status and notifies subscribers if it changed.
func (s *Service) SetStatus(status Status) {
	s.statusMu.Lock()
	changed := s.status != status
	s.status = status
	s.statusMu.Unlock()

	if changed {
		s.events.publish(Event{
			Kind:     EventStatus,
			Progress: Progress{Status: status, IndexedCount: s.Count()},
		})
	}
}

// EmitProgress notifies subscribers of the current status and count.
// An empty currentPath is reported as absent.
func (s *Service) EmitProgress(currentPath string) {
	p := Progress{Status: s.Status(), IndexedCount: s.Count()}
	if currentPath != "" {
		p.CurrentPath = &currentPath
	}
	s.events.publish(Event{Kind: EventProgress, Progress: p})
}

// Progress returns a status snapshot without a current path.
func (s *Service) Progress() Progress {
	return Progress{Status: s.Status(), IndexedCount: s.Count()}
}

// Subscribe registers an observer with the given channel buffer.
func (s *Service) Subscribe(buffer int) *Subscription {
	return s.events.subscribe(buffer)
}

// Unsubscribe removes an observer and closes its channel.
func (s *Service) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	s.events.unsubscribe(sub.ID)
}

// Count returns the number of indexed paths.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Insert adds or overwrites a single path.
func (s *Service) Insert(path string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[path] = entry
	s.gen++
}

// InsertBatch commits all items under one exclusive section, so readers never
// observe a partially applied batch.
func (s *Service) InsertBatch(items []Item) {
	if len(items) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.entries[it.Path] = it.Entry
	}
	s.gen++
}

// Remove deletes a single path. Removing an unknown path is a no-op.
func (s *Service) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[path]; ok {
		delete(s.entries, path)
		s.gen++
	}
}

// RemoveTree deletes path and every indexed path beneath it.
// It returns the number of entries removed.
func (s *Service) RemoveTree(path string) int {
	prefix := strings.TrimRight(path, string(os.PathSeparator)) + string(os.PathSeparator)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	if _, ok := s.entries[path]; ok {
		delete(s.entries, path)
		removed++
	}
	for p := range s.entries {
		if strings.HasPrefix(p, prefix) {
			delete(s.entries, p)
			removed++
		}
	}
	if removed > 0 {
		s.gen++
	}
	return removed
}

// Clear drops every entry.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	s.gen++
	s.results.clear()
}

// Get returns the entry for path, if indexed.
func (s *Service) Get(path string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[path]
	return e, ok
}

// Snapshot returns a copy of the whole mapping.
func (s *Service) Snapshot() map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Entry, len(s.entries))
	for p, e := range s.entries {
		out[p] = e
	}
	return out
}

// Load replaces the whole mapping. The service takes ownership of entries.
func (s *Service) Load(entries map[string]Entry) {
	if entries == nil {
		entries = make(map[string]Entry)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.gen++
	s.results.clear()
}

// ShouldStop reports whether cancellation has been requested.
func (s *Service) ShouldStop() bool {
	return s.stop.Load()
}

// RequestStop asks an in-flight scan to halt at its next check.
func (s *Service) RequestStop() {
	s.stop.Store(true)
}

// ResetStop clears the stop flag; called at the start of every scan.
func (s *Service) ResetStop() {
	s.stop.Store(false)
}

// SetRoots records the roots of the current indexing session.
func (s *Service) SetRoots(roots []string) {
	cp := make([]string, len(roots))
	copy(cp, roots)

	s.rootsMu.Lock()
	defer s.rootsMu.Unlock()
	s.roots = cp
}

// Roots returns a copy of the current session roots.
func (s *Service) Roots() []string {
	s.rootsMu.RLock()
	defer s.rootsMu.RUnlock()
	out := make([]string, len(s.roots))
	copy(out, s.roots)
	return out
}

// Close releases subscribers and the search cache.
func (s *Service) Close() {
	s.events.closeAll()
	s.results.close()
}
