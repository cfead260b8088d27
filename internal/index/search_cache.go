package index

import (
	"github.com/maypok86/otter"
)

type searchKey struct {
	query string
	limit int
	gen   uint64
}

// searchCache memoizes search results per index generation. Every write bumps
// the generation, so entries from an older generation are simply never hit
// again and age out under the capacity bound.
type searchCache struct {
	c otter.Cache[searchKey, []Result]
}

func newSearchCache(capacity int) *searchCache {
	if capacity <= 0 {
		return nil
	}
	c, err := otter.MustBuilder[searchKey, []Result](capacity).Build()
	if err != nil {
		return nil
	}
	return &searchCache{c: c}
}

// get returns a copy of the cached results so callers may mutate them.
func (s *searchCache) get(key searchKey) ([]Result, bool) {
	if s == nil {
		return nil, false
	}
	results, ok := s.c.Get(key)
	if !ok {
		return nil, false
	}
	out := make([]Result, len(results))
	copy(out, results)
	return out, true
}

func (s *searchCache) put(key searchKey, results []Result) {
	if s == nil {
		return
	}
	stored := make([]Result, len(results))
	copy(stored, results)
	s.c.Set(key, stored)
}

func (s *searchCache) clear() {
	if s == nil {
		return
	}
	s.c.Clear()
}

func (s *searchCache) close() {
	if s == nil {
		return
	}
	s.c.Close()
}
