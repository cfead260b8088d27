package index

import (
	"strings"
)

// Search returns up to limit entries whose name (or full path, when the query
// contains a path separator) contains query, case-insensitively.
//
// The scan is a single pass over the map, so the order of results is
// unspecified: callers get "the first limit matches found", nothing more.
// An empty query or a non-positive limit yields no results.
func (s *Service) Search(query string, limit int) []Result {
	q := strings.ToLower(query)
	if q == "" || limit <= 0 {
		return []Result{}
	}
	matchPath := strings.ContainsAny(q, `/\`)

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := searchKey{query: q, limit: limit, gen: s.gen}
	if cached, ok := s.results.get(key); ok {
		return cached
	}

	results := make([]Result, 0, min(limit, 64))
	for path, e := range s.entries {
		var hit bool
		if matchPath {
			hit = strings.Contains(strings.ToLower(path), q)
		} else {
			hit = strings.Contains(e.NameLower, q)
		}
		if !hit {
			continue
		}
		results = append(results, newResult(path, e))
		if len(results) >= limit {
			break
		}
	}

	s.results.put(key, results)
	return results
}
