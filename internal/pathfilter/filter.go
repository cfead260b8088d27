// Package pathfilter decides which filesystem paths are excluded from the index.
package pathfilter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

// compiledPattern holds both the pattern string and compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Filter matches paths against exclude patterns. A nil *Filter excludes nothing.
//
// Each glob pattern is tried against the base name and against the
// slash-separated absolute path, so "node_modules", "*.tmp" and
// "/home/*/.cache/**" all work. Ignore files use gitignore syntax and are
// matched against the absolute path with the leading separator removed, so an
// unanchored line like "target/" applies at any depth.
type Filter struct {
	patterns []compiledPattern
	ignorers []*ignore.GitIgnore
	sources  []string
}

// New compiles the exclude patterns and loads the given gitignore-style files.
// Missing ignore files are skipped. It returns nil (match nothing) when there
// is nothing to match.
func New(patterns []string, ignoreFiles ...string) (*Filter, error) {
	f := &Filter{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		f.patterns = append(f.patterns, compiledPattern{pattern: pattern, glob: g})
	}

	for _, file := range ignoreFiles {
		if file == "" {
			continue
		}
		ign, err := ignore.CompileIgnoreFile(file)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to load ignore file %s: %w", file, err)
		}
		f.ignorers = append(f.ignorers, ign)
		f.sources = append(f.sources, file)
	}

	if len(f.patterns) == 0 && len(f.ignorers) == 0 {
		return nil, nil
	}
	return f, nil
}

// Excluded reports whether path should be left out of the index. isDir tells
// directory-only ignore lines ("target/") whether they apply; callers already
// know it from the walk entry or a prior stat. For directories the caller
// should also skip the whole subtree.
func (f *Filter) Excluded(path string, isDir bool) bool {
	if f == nil {
		return false
	}
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, cp := range f.patterns {
		if cp.glob.Match(base) || cp.glob.Match(slashed) {
			return true
		}
	}

	if len(f.ignorers) > 0 {
		rel := strings.TrimPrefix(slashed, filepath.ToSlash(filepath.VolumeName(path)))
		rel = strings.TrimLeft(rel, "/")
		if isDir {
			rel += "/"
		}
		for _, ign := range f.ignorers {
			if ign.MatchesPath(rel) {
				return true
			}
		}
	}
	return false
}

// Patterns returns the source glob patterns.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.patterns))
	for i, cp := range f.patterns {
		out[i] = cp.pattern
	}
	return out
}

// IgnoreFiles returns the ignore files that were loaded.
func (f *Filter) IgnoreFiles() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.sources...)
}
