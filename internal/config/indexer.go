package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mvp-joe/fileindex/internal/cache"
	"github.com/mvp-joe/fileindex/internal/index"
	"github.com/mvp-joe/fileindex/internal/indexer"
	"github.com/mvp-joe/fileindex/internal/pathfilter"
)

// ToIndexerConfig converts a Config to an indexer.Config, compiling the
// exclude filter and opening the cache store when caching is enabled.
func (c *Config) ToIndexerConfig(logger *slog.Logger) (indexer.Config, error) {
	filter, err := pathfilter.New(c.Indexer.Exclude, c.Indexer.IgnoreFile)
	if err != nil {
		return indexer.Config{}, err
	}

	var store *cache.Store
	if c.Cache.Enabled {
		store, err = c.NewStore(logger)
		if err != nil {
			return indexer.Config{}, err
		}
	}

	return indexer.Config{
		BatchSize:    c.Indexer.BatchSize,
		Filter:       filter,
		QueueSize:    c.Watcher.QueueSize,
		Debounce:     time.Duration(c.Watcher.DebounceMs) * time.Millisecond,
		DefaultLimit: c.Search.DefaultLimit,
		Store:        store,
		Logger:       logger,
	}, nil
}

// NewStore opens the cache store at the configured location. It is available
// even when caching is disabled so the cache can still be inspected or cleared.
func (c *Config) NewStore(logger *slog.Logger) (*cache.Store, error) {
	store, err := cache.NewStore(c.Cache.Path,
		time.Duration(c.Cache.MaxAgeHours)*time.Hour,
		cache.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open index cache: %w", err)
	}
	return store, nil
}

// NewService creates the in-memory index with the configured search cache.
func (c *Config) NewService() *index.Service {
	return index.NewService(index.WithSearchCacheSize(c.Search.CacheSize))
}
