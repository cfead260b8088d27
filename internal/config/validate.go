package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/fileindex/internal/pathfilter"
)

var (
	// ErrInvalidBatchSize indicates a non-positive scan batch size
	ErrInvalidBatchSize = errors.New("invalid batch size")

	// ErrInvalidPattern indicates an exclude pattern that does not compile
	ErrInvalidPattern = errors.New("invalid exclude pattern")

	// ErrInvalidCacheAge indicates a non-positive cache max age
	ErrInvalidCacheAge = errors.New("invalid cache max age")

	// ErrInvalidQueueSize indicates a non-positive watcher queue size
	ErrInvalidQueueSize = errors.New("invalid watcher queue size")

	// ErrInvalidDebounce indicates a negative debounce interval
	ErrInvalidDebounce = errors.New("invalid debounce interval")

	// ErrInvalidLimit indicates an unusable search limit or cache size
	ErrInvalidLimit = errors.New("invalid search limit")

	// ErrInvalidLogLevel indicates an unknown log level
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidLogFormat indicates an unknown log format
	ErrInvalidLogFormat = errors.New("invalid log format")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateIndexer(&cfg.Indexer); err != nil {
		errs = append(errs, err)
	}

	if cfg.Cache.MaxAgeHours <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be > 0, got %d", ErrInvalidCacheAge, cfg.Cache.MaxAgeHours))
	}

	if cfg.Watcher.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be > 0, got %d", ErrInvalidQueueSize, cfg.Watcher.QueueSize))
	}
	if cfg.Watcher.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("%w: must be >= 0, got %d", ErrInvalidDebounce, cfg.Watcher.DebounceMs))
	}

	if cfg.Search.DefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("%w: default_limit must be > 0, got %d", ErrInvalidLimit, cfg.Search.DefaultLimit))
	}
	if cfg.Search.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: cache_size must be >= 0, got %d", ErrInvalidLimit, cfg.Search.CacheSize))
	}

	if err := validateLog(&cfg.Log); err != nil {
		errs = append(errs, err)
	}

	return joinErrors(errs)
}

func validateIndexer(cfg *IndexerConfig) error {
	var errs []error

	if cfg.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be > 0, got %d", ErrInvalidBatchSize, cfg.BatchSize))
	}

	for _, pattern := range cfg.Exclude {
		if _, err := pathfilter.New([]string{pattern}); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern))
		}
	}

	return joinErrors(errs)
}

func validateLog(cfg *LogConfig) error {
	var errs []error

	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: must be debug, info, warn or error, got '%s'", ErrInvalidLogLevel, cfg.Level))
	}

	switch strings.ToLower(cfg.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'text' or 'json', got '%s'", ErrInvalidLogFormat, cfg.Format))
	}

	return joinErrors(errs)
}

// joinErrors combines multiple errors into a single error, keeping each one
// reachable through errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	args := make([]any, len(errs))
	for i, err := range errs {
		args[i] = err
	}
	return fmt.Errorf("validation failed:"+strings.Repeat("\n  - %w", len(errs)), args...)
}
