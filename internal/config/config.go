package config

// Config represents the complete fileindex configuration.
// It can be loaded from ~/.fileindex/config.yml with environment variable overrides.
type Config struct {
	Indexer IndexerConfig `yaml:"indexer" mapstructure:"indexer"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Watcher WatcherConfig `yaml:"watcher" mapstructure:"watcher"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// IndexerConfig defines what gets scanned.
type IndexerConfig struct {
	Roots      []string `yaml:"roots" mapstructure:"roots"`             // default roots when none are given on the command line
	BatchSize  int      `yaml:"batch_size" mapstructure:"batch_size"`   // entries per write section during a scan
	Exclude    []string `yaml:"exclude" mapstructure:"exclude"`         // glob patterns matched against base name or full path
	IgnoreFile string   `yaml:"ignore_file" mapstructure:"ignore_file"` // gitignore-style file; skipped if missing
}

// CacheConfig controls the on-disk snapshot.
type CacheConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Path        string `yaml:"path" mapstructure:"path"` // empty means the user cache directory
	MaxAgeHours int    `yaml:"max_age_hours" mapstructure:"max_age_hours"`
}

// WatcherConfig tunes live updates.
type WatcherConfig struct {
	QueueSize  int `yaml:"queue_size" mapstructure:"queue_size"`   // pending events before the producer blocks
	DebounceMs int `yaml:"debounce_ms" mapstructure:"debounce_ms"` // progress notification quiet period
}

// SearchConfig tunes queries.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit" mapstructure:"default_limit"`
	CacheSize    int `yaml:"cache_size" mapstructure:"cache_size"` // memoized result sets, 0 disables
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Indexer: IndexerConfig{
			Roots:     []string{},
			BatchSize: 5000,
			Exclude:   []string{},
		},
		Cache: CacheConfig{
			Enabled:     true,
			Path:        "",
			MaxAgeHours: 24,
		},
		Watcher: WatcherConfig{
			QueueSize:  1000,
			DebounceMs: 300,
		},
		Search: SearchConfig{
			DefaultLimit: 1000,
			CacheSize:    256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
