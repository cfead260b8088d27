package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DirName is the per-user configuration directory under $HOME.
const DirName = ".fileindex"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	configDir  string
	configFile string
}

// NewLoader creates a loader that looks for config.yml (or config.yaml) in
// configDir. A missing file is not an error.
func NewLoader(configDir string) Loader {
	return &loader{
		configDir: configDir,
	}
}

// NewFileLoader creates a loader for an explicit config file, which must exist.
func NewFileLoader(path string) Loader {
	return &loader{
		configDir:  filepath.Dir(path),
		configFile: path,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (FILEINDEX_*)
// 2. Config file (~/.fileindex/config.yml or --config)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(l.configDir)
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("FILEINDEX")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., FILEINDEX_INDEXER_BATCH_SIZE)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVars(v)
	setDefaults(v, l.configDir)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || l.configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// bindEnvVars binds every key so AutomaticEnv sees it during Unmarshal.
func bindEnvVars(v *viper.Viper) {
	// Indexer configuration
	v.BindEnv("indexer.roots")
	v.BindEnv("indexer.batch_size")
	v.BindEnv("indexer.exclude")
	v.BindEnv("indexer.ignore_file")

	// Cache configuration
	v.BindEnv("cache.enabled")
	v.BindEnv("cache.path")
	v.BindEnv("cache.max_age_hours")

	// Watcher configuration
	v.BindEnv("watcher.queue_size")
	v.BindEnv("watcher.debounce_ms")

	// Search configuration
	v.BindEnv("search.default_limit")
	v.BindEnv("search.cache_size")

	// Logging
	v.BindEnv("log.level")
	v.BindEnv("log.format")
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper, configDir string) {
	defaults := Default()

	v.SetDefault("indexer.roots", defaults.Indexer.Roots)
	v.SetDefault("indexer.batch_size", defaults.Indexer.BatchSize)
	v.SetDefault("indexer.exclude", defaults.Indexer.Exclude)
	v.SetDefault("indexer.ignore_file", filepath.Join(configDir, "ignore"))

	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.path", defaults.Cache.Path)
	v.SetDefault("cache.max_age_hours", defaults.Cache.MaxAgeHours)

	v.SetDefault("watcher.queue_size", defaults.Watcher.QueueSize)
	v.SetDefault("watcher.debounce_ms", defaults.Watcher.DebounceMs)

	v.SetDefault("search.default_limit", defaults.Search.DefaultLimit)
	v.SetDefault("search.cache_size", defaults.Search.CacheSize)

	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
}

// DefaultDir returns ~/.fileindex.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// LoadConfig loads from path when non-empty, otherwise from ~/.fileindex.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return NewFileLoader(path).Load()
	}
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return NewLoader(dir).Load()
}
