package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/fileindex/internal/config"
	"github.com/mvp-joe/fileindex/internal/indexer"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fileindex",
	Short: "Fileindex - fast file name search across your directories",
	Long: `Fileindex keeps an in-memory index of every file and directory under a set
of roots, updates it live as the file system changes and answers substring
searches over names and paths in milliseconds.

The index is persisted to a cache file so later runs start warm. It can be
used from the command line or served to coding assistants over MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fileindex/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration and installs the configured logger as
// the slog default. Logs always go to stderr so stdout stays clean for
// results and the MCP protocol.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openIndexer builds an indexer from cfg. The returned cleanup stops all
// background work and releases subscribers.
func openIndexer(cfg *config.Config, logger *slog.Logger) (*indexer.Indexer, func(), error) {
	ic, err := cfg.ToIndexerConfig(logger)
	if err != nil {
		return nil, nil, err
	}

	svc := cfg.NewService()
	idx := indexer.New(svc, ic)
	cleanup := func() {
		_ = idx.Close()
		svc.Close()
	}
	return idx, cleanup, nil
}

// resolveRoots picks the roots to index: explicit arguments first, then the
// configured roots, then the current directory.
func resolveRoots(args []string, cfg *config.Config) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(cfg.Indexer.Roots) > 0 {
		return cfg.Indexer.Roots, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return []string{wd}, nil
}
