package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/fileindex/internal/cache"
)

var cleanQuietFlag bool

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete the index cache to force a full scan",
	Long: `Clean removes the index cache file. The next 'fileindex index', 'search' or
MCP start_indexing call will perform a full scan.

The configuration file (~/.fileindex/config.yml) is preserved.

Examples:
  # Remove the cache
  fileindex clean

  # Remove the cache with minimal output
  fileindex clean --quiet
`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanQuietFlag, "quiet", "q", false, "Suppress output messages")
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := cfg.NewStore(logger)
	if err != nil {
		return err
	}

	return executeClean(cmd.OutOrStdout(), store, cleanQuietFlag)
}

func executeClean(out io.Writer, store *cache.Store, quiet bool) error {
	// A corrupt file still exists and is removed; only the entry count is lost.
	info, _ := store.Info()
	if !info.Exists {
		if !quiet {
			fmt.Fprintln(out, "No index cache found")
		}
		return nil
	}

	if err := store.Clear(); err != nil {
		return err
	}

	if !quiet {
		if info.Entries > 0 {
			fmt.Fprintf(out, "✓ Cleaned index cache (%s entries)\n", formatNumber(info.Entries))
		} else {
			fmt.Fprintln(out, "✓ Cleaned index cache")
		}
		fmt.Fprintln(out, "Next 'fileindex index' will perform a full scan")
	}
	return nil
}
