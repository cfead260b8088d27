package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/fileindex/internal/indexer"
)

var (
	quietFlag bool
	watchFlag bool
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index [roots...]",
	Short: "Build the file index and refresh the cache",
	Long: `Index walks every root directory and records each file and directory it
finds. The result is saved to the index cache so later runs (search, mcp) can
start from it without scanning again.

Roots default to indexer.roots from the configuration, then to the current
directory. A fresh cache for the same roots is reused instead of scanning.

Examples:
  # Index the current directory
  fileindex index

  # Index two trees without progress output
  fileindex index ~/src ~/docs --quiet

  # Keep the index live and save it again on Ctrl+C
  fileindex index --watch
`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	indexCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Keep watching for changes until interrupted")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	roots, err := resolveRoots(args, cfg)
	if err != nil {
		return err
	}

	idx, cleanup, err := openIndexer(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return executeIndex(ctx, cmd.OutOrStdout(), idx, roots, quietFlag, watchFlag)
}

// executeIndex runs one indexing session and, in watch mode, keeps it alive
// until ctx ends, saving the cache on the way out.
func executeIndex(ctx context.Context, out io.Writer, idx *indexer.Indexer, roots []string, quiet, watch bool) error {
	if quiet {
		out = io.Discard
	}

	progress := NewCLIProgressReporter(out)
	progress.Attach(idx)
	defer progress.Detach()

	start := time.Now()
	task, err := idx.Start(ctx, roots)
	if err != nil {
		return fmt.Errorf("failed to start indexing: %w", err)
	}

	if err := task.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			idx.Stop()
			return fmt.Errorf("indexing cancelled")
		}
		return fmt.Errorf("indexing failed: %w", err)
	}
	progress.Detach()

	count := idx.Status().IndexedCount
	if task.FromCache() {
		fmt.Fprintf(out, "✓ Loaded %s entries from cache\n", formatNumber(count))
	} else {
		fmt.Fprintf(out, "✓ Indexed %s entries in %.1fs\n", formatNumber(count), time.Since(start).Seconds())
	}

	if !watch {
		return nil
	}

	fmt.Fprintln(out, "Watching for changes (Ctrl+C to stop)...")
	<-ctx.Done()

	if err := idx.SaveCache(); err != nil {
		slog.Warn("failed to save index cache on exit", slog.String("error", err.Error()))
		return nil
	}
	fmt.Fprintf(out, "✓ Saved %s entries to cache\n", formatNumber(idx.Status().IndexedCount))
	return nil
}
