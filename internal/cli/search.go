package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/fileindex/internal/index"
	"github.com/mvp-joe/fileindex/internal/indexer"
)

var (
	searchRoots []string
	searchLimit int
	searchJSON  bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed file and directory names",
	Long: `Search loads the index (from the cache when it is fresh, otherwise by
scanning) and prints every entry whose name contains the query, ignoring case.
A query containing a path separator matches against full paths instead.

Examples:
  # Find README files under the configured roots
  fileindex search readme

  # Match on paths, limited to 20 results
  fileindex search src/main --limit 20

  # Machine-readable output
  fileindex search .go --root ~/src --json
`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringSliceVarP(&searchRoots, "root", "r", nil, "Root directory to search (repeatable)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum number of results (default: search.default_limit)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	roots, err := resolveRoots(searchRoots, cfg)
	if err != nil {
		return err
	}

	idx, cleanup, err := openIndexer(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return executeSearch(ctx, cmd.OutOrStdout(), idx, roots, args[0], searchLimit, searchJSON)
}

// searchOutput is the --json payload.
type searchOutput struct {
	Query   string         `json:"query"`
	Total   int            `json:"total"`
	Results []index.Result `json:"results"`
}

func executeSearch(ctx context.Context, out io.Writer, idx *indexer.Indexer, roots []string, query string, limit int, asJSON bool) error {
	task, err := idx.Start(ctx, roots)
	if err != nil {
		return fmt.Errorf("failed to start indexing: %w", err)
	}
	if err := task.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("search cancelled")
		}
		return fmt.Errorf("indexing failed: %w", err)
	}

	results := idx.Search(query, limit)

	if asJSON {
		jsonBytes, err := json.MarshalIndent(&searchOutput{
			Query:   query,
			Total:   len(results),
			Results: results,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(jsonBytes))
		return nil
	}

	if len(results) == 0 {
		fmt.Fprintf(out, "No matches for %q\n", query)
		return nil
	}
	for _, r := range results {
		if r.IsDir {
			fmt.Fprintf(out, "%s%c\n", r.Path, filepath.Separator)
			continue
		}
		fmt.Fprintln(out, r.Path)
	}
	return nil
}
