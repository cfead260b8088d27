package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/fileindex/internal/mcp"
)

var mcpRoots []string

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for file name search",
	Long: `Start the Model Context Protocol (MCP) server that lets coding assistants
index directories and search file names.

The MCP server:
- Provides start_indexing, search_index, get_index_status, stop_indexing and
  clear_index_cache tools
- Pushes notifications/index/status and notifications/index/progress to clients
- Communicates via stdio (standard MCP transport)

Roots given with --root (or indexer.roots in the configuration) are indexed as
soon as the server starts.

Example:
  fileindex mcp --root ~/src`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringSliceVarP(&mcpRoots, "root", "r", nil, "Root directory to index on startup (repeatable)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	roots := mcpRoots
	if len(roots) == 0 {
		roots = cfg.Indexer.Roots
	}

	idx, cleanup, err := openIndexer(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server, err := mcp.NewServer(idx, &mcp.ServerConfig{
		Name:    "fileindex",
		Version: Version,
		Roots:   roots,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	// Serve (blocks until shutdown)
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}
