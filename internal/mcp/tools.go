package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/fileindex/internal/index"
	"github.com/mvp-joe/fileindex/internal/indexer"
)

// IndexController is the set of indexing operations exposed as tools.
type IndexController interface {
	Start(ctx context.Context, roots []string) (*indexer.Task, error)
	Search(query string, limit int) []index.Result
	Status() index.Progress
	Stop()
	ClearCache() error
}

// StartIndexingResponse is returned by start_indexing.
type StartIndexingResponse struct {
	TaskID    string         `json:"task_id"`
	FromCache bool           `json:"from_cache"`
	Done      bool           `json:"done"`
	Status    index.Progress `json:"status"`
}

// SearchIndexResponse is returned by search_index.
type SearchIndexResponse struct {
	Results []index.Result `json:"results"`
	Total   int            `json:"total"`
	Status  index.Status   `json:"status"`
}

// ClearCacheResponse is returned by clear_index_cache.
type ClearCacheResponse struct {
	Cleared bool `json:"cleared"`
}

// AddIndexTools registers every indexing tool with an MCP server.
func AddIndexTools(s *server.MCPServer, ctrl IndexController) {
	AddStartIndexingTool(s, ctrl)
	AddSearchIndexTool(s, ctrl)
	AddGetIndexStatusTool(s, ctrl)
	AddStopIndexingTool(s, ctrl)
	AddClearIndexCacheTool(s, ctrl)
}

// AddStartIndexingTool registers the start_indexing tool.
func AddStartIndexingTool(s *server.MCPServer, ctrl IndexController) {
	tool := mcp.NewTool(
		"start_indexing",
		mcp.WithDescription("Start indexing the given root directories. Uses the on-disk cache when it is fresh, otherwise scans in the background, then watches for changes. Replaces any previous indexing session."),
		mcp.WithArray("roots",
			mcp.Required(),
			mcp.Description("Absolute or relative directory paths to index (e.g., ['/home/me/projects'])"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithBoolean("wait",
			mcp.Description("Wait for the initial scan to finish before returning (default: false)")),
	)
	s.AddTool(tool, createStartIndexingHandler(ctrl))
}

func createStartIndexingHandler(ctrl IndexController) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if res := checkArgumentsFormat(request); res != nil {
			return res, nil
		}

		var req StartIndexingRequest
		if err := coerceBindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		if len(req.Roots) == 0 {
			return mcp.NewToolResultError("roots parameter is required"), nil
		}

		task, err := ctrl.Start(ctx, req.Roots)
		if err != nil {
			if errors.Is(err, indexer.ErrNoRoots) || errors.Is(err, indexer.ErrInvalidRoot) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return nil, fmt.Errorf("start indexing failed: %w", err)
		}

		if req.Wait {
			if err := task.Wait(ctx); err != nil && ctx.Err() != nil {
				return nil, err
			}
		}

		done := false
		select {
		case <-task.Done():
			done = true
		default:
		}

		return marshalToolResponse(&StartIndexingResponse{
			TaskID:    task.ID,
			FromCache: task.FromCache(),
			Done:      done,
			Status:    ctrl.Status(),
		})
	}
}

// AddSearchIndexTool registers the search_index tool.
func AddSearchIndexTool(s *server.MCPServer, ctrl IndexController) {
	tool := mcp.NewTool(
		"search_index",
		mcp.WithDescription("Case-insensitive substring search over indexed file and directory names. A query containing '/' or '\\' matches against full paths instead. Works while indexing is in progress."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Substring to look for (e.g., 'readme', 'src/main')")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 1000)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createSearchIndexHandler(ctrl))
}

func createSearchIndexHandler(ctrl IndexController) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if res := checkArgumentsFormat(request); res != nil {
			return res, nil
		}

		var req SearchIndexRequest
		if err := coerceBindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		if req.Query == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		results := ctrl.Search(req.Query, req.Limit)
		return marshalToolResponse(&SearchIndexResponse{
			Results: results,
			Total:   len(results),
			Status:  ctrl.Status().Status,
		})
	}
}

// AddGetIndexStatusTool registers the get_index_status tool.
func AddGetIndexStatusTool(s *server.MCPServer, ctrl IndexController) {
	tool := mcp.NewTool(
		"get_index_status",
		mcp.WithDescription("Report the indexing status (idle, scanning, watching, error) and the number of indexed entries."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(tool, createGetIndexStatusHandler(ctrl))
}

func createGetIndexStatusHandler(ctrl IndexController) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return marshalToolResponse(ctrl.Status())
	}
}

// AddStopIndexingTool registers the stop_indexing tool.
func AddStopIndexingTool(s *server.MCPServer, ctrl IndexController) {
	tool := mcp.NewTool(
		"stop_indexing",
		mcp.WithDescription("Stop any scan in progress and stop watching for changes. Already indexed entries remain searchable."),
	)
	s.AddTool(tool, createStopIndexingHandler(ctrl))
}

func createStopIndexingHandler(ctrl IndexController) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctrl.Stop()
		return marshalToolResponse(ctrl.Status())
	}
}

// AddClearIndexCacheTool registers the clear_index_cache tool.
func AddClearIndexCacheTool(s *server.MCPServer, ctrl IndexController) {
	tool := mcp.NewTool(
		"clear_index_cache",
		mcp.WithDescription("Delete the on-disk index cache so the next start_indexing performs a full scan. The in-memory index is kept."),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(tool, createClearIndexCacheHandler(ctrl))
}

func createClearIndexCacheHandler(ctrl IndexController) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := ctrl.ClearCache(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return marshalToolResponse(&ClearCacheResponse{Cleared: true})
	}
}
