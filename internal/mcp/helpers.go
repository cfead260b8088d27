package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mvp-joe/fileindex/internal/index"
)

// checkArgumentsFormat rejects requests whose arguments are not an object.
// A request without arguments is accepted.
func checkArgumentsFormat(request mcp.CallToolRequest) *mcp.CallToolResult {
	raw := request.GetRawArguments()
	if raw == nil {
		return nil
	}
	if _, ok := raw.(map[string]any); !ok {
		return mcp.NewToolResultError("invalid arguments format")
	}
	return nil
}

// marshalToolResponse marshals a response object to JSON and returns it as an MCP tool result.
func marshalToolResponse(response any) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// progressParams renders a Progress as notification params.
func progressParams(p index.Progress) map[string]any {
	var current any
	if p.CurrentPath != nil {
		current = *p.CurrentPath
	}
	return map[string]any{
		"status":        string(p.Status),
		"indexed_count": p.IndexedCount,
		"current_path":  current,
	}
}
