package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/fileindex/internal/cache"
	"github.com/mvp-joe/fileindex/internal/index"
	"github.com/mvp-joe/fileindex/internal/indexer"
)

// Test Plan for MCP tools:
// - start_indexing scans roots and, with wait, reports a finished task
// - start_indexing accepts roots as a JSON-encoded string
// - start_indexing rejects missing roots and invalid root paths as tool errors
// - search_index returns JSON results and honors limit
// - search_index rejects a missing query
// - get_index_status returns the Progress payload
// - stop_indexing settles to idle
// - clear_index_cache removes the cache file, and reports failures as tool errors
// - non-object arguments are rejected

func newTestIndexer(t *testing.T, withStore bool) (*indexer.Indexer, *cache.Store) {
	t.Helper()
	cfg := indexer.DefaultConfig()
	var store *cache.Store
	if withStore {
		var err error
		store, err = cache.NewStore(filepath.Join(t.TempDir(), cache.FileName), 0)
		require.NoError(t, err)
		cfg.Store = store
	}
	svc := index.NewService()
	idx := indexer.New(svc, cfg)
	t.Cleanup(func() {
		_ = idx.Close()
		svc.Close()
	})
	return idx, store
}

func seedDir(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, n := range names {
		p := filepath.Join(root, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("data"), 0644))
	}
	return root
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args any) *mcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := handler(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func startAndWait(t *testing.T, ctrl IndexController, root string) StartIndexingResponse {
	t.Helper()
	result := callTool(t, createStartIndexingHandler(ctrl), "start_indexing", map[string]interface{}{
		"roots": []interface{}{root},
		"wait":  true,
	})
	require.False(t, result.IsError, resultText(t, result))

	var resp StartIndexingResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	return resp
}

func TestStartIndexingHandler_WaitsForScan(t *testing.T) {
	t.Parallel()

	idx, _ := newTestIndexer(t, false)
	root := seedDir(t, "README.md", "src/main.go")

	resp := startAndWait(t, idx, root)

	assert.NotEmpty(t, resp.TaskID)
	assert.True(t, resp.Done)
	assert.False(t, resp.FromCache)
	assert.Equal(t, index.StatusWatching, resp.Status.Status)
	// root, README.md, src, src/main.go
	assert.Equal(t, 4, resp.Status.IndexedCount)
}

func TestStartIndexingHandler_RootsAsJSONString(t *testing.T) {
	t.Parallel()

	idx, _ := newTestIndexer(t, false)
	root := seedDir(t, "a.txt")

	encoded, err := json.Marshal([]string{root})
	require.NoError(t, err)

	result := callTool(t, createStartIndexingHandler(idx), "start_indexing", map[string]interface{}{
		"roots": string(encoded),
		"wait":  "true",
	})
	require.False(t, result.IsError, resultText(t, result))

	var resp StartIndexingResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.True(t, resp.Done)
	assert.Equal(t, 2, resp.Status.IndexedCount)
}

func TestStartIndexingHandler_InvalidInput(t *testing.T) {
	t.Parallel()

	idx, _ := newTestIndexer(t, false)
	handler := createStartIndexingHandler(idx)

	tests := []struct {
		name    string
		args    any
		wantMsg string
	}{
		{"missing roots", map[string]interface{}{}, "roots parameter is required"},
		{"empty roots", map[string]interface{}{"roots": []interface{}{}}, "roots parameter is required"},
		{"blank root", map[string]interface{}{"roots": []interface{}{"   "}}, "invalid root path"},
		{"non-object arguments", "not a map", "invalid arguments format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, handler, "start_indexing", tt.args)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.wantMsg)
		})
	}
}

func TestSearchIndexHandler(t *testing.T) {
	t.Parallel()

	idx, _ := newTestIndexer(t, false)
	root := seedDir(t, "notes/Todo.txt", "notes/todo-old.txt", "main.go")
	startAndWait(t, idx, root)

	handler := createSearchIndexHandler(idx)

	result := callTool(t, handler, "search_index", map[string]interface{}{"query": "TODO"})
	require.False(t, result.IsError)

	var resp SearchIndexResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, index.StatusWatching, resp.Status)
	for _, r := range resp.Results {
		assert.Contains(t, r.Path, filepath.Join(root, "notes"))
		assert.False(t, r.IsDir)
		assert.False(t, r.IsSymlink)
	}

	// Path mode and limit.
	result = callTool(t, handler, "search_index", map[string]interface{}{
		"query": "notes/",
		"limit": float64(1),
	})
	require.False(t, result.IsError)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestSearchIndexHandler_MissingQuery(t *testing.T) {
	t.Parallel()

	idx, _ := newTestIndexer(t, false)
	result := callTool(t, createSearchIndexHandler(idx), "search_index", map[string]interface{}{"limit": float64(5)})

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "query parameter is required")
}

func TestStatusAndStopHandlers(t *testing.T) {
	t.Parallel()

	idx, _ := newTestIndexer(t, false)
	root := seedDir(t, "x.txt")
	startAndWait(t, idx, root)

	var p index.Progress
	result := callTool(t, createGetIndexStatusHandler(idx), "get_index_status", nil)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &p))
	assert.Equal(t, index.StatusWatching, p.Status)
	assert.Equal(t, 2, p.IndexedCount)
	assert.Nil(t, p.CurrentPath)

	result = callTool(t, createStopIndexingHandler(idx), "stop_indexing", nil)
	require.False(t, result.IsError)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &p))
	assert.Equal(t, index.StatusIdle, p.Status)
	assert.Equal(t, 2, p.IndexedCount)
}

func TestClearIndexCacheHandler(t *testing.T) {
	t.Parallel()

	idx, store := newTestIndexer(t, true)
	root := seedDir(t, "cached.txt")
	startAndWait(t, idx, root)

	_, err := os.Stat(store.Path())
	require.NoError(t, err, "scan should have written the cache")

	result := callTool(t, createClearIndexCacheHandler(idx), "clear_index_cache", nil)
	require.False(t, result.IsError)

	var resp ClearCacheResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.True(t, resp.Cleared)

	_, err = os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))
}

// failingController reports errors from every fallible operation.
type failingController struct {
	IndexController
}

func (failingController) ClearCache() error {
	return errors.New("failed to clear index cache: permission denied")
}

func (failingController) Start(ctx context.Context, roots []string) (*indexer.Task, error) {
	return nil, errors.New("disk on fire")
}

func TestHandlers_ControllerErrors(t *testing.T) {
	t.Parallel()

	ctrl := failingController{}

	result := callTool(t, createClearIndexCacheHandler(ctrl), "clear_index_cache", nil)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "permission denied")

	_, err := createStartIndexingHandler(ctrl)(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "start_indexing",
			Arguments: map[string]interface{}{"roots": []interface{}{"/tmp"}},
		},
	})
	assert.Error(t, err, "unexpected failures are returned as handler errors")
}
