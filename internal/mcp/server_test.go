package mcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/fileindex/internal/index"
)

// Test Plan for Server:
// - NewServer requires an indexer
// - NewServer fills in defaults and registers every tool
// - Forwarding starts once and Close returns after draining
// - progressParams renders a nil current path as null

func TestNewServer_RequiresIndexer(t *testing.T) {
	t.Parallel()

	_, err := NewServer(nil, nil)
	assert.Error(t, err)
}

func TestNewServer_Defaults(t *testing.T) {
	t.Parallel()

	idx, _ := newTestIndexer(t, false)
	srv, err := NewServer(idx, nil)
	require.NoError(t, err)

	assert.Equal(t, "fileindex", srv.config.Name)
	assert.NotNil(t, srv.logger)
	require.NotNil(t, srv.MCP())

	tools := srv.MCP().ListTools()
	for _, name := range []string{"start_indexing", "search_index", "get_index_status", "stop_indexing", "clear_index_cache"} {
		assert.Contains(t, tools, name)
	}
}

func TestServer_ForwardingAndClose(t *testing.T) {
	t.Parallel()

	idx, _ := newTestIndexer(t, false)
	srv, err := NewServer(idx, DefaultServerConfig())
	require.NoError(t, err)

	srv.startForwarding()
	first := srv.sub
	srv.startForwarding()
	assert.Same(t, first, srv.sub, "forwarding starts once")

	root := seedDir(t, "a.txt", "b.txt")
	task, err := idx.Start(t.Context(), []string{root})
	require.NoError(t, err)
	require.NoError(t, task.Wait(t.Context()))

	closed := make(chan struct{})
	go func() {
		_ = srv.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}

	// Second Close is a no-op.
	assert.NoError(t, srv.Close())
}

func TestProgressParams(t *testing.T) {
	t.Parallel()

	params := progressParams(index.Progress{Status: index.StatusScanning, IndexedCount: 7})
	assert.Equal(t, "scanning", params["status"])
	assert.Equal(t, 7, params["indexed_count"])
	assert.Nil(t, params["current_path"])

	path := "/tmp/x"
	params = progressParams(index.Progress{Status: index.StatusWatching, IndexedCount: 8, CurrentPath: &path})
	assert.Equal(t, "/tmp/x", params["current_path"])
}
