package cli

// Test Plan for CLIProgressReporter and logging:
// - scanning events open a bar, a settled status closes it
// - events outside a scan draw nothing
// - Detach is safe to call twice
// - newLogger honors format and level

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/fileindex/internal/config"
	"github.com/mvp-joe/fileindex/internal/index"
)

func TestCLIProgressReporter_ScanLifecycle(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := NewCLIProgressReporter(&out)

	r.handle(index.Event{Kind: index.EventStatus, Progress: index.Progress{Status: index.StatusScanning}})
	require.NotNil(t, r.bar)

	r.handle(index.Event{Kind: index.EventProgress, Progress: index.Progress{Status: index.StatusScanning, IndexedCount: 5000}})
	r.handle(index.Event{Kind: index.EventStatus, Progress: index.Progress{Status: index.StatusWatching, IndexedCount: 7000}})
	assert.Nil(t, r.bar)
	assert.Contains(t, out.String(), "Scanning")
}

func TestCLIProgressReporter_IgnoresIdleEvents(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := NewCLIProgressReporter(&out)

	r.handle(index.Event{Kind: index.EventProgress, Progress: index.Progress{Status: index.StatusWatching, IndexedCount: 3}})
	assert.Nil(t, r.bar)
	assert.Empty(t, out.String())
}

func TestCLIProgressReporter_AttachDetach(t *testing.T) {
	t.Parallel()

	svc := index.NewService()
	t.Cleanup(svc.Close)

	var out bytes.Buffer
	r := NewCLIProgressReporter(&out)
	r.Attach(svc)

	svc.SetStatus(index.StatusScanning)
	r.Detach()
	r.Detach()
	assert.Nil(t, r.bar)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
	logger.Info("hidden")
	logger.Warn("shown", slog.String("path", "/x"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg":"shown"`)
	assert.Contains(t, lines[0], `"path":"/x"`)

	buf.Reset()
	logger = newLogger(&buf, config.LogConfig{Level: "bogus", Format: "text"})
	logger.Debug("hidden")
	logger.Info("visible")
	assert.Contains(t, buf.String(), "msg=visible")
	assert.NotContains(t, buf.String(), "hidden")
}
