// Package mcp exposes the file index to MCP clients over stdio: five tools for
// control and search, plus index notifications pushed to every client.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/fileindex/internal/index"
	"github.com/mvp-joe/fileindex/internal/indexer"
)

// Notification methods forwarded to clients.
const (
	MethodIndexStatus   = "notifications/index/status"
	MethodIndexProgress = "notifications/index/progress"
)

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name    string
	Version string

	// Roots, when set, are indexed as soon as Serve starts.
	Roots []string

	Logger *slog.Logger
}

// DefaultServerConfig returns a configuration with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Name:    "fileindex",
		Version: "1.0.0",
	}
}

// Server manages the MCP server lifecycle.
type Server struct {
	config *ServerConfig
	idx    *indexer.Indexer
	mcp    *server.MCPServer
	logger *slog.Logger

	sub       *index.Subscription
	forwardWG sync.WaitGroup
	closeOnce sync.Once
}

// NewServer creates an MCP server backed by idx and registers the tools.
func NewServer(idx *indexer.Indexer, config *ServerConfig) (*Server, error) {
	if idx == nil {
		return nil, fmt.Errorf("indexer is required")
	}
	if config == nil {
		config = DefaultServerConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)
	AddIndexTools(mcpServer, idx)

	return &Server{
		config: config,
		idx:    idx,
		mcp:    mcpServer,
		logger: logger,
	}, nil
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve starts forwarding index events, kicks off indexing of the configured
// roots and serves stdio until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	s.startForwarding()

	if len(s.config.Roots) > 0 {
		if _, err := s.idx.Start(ctx, s.config.Roots); err != nil {
			s.logger.Warn("failed to start indexing", slog.String("error", err.Error()))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-sigCh:
		s.logger.Info("received shutdown signal, stopping gracefully")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startForwarding relays index events to connected clients.
func (s *Server) startForwarding() {
	if s.sub != nil {
		return
	}
	s.sub = s.idx.Subscribe(256)
	s.forwardWG.Add(1)
	go func() {
		defer s.forwardWG.Done()
		for ev := range s.sub.C {
			s.forward(ev)
		}
	}()
}

func (s *Server) forward(ev index.Event) {
	method := MethodIndexProgress
	if ev.Kind == index.EventStatus {
		method = MethodIndexStatus
	}
	s.mcp.SendNotificationToAllClients(method, progressParams(ev.Progress))
}

// Close stops forwarding and releases the indexer.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.sub != nil {
			s.idx.Unsubscribe(s.sub)
			s.forwardWG.Wait()
		}
		err = s.idx.Close()
	})
	return err
}
