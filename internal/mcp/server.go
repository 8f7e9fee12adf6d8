// Package mcp serves the retrieval tools over the Model Context Protocol: semantic search
// through the vector index, keyword search and test tracing over the chunk file, and
// project file access.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/chunklink/internal/config"
	"github.com/mvp-joe/chunklink/internal/embed"
	"github.com/mvp-joe/chunklink/internal/sourceset"
	"github.com/mvp-joe/chunklink/internal/vectorindex"
)

const (
	queryCacheSize = 1024
	queryCacheTTL  = 30 * time.Minute
)

// Server manages the tools server lifecycle.
type Server struct {
	cfg      *config.Config
	provider embed.Provider
	index    vectorindex.Index
	keywords *KeywordIndex
	mcp      *server.MCPServer
}

// NewServer loads the chunk file, builds the keyword index and trace graph, and registers
// every tool. The server takes ownership of provider and index.
func NewServer(ctx context.Context, rootDir string, cfg *config.Config, provider embed.Provider, index vectorindex.Index) (*Server, error) {
	if provider == nil || index == nil {
		return nil, fmt.Errorf("embedding provider and vector index are required")
	}

	cached, err := embed.NewCachedProvider(provider, queryCacheSize, queryCacheTTL)
	if err != nil {
		return nil, err
	}

	filter, err := sourceset.New(rootDir, cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to create source filter: %w", err)
	}

	chunks, err := LoadChunkSet(cfg.ChunksPath(rootDir))
	if err != nil {
		return nil, err
	}

	keywords, err := NewKeywordIndex(ctx, chunks)
	if err != nil {
		return nil, err
	}

	trace, err := NewTraceGraph(chunks)
	if err != nil {
		keywords.Close()
		return nil, fmt.Errorf("failed to build trace graph: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"chunklink",
		Version,
		server.WithToolCapabilities(true),
	)

	files := NewCodeFiles(rootDir, filter, cfg.MCP.ListExtensions)
	AddGetRelevantCodeTool(mcpServer, cached, index, cfg.MCP.ResultLimit)
	AddGetCodeFileContentsTool(mcpServer, files)
	AddGetListOfCodeFilesTool(mcpServer, files)
	AddSearchCodeTool(mcpServer, chunks, keywords, cfg.MCP.ResultLimit)
	AddTraceTestTool(mcpServer, chunks, trace)

	log.Printf("Loaded %d chunks from %s", chunks.Len(), cfg.ChunksPath(rootDir))

	return &Server{
		cfg:      cfg,
		provider: cached,
		index:    index,
		keywords: keywords,
		mcp:      mcpServer,
	}, nil
}

// Version is reported to clients during initialization.
var Version = "dev"

// MCP returns the underlying server, for in-process clients.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve runs the configured transport until ctx is cancelled or the transport fails.
func (s *Server) Serve(ctx context.Context) error {
	switch s.cfg.MCP.Transport {
	case config.TransportHTTP:
		return s.serveHTTP(ctx)
	default:
		return s.serveStdio(ctx)
	}
}

func (s *Server) serveStdio(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		errCh <- server.ServeStdio(s.mcp)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (s *Server) serveHTTP(ctx context.Context) error {
	httpServer := server.NewStreamableHTTPServer(s.mcp, server.WithEndpointPath(s.cfg.MCP.EndpointPath))

	errCh := make(chan error, 1)
	go func() {
		log.Printf("MCP server running at http://%s%s", s.cfg.MCP.Address, s.cfg.MCP.EndpointPath)
		errCh <- httpServer.Start(s.cfg.MCP.Address)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Printf("Received shutdown signal, stopping gracefully...")
		return httpServer.Shutdown(shutdownCtx)
	}
}

// Close releases all resources.
func (s *Server) Close() error {
	var errs []error
	if s.keywords != nil {
		errs = append(errs, s.keywords.Close())
	}
	if s.index != nil {
		errs = append(errs, s.index.Close())
	}
	if s.provider != nil {
		errs = append(errs, s.provider.Close())
	}
	return errors.Join(errs...)
}
