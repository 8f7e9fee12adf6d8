package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/chunklink/internal/config"
	"github.com/mvp-joe/chunklink/internal/embed"
	"github.com/mvp-joe/chunklink/internal/mcp"
	"github.com/mvp-joe/chunklink/internal/vectorindex"
)

var transportFlag string

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the retrieval tools server",
	Long: `Start a Model Context Protocol (MCP) server that lets coding assistants query
the indexed project.

Tools:
  get_relevant_code       semantic search through the vector index
  get_code_file_contents  contents of a project file by base name
  get_list_of_code_files  base names of the project's source and style files
  search_code             keyword search over the chunk file
  trace_test              chunks a test reaches through selectors and handlers

The server speaks stdio by default; --transport http serves the streamable HTTP
transport on mcp.address + mcp.endpoint_path.

Example:
  chunklink mcp --transport http`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&transportFlag, "transport", "", "Transport: stdio or http (overrides config)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout belongs to the stdio transport
	log.SetOutput(os.Stderr)

	ctx, cancel := signalContext(nil)
	defer cancel()

	rootDir, cfg, err := loadProject()
	if err != nil {
		return err
	}
	if transportFlag != "" {
		cfg.MCP.Transport = transportFlag
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}

	index, err := vectorindex.New(cfg, rootDir)
	if err != nil {
		return fmt.Errorf("failed to open vector index: %w", err)
	}

	fmt.Fprintf(os.Stderr, "chunklink MCP Server\n")
	fmt.Fprintf(os.Stderr, "Project: %s\n", rootDir)
	fmt.Fprintf(os.Stderr, "Vector index: %s collection %q\n\n", cfg.VectorIndex.Backend, cfg.VectorIndex.Collection)

	server, err := mcp.NewServer(ctx, rootDir, cfg, embed.NewHTTPProvider(cfg.Embedding), index)
	if err != nil {
		index.Close()
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
