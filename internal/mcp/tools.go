package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/chunklink/internal/embed"
	"github.com/mvp-joe/chunklink/internal/vectorindex"
)

const maxResultLimit = 100

type toolHandler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// AddGetRelevantCodeTool registers get_relevant_code: semantic search over the vector index.
func AddGetRelevantCodeTool(s *server.MCPServer, provider embed.Provider, index vectorindex.Index, defaultLimit int) {
	tool := mcp.NewTool(
		"get_relevant_code",
		mcp.WithDescription("Find the functions, components and tests most related to a natural language query. Returns one 'name (filePath)' line per match, best first."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What to look for, e.g. 'add to cart button' or 'checkout form validation'")),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of results (1-%d, default: %d)", maxResultLimit, defaultLimit))),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, createGetRelevantCodeHandler(provider, index, defaultLimit))
}

func createGetRelevantCodeHandler(provider embed.Provider, index vectorindex.Index, defaultLimit int) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argumentsOf(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		query, err := parseStringArg(argsMap, "query", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := parseClampedInt(argsMap, "limit", defaultLimit, 1, maxResultLimit)

		vectors, err := provider.Embed(ctx, []string{query})
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		if err := embed.Validate(vectors, 1, provider.Dimensions()); err != nil {
			return nil, err
		}

		hits, err := index.Search(ctx, vectors[0], limit)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}

		lines := make([]string, 0, len(hits))
		for _, hit := range hits {
			name, _ := hit.Payload["name"].(string)
			filePath, _ := hit.Payload["filePath"].(string)
			lines = append(lines, fmt.Sprintf("%s (%s)", name, filePath))
		}
		return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
	}
}

// AddGetCodeFileContentsTool registers get_code_file_contents.
func AddGetCodeFileContentsTool(s *server.MCPServer, files *CodeFiles) {
	tool := mcp.NewTool(
		"get_code_file_contents",
		mcp.WithDescription("Return the contents of a project file, looked up by its base name (e.g. 'Cart.tsx')."),
		mcp.WithString("filename",
			mcp.Required(),
			mcp.Description("Base name of the file, as returned by get_list_of_code_files")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, createGetCodeFileContentsHandler(files))
}

func createGetCodeFileContentsHandler(files *CodeFiles) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argumentsOf(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filename, err := parseStringArg(argsMap, "filename", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		contents, err := files.Contents(filename)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(contents), nil
	}
}

// AddGetListOfCodeFilesTool registers get_list_of_code_files.
func AddGetListOfCodeFilesTool(s *server.MCPServer, files *CodeFiles) {
	tool := mcp.NewTool(
		"get_list_of_code_files",
		mcp.WithDescription("List the base names of the project's source and style files, one per line."),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, createGetListOfCodeFilesHandler(files))
}

func createGetListOfCodeFilesHandler(files *CodeFiles) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := files.List()
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}
		return mcp.NewToolResultText(strings.Join(names, "\n")), nil
	}
}

// AddSearchCodeTool registers search_code: keyword search over the chunk file.
func AddSearchCodeTool(s *server.MCPServer, chunks *ChunkSet, keywords *KeywordIndex, defaultLimit int) {
	tool := mcp.NewTool(
		"search_code",
		mcp.WithDescription("Keyword search over chunk names, code, selectors and linked test names. Use for exact identifiers such as a data-testid value or a handler name."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Keywords or an exact identifier, e.g. 'btn-checkout' or 'handleSubmit'")),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of results (1-%d, default: %d)", maxResultLimit, defaultLimit))),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, createSearchCodeHandler(chunks, keywords, defaultLimit))
}

func createSearchCodeHandler(chunks *ChunkSet, keywords *KeywordIndex, defaultLimit int) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argumentsOf(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		query, err := parseStringArg(argsMap, "query", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := parseClampedInt(argsMap, "limit", defaultLimit, 1, maxResultLimit)

		hits, err := keywords.Search(ctx, query, limit)
		if err != nil {
			return nil, err
		}

		lines := make([]string, 0, len(hits))
		for _, hit := range hits {
			c := chunks.At(hit.Position)
			lines = append(lines, fmt.Sprintf("%s [%s] (%s)", c.Name, c.Kind, c.FilePath))
		}
		return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
	}
}

// AddTraceTestTool registers trace_test: the chunks a test reaches through selectors and handlers.
func AddTraceTestTool(s *server.MCPServer, chunks *ChunkSet, trace *TraceGraph) {
	tool := mcp.NewTool(
		"trace_test",
		mcp.WithDescription("Given a test title, list the chunks it exercises: chunks whose selectors the test uses, then the chunks of the handlers those elements bind. One 'id [kind]' line per chunk."),
		mcp.WithString("test",
			mcp.Required(),
			mcp.Description("Test title as written in the test file, e.g. 'adds item to cart'")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, createTraceTestHandler(chunks, trace))
}

func createTraceTestHandler(chunks *ChunkSet, trace *TraceGraph) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argumentsOf(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		test, err := parseStringArg(argsMap, "test", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		positions, err := trace.Trace(test)
		if err != nil {
			return nil, err
		}

		lines := make([]string, 0, len(positions))
		for _, pos := range positions {
			c := chunks.At(pos)
			lines = append(lines, fmt.Sprintf("%s [%s]", c.ID, c.Kind))
		}
		return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
	}
}
