package mcp

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dominikbraun/graph"
)

const (
	testVertexPrefix  = "test:"
	chunkVertexPrefix = "chunk:"
)

// TraceGraph links test names to the chunks they exercise, and chunks to the chunks of
// the handlers they bind.
type TraceGraph struct {
	chunks *ChunkSet
	g      graph.Graph[string, string]
}

// NewTraceGraph builds the directed graph:
//
//	test -> chunk         when the test is in the chunk's linkedTests or reverseTests
//	chunk -> handler      for each linked handler with a chunk of that name, same file first
func NewTraceGraph(chunks *ChunkSet) (*TraceGraph, error) {
	g := graph.New(graph.StringHash, graph.Directed())

	for i := 0; i < chunks.Len(); i++ {
		if err := g.AddVertex(chunkVertex(i)); err != nil {
			return nil, fmt.Errorf("failed to add chunk %d: %w", i, err)
		}
	}

	for i := 0; i < chunks.Len(); i++ {
		c := chunks.At(i)

		for _, test := range append(append([]string{}, c.LinkedTests...), c.ReverseTests...) {
			tv := testVertexPrefix + test
			if err := g.AddVertex(tv); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
				return nil, fmt.Errorf("failed to add test %s: %w", test, err)
			}
			if err := addEdge(g, tv, chunkVertex(i)); err != nil {
				return nil, err
			}
		}

		for _, handler := range c.LinkedHandlers {
			for _, target := range handlerChunks(chunks, handler, c.FilePath) {
				if target == i {
					continue
				}
				if err := addEdge(g, chunkVertex(i), chunkVertex(target)); err != nil {
					return nil, err
				}
			}
		}
	}

	return &TraceGraph{chunks: chunks, g: g}, nil
}

// handlerChunks resolves a handler name to chunk positions, preferring the same file.
func handlerChunks(chunks *ChunkSet, handler, filePath string) []int {
	named := chunks.Named(handler)
	var local []int
	for _, pos := range named {
		if chunks.At(pos).FilePath == filePath {
			local = append(local, pos)
		}
	}
	if len(local) > 0 {
		return local
	}
	return named
}

func addEdge(g graph.Graph[string, string], from, to string) error {
	if err := g.AddEdge(from, to); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return fmt.Errorf("failed to link %s to %s: %w", from, to, err)
	}
	return nil
}

func chunkVertex(pos int) string {
	return chunkVertexPrefix + strconv.Itoa(pos)
}

// Trace returns the positions of every chunk reachable from the test, in chunk order.
// An unknown test yields nothing.
func (t *TraceGraph) Trace(test string) ([]int, error) {
	start := testVertexPrefix + test
	if _, err := t.g.Vertex(start); err != nil {
		if errors.Is(err, graph.ErrVertexNotFound) {
			return []int{}, nil
		}
		return nil, err
	}

	reached := []int{}
	err := graph.BFS(t.g, start, func(v string) bool {
		if rest, ok := strings.CutPrefix(v, chunkVertexPrefix); ok {
			if pos, err := strconv.Atoi(rest); err == nil {
				reached = append(reached, pos)
			}
		}
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("failed to traverse from %s: %w", test, err)
	}

	sort.Ints(reached)
	return reached, nil
}
