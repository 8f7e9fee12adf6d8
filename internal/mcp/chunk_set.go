package mcp

import (
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/mvp-joe/chunklink/internal/correlate"
	"github.com/mvp-joe/chunklink/internal/pipeline"
)

// ChunkSet is an immutable collection of chunks. Positions match the vector point ids.
type ChunkSet struct {
	chunks []correlate.Chunk
	byName map[string][]int
}

// NewChunkSet indexes chunks by name.
func NewChunkSet(chunks []correlate.Chunk) *ChunkSet {
	cs := &ChunkSet{
		chunks: chunks,
		byName: make(map[string][]int),
	}
	for i, c := range chunks {
		cs.byName[c.Name] = append(cs.byName[c.Name], i)
	}
	return cs
}

// LoadChunkSet reads the chunk file at path. A missing file yields an empty set so the
// server can start before the first run.
func LoadChunkSet(path string) (*ChunkSet, error) {
	chunkFile, err := pipeline.ReadChunkFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("No chunk file at %s, keyword search and tracing are empty", path)
			return NewChunkSet(nil), nil
		}
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	return NewChunkSet(chunkFile.Chunks), nil
}

// Len returns the number of chunks.
func (cs *ChunkSet) Len() int {
	return len(cs.chunks)
}

// At returns the chunk at position i.
func (cs *ChunkSet) At(i int) *correlate.Chunk {
	return &cs.chunks[i]
}

// Named returns the positions of chunks with the given name, in chunk order.
func (cs *ChunkSet) Named(name string) []int {
	return cs.byName[name]
}
