package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mvp-joe/chunklink/internal/correlate"
)

// ChunksFileName is the name of the chunk file inside the output directory.
const ChunksFileName = "chunks.json"

// ChunkFileMetadata describes the run that produced a chunk file.
type ChunkFileMetadata struct {
	RunID        string    `json:"run_id"`
	Generated    time.Time `json:"generated"`
	Model        string    `json:"model"`
	Dimensions   int       `json:"dimensions"`
	ChunkCount   int       `json:"chunk_count"`
	FileCount    int       `json:"file_count"`
	DuplicateIDs int       `json:"duplicate_ids"`
}

// ChunkFile is the on-disk chunk list.
type ChunkFile struct {
	Metadata ChunkFileMetadata `json:"_metadata"`
	Chunks   []correlate.Chunk `json:"chunks"`
}

// AtomicWriter handles atomic file writing using temp → rename pattern.
type AtomicWriter struct {
	outputDir string
	tempDir   string
}

// NewAtomicWriter creates the output directory and a clean temp directory inside it.
func NewAtomicWriter(outputDir string) (*AtomicWriter, error) {
	tempDir := filepath.Join(outputDir, ".tmp")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Clean up stale temp files
	if err := os.RemoveAll(tempDir); err != nil {
		return nil, fmt.Errorf("failed to clean temp directory: %w", err)
	}

	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &AtomicWriter{
		outputDir: outputDir,
		tempDir:   tempDir,
	}, nil
}

// WriteChunkFile writes the chunk file atomically and returns its final path.
func (w *AtomicWriter) WriteChunkFile(chunkFile *ChunkFile) (string, error) {
	data, err := json.MarshalIndent(chunkFile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal chunk file: %w", err)
	}

	tempPath := filepath.Join(w.tempDir, ChunksFileName)
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	finalPath := filepath.Join(w.outputDir, ChunksFileName)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}

	return finalPath, nil
}

// ReadChunkFile reads a chunk file written by a previous run.
func ReadChunkFile(path string) (*ChunkFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk file: %w", err)
	}

	var chunkFile ChunkFile
	if err := json.Unmarshal(data, &chunkFile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chunk file: %w", err)
	}
	if chunkFile.Chunks == nil {
		chunkFile.Chunks = []correlate.Chunk{}
	}

	return &chunkFile, nil
}
