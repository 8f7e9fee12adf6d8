// Package vectorindex stores embedded chunks in a named collection of fixed-dimension
// vectors under cosine distance.
package vectorindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/mvp-joe/chunklink/internal/config"
)

// ErrDimensionConflict indicates an existing collection was created for a different vector size.
var ErrDimensionConflict = errors.New("collection dimension conflict")

// Point is one vector and the payload stored alongside it.
type Point struct {
	// ID is the position of the chunk in the chunk list.
	ID      int
	Vector  []float32
	Payload map[string]any
}

// Hit is one search result.
type Hit struct {
	ID      int
	Score   float32
	Payload map[string]any
}

// Index is a vector collection backend.
type Index interface {
	// Provision prepares the collection. ProvisionRecreate drops existing data;
	// ProvisionCreateIfAbsent keeps it and only creates a missing collection.
	Provision(ctx context.Context, policy string, dimensions int) error

	// Upsert writes points, replacing any with the same id.
	Upsert(ctx context.Context, points []Point) error

	// Search returns up to limit points closest to vector, best first.
	Search(ctx context.Context, vector []float32, limit int) ([]Hit, error)

	// Close releases any resources held by the index.
	Close() error
}

// New creates the configured backend. rootDir anchors relative chromem paths.
func New(cfg *config.Config, rootDir string) (Index, error) {
	switch cfg.VectorIndex.Backend {
	case config.BackendQdrant:
		return NewQdrant(cfg.VectorIndex)
	case config.BackendChromem:
		return NewChromem(cfg.VectorPath(rootDir), cfg.VectorIndex.Collection)
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrInvalidBackend, cfg.VectorIndex.Backend)
	}
}

// BatchFunc is called after each successful upsert batch.
type BatchFunc func(batch, total, points int)

// UpsertBatched writes points in consecutive batches of at most batchSize, strictly one
// after another. Batches already written stay written when a later one fails; the
// returned error names the failed batch.
func UpsertBatched(ctx context.Context, idx Index, points []Point, batchSize int, onBatch BatchFunc) error {
	if batchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	total := (len(points) + batchSize - 1) / batchSize
	for i := 0; i < total; i++ {
		start := i * batchSize
		end := min(start+batchSize, len(points))

		if err := idx.Upsert(ctx, points[start:end]); err != nil {
			return fmt.Errorf("batch %d/%d failed: %w", i+1, total, err)
		}
		if onBatch != nil {
			onBatch(i+1, total, end)
		}
	}
	return nil
}
