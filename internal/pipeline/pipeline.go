// Package pipeline runs one end-to-end pass: source discovery, correlation, the chunk
// file, embedding and vector indexing.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvp-joe/chunklink/internal/config"
	"github.com/mvp-joe/chunklink/internal/correlate"
	"github.com/mvp-joe/chunklink/internal/embed"
	"github.com/mvp-joe/chunklink/internal/sourceset"
	"github.com/mvp-joe/chunklink/internal/vectorindex"
)

// Options adjust a single run.
type Options struct {
	// ExtractOnly stops after the chunk file is written.
	ExtractOnly bool

	// Provisioning overrides the configured policy when non-empty.
	Provisioning string
}

// Pipeline wires the stages of a run together.
type Pipeline struct {
	rootDir  string
	cfg      *config.Config
	provider embed.Provider
	index    vectorindex.Index
	progress ProgressReporter
}

// New creates a pipeline. provider and index may be nil for extract-only runs.
func New(rootDir string, cfg *config.Config, provider embed.Provider, index vectorindex.Index, progress ProgressReporter) *Pipeline {
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}
	return &Pipeline{
		rootDir:  rootDir,
		cfg:      cfg,
		provider: provider,
		index:    index,
		progress: progress,
	}
}

// Policy returns the provisioning policy a run with opts would apply.
func (p *Pipeline) Policy(opts Options) string {
	if opts.Provisioning != "" {
		return opts.Provisioning
	}
	return p.cfg.VectorIndex.Provisioning
}

// Run executes the pipeline. Any upstream failure aborts the run; nothing is retried.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Stats, error) {
	start := time.Now()
	stats := &Stats{RunID: uuid.NewString()}

	policy := p.Policy(opts)
	if !opts.ExtractOnly {
		if p.provider == nil || p.index == nil {
			return nil, fmt.Errorf("embedding provider and vector index are required")
		}
		if err := config.ValidateProvisioning(policy); err != nil {
			return nil, err
		}
	}

	// Phase 1: discovery and parsing
	filter, err := sourceset.New(p.rootDir, p.cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to create source filter: %w", err)
	}
	units, discovered, err := filter.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	p.progress.OnDiscoveryComplete(discovered)

	// Phase 2: correlation passes and assembly
	engine := correlate.NewEngine(correlate.ConventionsFromConfig(p.cfg.Conventions), filter.IsTestFile)
	result := engine.Run(units)
	stats.Files = result.Files
	stats.Chunks = len(result.Chunks)
	stats.DuplicateIDs = result.DuplicateIDs
	p.progress.OnExtractionComplete(result.Files, len(result.Chunks), result.DuplicateIDs)

	// Phase 3: chunk file
	writer, err := NewAtomicWriter(p.cfg.OutputDir(p.rootDir))
	if err != nil {
		return nil, err
	}
	chunkFile := &ChunkFile{
		Metadata: ChunkFileMetadata{
			RunID:        stats.RunID,
			Generated:    time.Now().UTC(),
			Model:        p.cfg.Embedding.Model,
			Dimensions:   p.cfg.Embedding.Dimensions,
			ChunkCount:   len(result.Chunks),
			FileCount:    result.Files,
			DuplicateIDs: result.DuplicateIDs,
		},
		Chunks: result.Chunks,
	}
	stats.ChunksPath, err = writer.WriteChunkFile(chunkFile)
	if err != nil {
		return nil, err
	}
	p.progress.OnChunksWritten(stats.ChunksPath)

	if opts.ExtractOnly {
		stats.Duration = time.Since(start)
		p.progress.OnComplete(stats)
		return stats, nil
	}

	// Phase 4: one embedding request for every chunk
	texts := make([]string, len(result.Chunks))
	for i := range result.Chunks {
		texts[i] = result.Chunks[i].EmbeddingText()
	}
	p.progress.OnEmbeddingStart(len(texts))
	vectors, err := p.provider.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if err := embed.Validate(vectors, len(texts), p.provider.Dimensions()); err != nil {
		return nil, err
	}
	stats.Embedded = len(vectors)
	p.progress.OnEmbeddingComplete(p.provider.Dimensions())

	// Phase 5: provisioning and batched upserts
	if err := p.index.Provision(ctx, policy, p.provider.Dimensions()); err != nil {
		return nil, fmt.Errorf("failed to provision collection: %w", err)
	}
	p.progress.OnProvisioned(p.cfg.VectorIndex.Backend, p.cfg.VectorIndex.Collection, policy)

	points := make([]vectorindex.Point, len(result.Chunks))
	for i := range result.Chunks {
		points[i] = vectorindex.Point{
			ID:      i,
			Vector:  vectors[i],
			Payload: result.Chunks[i].Payload(),
		}
	}

	batchSize := p.cfg.VectorIndex.BatchSize
	if batchSize > 0 {
		stats.Batches = (len(points) + batchSize - 1) / batchSize
	}
	p.progress.OnIndexingStart(len(points), stats.Batches)
	err = vectorindex.UpsertBatched(ctx, p.index, points, batchSize, p.progress.OnBatchUpserted)
	if err != nil {
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}

	stats.Duration = time.Since(start)
	p.progress.OnComplete(stats)
	return stats, nil
}
