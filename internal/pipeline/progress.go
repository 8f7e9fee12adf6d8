package pipeline

import (
	"time"

	"github.com/mvp-joe/chunklink/internal/sourceset"
)

// Stats summarizes one pipeline run.
type Stats struct {
	RunID        string
	Files        int
	Chunks       int
	DuplicateIDs int
	Embedded     int
	Batches      int
	ChunksPath   string
	Duration     time.Duration
}

// ProgressReporter provides callbacks for reporting pipeline progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnDiscoveryComplete is called once source files are discovered and parsed.
	OnDiscoveryComplete(stats sourceset.Stats)

	// OnExtractionComplete is called after the correlation passes and assembly.
	OnExtractionComplete(files, chunks, duplicateIDs int)

	// OnChunksWritten is called after the chunk file is in place.
	OnChunksWritten(path string)

	// OnEmbeddingStart is called before the embedding request is sent.
	OnEmbeddingStart(totalChunks int)

	// OnEmbeddingComplete is called when every chunk has a vector.
	OnEmbeddingComplete(dimensions int)

	// OnProvisioned is called after the collection is prepared.
	OnProvisioned(backend, collection, policy string)

	// OnIndexingStart is called before the first upsert.
	OnIndexingStart(totalPoints, totalBatches int)

	// OnBatchUpserted is called after each upsert batch.
	OnBatchUpserted(batch, totalBatches, pointsDone int)

	// OnComplete is called when the run completes successfully.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryComplete(stats sourceset.Stats)            {}
func (n *NoOpProgressReporter) OnExtractionComplete(files, chunks, duplicateIDs int) {}
func (n *NoOpProgressReporter) OnChunksWritten(path string)                          {}
func (n *NoOpProgressReporter) OnEmbeddingStart(totalChunks int)                     {}
func (n *NoOpProgressReporter) OnEmbeddingComplete(dimensions int)                   {}
func (n *NoOpProgressReporter) OnProvisioned(backend, collection, policy string)     {}
func (n *NoOpProgressReporter) OnIndexingStart(totalPoints, totalBatches int)        {}
func (n *NoOpProgressReporter) OnBatchUpserted(batch, totalBatches, pointsDone int)  {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)                              {}
