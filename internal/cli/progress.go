package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/chunklink/internal/pipeline"
	"github.com/mvp-joe/chunklink/internal/sourceset"
)

// CLIProgressReporter implements progress reporting with status lines and an upsert progress bar.
type CLIProgressReporter struct {
	quiet        bool
	indexBar     *progressbar.ProgressBar
	pointsDone   int
	embedStarted time.Time
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet}
}

func (c *CLIProgressReporter) OnDiscoveryComplete(stats sourceset.Stats) {
	if c.quiet {
		return
	}
	log.Printf("Discovered %d source files (%d ignored, %d type-only), parsed %d\n",
		stats.Discovered, stats.Ignored, stats.TypeOnly, stats.Parsed)
}

func (c *CLIProgressReporter) OnExtractionComplete(files, chunks, duplicateIDs int) {
	if c.quiet {
		return
	}
	log.Printf("Extracted %s chunks from %s files\n", formatNumber(chunks), formatNumber(files))
	if duplicateIDs > 0 {
		log.Printf("Warning: %d chunk ids are shared by more than one chunk\n", duplicateIDs)
	}
}

func (c *CLIProgressReporter) OnChunksWritten(path string) {
	if c.quiet {
		return
	}
	log.Printf("Wrote %s\n", path)
}

func (c *CLIProgressReporter) OnEmbeddingStart(totalChunks int) {
	if c.quiet {
		return
	}
	c.embedStarted = time.Now()
	log.Printf("Generating embeddings for %s chunks...\n", formatNumber(totalChunks))
}

func (c *CLIProgressReporter) OnEmbeddingComplete(dimensions int) {
	if c.quiet {
		return
	}
	log.Printf("✓ Embeddings ready (%d dimensions, took %.1fs)\n", dimensions, time.Since(c.embedStarted).Seconds())
}

func (c *CLIProgressReporter) OnProvisioned(backend, collection, policy string) {
	if c.quiet {
		return
	}
	log.Printf("Collection %q ready on %s (%s)\n", collection, backend, policy)
}

func (c *CLIProgressReporter) OnIndexingStart(totalPoints, totalBatches int) {
	if c.quiet {
		return
	}
	c.pointsDone = 0
	c.indexBar = progressbar.NewOptions(totalPoints,
		progressbar.OptionSetDescription(fmt.Sprintf("Upserting %d batches", totalBatches)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("points/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

func (c *CLIProgressReporter) OnBatchUpserted(batch, totalBatches, pointsDone int) {
	if c.quiet {
		return
	}
	if c.indexBar != nil {
		delta := pointsDone - c.pointsDone
		if delta > 0 {
			c.indexBar.Add(delta)
			c.pointsDone = pointsDone
		}
	}
}

func (c *CLIProgressReporter) OnComplete(stats *pipeline.Stats) {
	if c.quiet {
		return
	}

	fmt.Println()
	if stats.Embedded == 0 {
		fmt.Printf("✓ Extraction complete: %s chunks in %.1fs\n", formatNumber(stats.Chunks), stats.Duration.Seconds())
	} else {
		fmt.Printf("✓ Indexing complete: %s chunks in %.1fs\n", formatNumber(stats.Chunks), stats.Duration.Seconds())
		fmt.Printf("  Batches:    %d\n", stats.Batches)
	}
	fmt.Printf("  Files:      %s\n", formatNumber(stats.Files))
	fmt.Printf("  Chunk file: %s\n", stats.ChunksPath)
	fmt.Printf("  Run id:     %s\n", stats.RunID)
}

// formatNumber formats an integer with thousands separators.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
