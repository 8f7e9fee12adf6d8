package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/chunklink/internal/config"
)

var (
	cleanQuietFlag bool
	cleanAllFlag   bool
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated output",
	Long: `Clean removes the chunk file written by the last run.

With --all the embedded vector store (.chunklink/vectors, chromem backend) is
removed too. A Qdrant collection is left alone; run with --provisioning recreate
to drop it.

The configuration file (.chunklink/config.yml) is preserved.

Examples:
  # Remove the chunk file
  chunklink clean

  # Remove the chunk file and the local vector store
  chunklink clean --all
`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanQuietFlag, "quiet", "q", false, "Suppress output messages")
	cleanCmd.Flags().BoolVarP(&cleanAllFlag, "all", "a", false, "Also remove the local vector store")
}

func runClean(cmd *cobra.Command, args []string) error {
	rootDir, cfg, err := loadProject()
	if err != nil {
		return err
	}

	outputDir := cfg.OutputDir(rootDir)
	targets := []string{
		cfg.ChunksPath(rootDir),
		filepath.Join(outputDir, ".tmp"),
	}
	if cleanAllFlag && cfg.VectorIndex.Backend == config.BackendChromem {
		targets = append(targets, cfg.VectorPath(rootDir))
	}

	removed := 0
	var sizeMB float64
	for _, target := range targets {
		size, err := pathSize(target)
		if os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("failed to remove %s: %w", target, err)
		}
		removed++
		sizeMB += float64(size) / (1024 * 1024)
	}

	if cleanQuietFlag {
		return nil
	}
	if removed == 0 {
		fmt.Println("Nothing to clean")
		return nil
	}
	fmt.Printf("✓ Cleaned %s (~%.1f MB)\n", outputDir, sizeMB)
	fmt.Println("Next 'chunklink' run will regenerate the chunk file")
	return nil
}

// pathSize returns the total size of a file or directory tree.
func pathSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}

	var total int64
	err = filepath.Walk(path, func(_ string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			total += fi.Size()
		}
		return nil
	})
	return total, err
}
