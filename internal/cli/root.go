package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/chunklink/internal/config"
	"github.com/mvp-joe/chunklink/internal/embed"
	"github.com/mvp-joe/chunklink/internal/pipeline"
	"github.com/mvp-joe/chunklink/internal/vectorindex"
)

var (
	dirFlag          string
	quietFlag        bool
	provisioningFlag string
	extractOnlyFlag  bool
)

// rootCmd runs the whole pipeline when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "chunklink",
	Short: "Correlate UI components, handlers and tests, and index them for semantic search",
	Long: `chunklink analyzes a TypeScript/React project and its UI tests, links each
component to the handlers it binds and the tests that reach it through selectors,
and indexes the enriched chunks in a vector database.

A run:
  - Discovers .ts/.tsx/.js/.jsx sources, skipping build output and type-only files
  - Maps event handlers to selectors and selectors to tests
  - Writes the enriched chunks to .chunklink/chunks.json
  - Embeds every chunk with one request to the embedding service
  - Upserts the vectors into the configured collection in batches

Examples:
  # Index the current directory
  chunklink

  # Index another project and drop the existing collection first
  chunklink --dir ../shop --provisioning recreate

  # Only write the chunk file
  chunklink --extract-only
`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPipeline,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "d", ".", "Project root directory")
	rootCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	rootCmd.Flags().StringVar(&provisioningFlag, "provisioning", "", "Collection provisioning policy: create_if_absent or recreate (overrides config)")
	rootCmd.Flags().BoolVar(&extractOnlyFlag, "extract-only", false, "Stop after writing the chunk file")
}

// signalContext returns a context cancelled on Ctrl+C or SIGTERM.
func signalContext(onSignal func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			if onSignal != nil {
				onSignal()
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// loadProject resolves the root directory and loads its configuration.
func loadProject() (string, *config.Config, error) {
	rootDir, err := filepath.Abs(dirFlag)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}
	if info, err := os.Stat(rootDir); err != nil || !info.IsDir() {
		return "", nil, fmt.Errorf("project directory %s does not exist", rootDir)
	}

	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return rootDir, cfg, nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(func() {
		fmt.Println("\nInterrupted! Cancelling run...")
	})
	defer cancel()

	rootDir, cfg, err := loadProject()
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		ExtractOnly:  extractOnlyFlag,
		Provisioning: provisioningFlag,
	}

	var (
		provider embed.Provider
		index    vectorindex.Index
	)
	if !opts.ExtractOnly {
		provider = embed.NewHTTPProvider(cfg.Embedding)
		defer provider.Close()

		index, err = vectorindex.New(cfg, rootDir)
		if err != nil {
			return fmt.Errorf("failed to open vector index: %w", err)
		}
		defer index.Close()
	}

	p := pipeline.New(rootDir, cfg, provider, index, NewCLIProgressReporter(quietFlag))

	if !quietFlag {
		log.Printf("Project: %s\n", rootDir)
		if !opts.ExtractOnly {
			log.Printf("Embedding: %s (%s, %d dimensions)\n", cfg.Embedding.Endpoint, cfg.Embedding.Model, cfg.Embedding.Dimensions)
			log.Printf("Vector index: %s collection %q, provisioning policy %s\n",
				cfg.VectorIndex.Backend, cfg.VectorIndex.Collection, p.Policy(opts))
		}
	}

	if _, err := p.Run(ctx, opts); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}
