// Package cli implements the pocketrag command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pocketml/pocketrag/internal/adapters/driven/config/file"
	ollamaembed "github.com/pocketml/pocketrag/internal/adapters/driven/embedding/ollama"
	"github.com/pocketml/pocketrag/internal/adapters/driven/embedding/openai"
	"github.com/pocketml/pocketrag/internal/adapters/driven/storage/sqlite"
	"github.com/pocketml/pocketrag/internal/core/domain"
	"github.com/pocketml/pocketrag/internal/core/ports/driven"
	"github.com/pocketml/pocketrag/internal/core/services"
	"github.com/pocketml/pocketrag/internal/index/hnsw"
	"github.com/pocketml/pocketrag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	verbose      bool
	dataDir      string
	embedderName string
	embedModel   string
	ollamaURL    string
)

// Wired services, populated by initEngine.
var (
	engine      *services.Engine
	store       *sqlite.Store
	configStore *file.ConfigStore
	embedder    driven.EmbeddingService
)

var rootCmd = &cobra.Command{
	Use:   "pocketrag",
	Short: "On-device retrieval-augmented generation",
	Long: `pocketrag ingests documents into a local vector index and assembles
context-augmented prompts for a language model. Everything runs on
device: chunking, embedding orchestration, HNSW search and storage.`,
	SilenceUsage:      true,
	PersistentPreRunE: initEngine,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.pocketrag)")
	rootCmd.PersistentFlags().StringVar(&embedderName, "embedder", "ollama", "embedding backend: ollama, openai or none")
	rootCmd.PersistentFlags().StringVar(&embedModel, "embed-model", "", "embedding model name (backend default if empty)")
	rootCmd.PersistentFlags().StringVar(&ollamaURL, "ollama-url", "", "Ollama base URL (default http://localhost:11434)")
}

// Execute runs the root command.
func Execute() error {
	defer shutdown()
	return rootCmd.Execute()
}

// initEngine wires the storage, config and embedding adapters into the
// engine. Runs before every command except the ones that need no engine.
func initEngine(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	switch cmd.Name() {
	case "version", "help", "completion":
		return nil
	}

	var err error
	configStore, err = file.NewConfigStore(dataDir)
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}

	cfg, err := configStore.Load(cmd.Context())
	if err != nil {
		return err
	}

	storeDir := ""
	if dataDir != "" {
		storeDir = filepath.Join(dataDir, "data")
	}
	store, err = sqlite.NewStore(storeDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	embedder, err = buildEmbedder(cfg)
	if err != nil {
		return err
	}

	engine, err = services.NewEngine(
		cfg,
		store.DocumentStore(),
		embedder,
		store.SnapshotStore(),
		func(c domain.Config) (driven.VectorIndex, error) {
			return hnsw.New(hnsw.FromDomain(c))
		},
	)
	if err != nil {
		return err
	}

	// Prefer the persisted snapshot; fall back to rebuilding from chunks
	// when none exists or it no longer matches the configuration.
	if err := engine.LoadIndex(cmd.Context()); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Snapshot unusable, rebuilding index: %v", err)
		}
		if err := engine.RebuildIndex(cmd.Context()); err != nil {
			return fmt.Errorf("rebuild index: %w", err)
		}
	}

	return nil
}

// buildEmbedder constructs the configured embedding backend. The vector
// dimensionality always follows the engine configuration.
func buildEmbedder(cfg domain.Config) (driven.EmbeddingService, error) {
	switch embedderName {
	case "none":
		return nil, nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("%w: --embedder=openai requires OPENAI_API_KEY", domain.ErrInvalidConfiguration)
		}
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     apiKey,
			Model:      embedModel,
			Dimensions: cfg.Dimensions,
		})

	case "ollama", "":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    ollamaURL,
			Model:      embedModel,
			Dimensions: cfg.Dimensions,
		}), nil

	default:
		return nil, fmt.Errorf("%w: unknown embedder %q", domain.ErrInvalidConfiguration, embedderName)
	}
}

// saveIndexSnapshot persists the index after a mutation. Failures are
// logged, not fatal: the index is rebuildable from the chunk store.
func saveIndexSnapshot(cmd *cobra.Command) {
	if engine == nil {
		return
	}
	if err := engine.SaveIndex(cmd.Context()); err != nil {
		logger.Warn("Saving index snapshot failed: %v", err)
	}
}

// shutdown releases wired resources.
func shutdown() {
	if embedder != nil {
		_ = embedder.Close()
	}
	if store != nil {
		_ = store.Close()
	}
}
