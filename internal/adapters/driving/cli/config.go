package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pocketml/pocketrag/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change engine configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Update one configuration parameter",
	Long: `Updates a single parameter and persists it. Structural index
parameters (m, ef_construction, max_elements) trigger a rebuild;
dimensions cannot change while vectors are indexed.

Keys: dimensions, chunk_max_size, chunk_overlap, m, ef_construction,
ef_search, max_elements, top_k, threshold`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg := engine.Config()

	cmd.Println("Configuration:")
	cmd.Println()
	cmd.Printf("  dimensions:       %d\n", cfg.Dimensions)
	cmd.Printf("  chunk_max_size:   %d\n", cfg.ChunkMaxSize)
	cmd.Printf("  chunk_overlap:    %d\n", cfg.ChunkOverlap)
	cmd.Printf("  m:                %d\n", cfg.M)
	cmd.Printf("  ef_construction:  %d\n", cfg.EfConstruction)
	cmd.Printf("  ef_search:        %d\n", cfg.EfSearch)
	cmd.Printf("  max_elements:     %d\n", cfg.MaxElements)
	cmd.Printf("  top_k:            %d\n", cfg.TopK)
	cmd.Printf("  threshold:        %.2f\n", cfg.Threshold)

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	patch, err := patchForKey(args[0], args[1])
	if err != nil {
		return err
	}

	next, err := engine.UpdateConfig(cmd.Context(), patch)
	if err != nil {
		return err
	}

	if err := configStore.Save(cmd.Context(), next); err != nil {
		return fmt.Errorf("persist config: %w", err)
	}

	saveIndexSnapshot(cmd)
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

// patchForKey translates a key/value pair into a configuration patch.
func patchForKey(key, value string) (domain.ConfigPatch, error) {
	var patch domain.ConfigPatch

	if key == "threshold" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return patch, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidInput, value)
		}
		patch.Threshold = &f
		return patch, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return patch, fmt.Errorf("%w: %q is not an integer", domain.ErrInvalidInput, value)
	}

	switch key {
	case "dimensions":
		patch.Dimensions = &n
	case "chunk_max_size":
		patch.ChunkMaxSize = &n
	case "chunk_overlap":
		patch.ChunkOverlap = &n
	case "m":
		patch.M = &n
	case "ef_construction":
		patch.EfConstruction = &n
	case "ef_search":
		patch.EfSearch = &n
	case "max_elements":
		patch.MaxElements = &n
	case "top_k":
		patch.TopK = &n
	default:
		return patch, fmt.Errorf("%w: unknown configuration key %q", domain.ErrInvalidInput, key)
	}

	return patch, nil
}
