package cli

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	stats := engine.Stats(cmd.Context())

	cmd.Println("Index statistics:")
	cmd.Println()
	cmd.Printf("  Vectors:     %d\n", stats.TotalVectors)
	cmd.Printf("  Dimensions:  %d\n", stats.Dimensions)
	cmd.Printf("  Size:        %d bytes\n", stats.IndexSize)
	cmd.Printf("  Ready:       %t\n", stats.IsReady)

	if embedder != nil {
		cmd.Printf("  Embedder:    %s\n", embedder.ModelName())
	} else {
		cmd.Println("  Embedder:    none (query passthrough)")
	}

	return nil
}
