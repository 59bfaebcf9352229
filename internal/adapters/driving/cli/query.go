package cli

import (
	"github.com/spf13/cobra"

	"github.com/pocketml/pocketrag/internal/core/domain"
)

var (
	queryTopK      int
	queryThreshold float64
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve context and print the augmented prompt",
	Long: `Embeds the query, searches the vector index, and prints the
context-augmented prompt that would be handed to a language model.
Retrieval never fails: when nothing useful is found the prompt
degrades gracefully, down to the raw query itself.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (config default if 0)")
	queryCmd.Flags().Float64VarP(&queryThreshold, "threshold", "t", -1, "minimum cosine similarity (config default if negative)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	opts := domain.RetrieveOptions{}
	if queryTopK > 0 {
		opts.TopK = &queryTopK
	}
	if queryThreshold >= 0 {
		opts.Threshold = &queryThreshold
	}

	prompt := engine.RetrieveContext(cmd.Context(), args[0], opts)
	cmd.Println(prompt)
	return nil
}
