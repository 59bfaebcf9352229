package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	ollamallm "github.com/pocketml/pocketrag/internal/adapters/driven/llm/ollama"
	"github.com/pocketml/pocketrag/internal/core/domain"
	"github.com/pocketml/pocketrag/internal/logger"
)

var (
	chatModel      string
	chatShowPrompt bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Answer a question using retrieved context",
	Long: `Retrieves context for the question, assembles the augmented prompt
and completes it with a local Ollama model.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatModel, "model", "", "Ollama model for generation (default llama3.2)")
	chatCmd.Flags().BoolVar(&chatShowPrompt, "show-prompt", false, "print the augmented prompt before the answer")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	prompt := engine.RetrieveContext(cmd.Context(), args[0], domain.RetrieveOptions{})

	if chatShowPrompt {
		cmd.Println(prompt)
		cmd.Println()
	}

	llm := ollamallm.NewLLMService(ollamallm.Config{
		BaseURL: ollamaURL,
		Model:   chatModel,
	})
	defer llm.Close()

	logger.Debug("Generating with %s", llm.ModelName())

	answer, err := llm.Generate(cmd.Context(), prompt)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	cmd.Println(answer)
	return nil
}
