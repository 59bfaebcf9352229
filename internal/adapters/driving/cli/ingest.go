package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pocketml/pocketrag/internal/core/domain"
)

var (
	ingestID    string
	ingestTitle string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document into the corpus",
	Long: `Chunks, embeds and indexes a document. Reads from the given file,
or from stdin when the argument is "-".`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document ID (generated if empty)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title metadata")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	var content []byte
	var err error
	sourcePath := args[0]

	if sourcePath == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(sourcePath)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
	}

	if len(content) == 0 {
		return fmt.Errorf("%w: document is empty", domain.ErrInvalidInput)
	}

	metadata := domain.Metadata{}
	if ingestTitle != "" {
		metadata[domain.MetaTitle] = domain.String(ingestTitle)
	}
	if sourcePath != "-" {
		metadata[domain.MetaSourceType] = domain.String("file")
		metadata[domain.MetaSourcePath] = domain.String(sourcePath)
		if ingestTitle == "" {
			metadata[domain.MetaTitle] = domain.String(filepath.Base(sourcePath))
		}
	}

	result, err := engine.Ingest(cmd.Context(), domain.IngestRequest{
		DocumentID: ingestID,
		Content:    string(content),
		Metadata:   metadata,
	})

	// A partial result still carries indexed chunks worth persisting.
	if result != nil {
		saveIndexSnapshot(cmd)
		cmd.Printf("Ingested %s: %d chunks in %dms\n",
			result.DocumentID, result.ChunkCount, result.ProcessingTimeMs)
	}

	if err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) {
			cmd.Println("Index is full; raise max_elements in the configuration.")
		}
		return err
	}
	return nil
}
