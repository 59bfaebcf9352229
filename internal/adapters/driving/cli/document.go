package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pocketml/pocketrag/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long:  `List, inspect or delete documents in the corpus.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and rebuild the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	docs, err := engine.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents in the corpus.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		if title, ok := docs[i].Metadata[domain.MetaTitle].AsString(); ok && title != "" {
			cmd.Printf("    Title: %s\n", title)
		}
		cmd.Printf("    Chunks: %d\n", docs[i].ChunkCount)
		cmd.Printf("    Created: %s\n", docs[i].CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	docs, err := engine.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	for i := range docs {
		if docs[i].ID != args[0] {
			continue
		}

		cmd.Printf("Document: %s\n\n", docs[i].ID)
		cmd.Printf("  Chunks:   %d\n", docs[i].ChunkCount)
		cmd.Printf("  Created:  %s\n", docs[i].CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Printf("  Preview:  %s\n", docs[i].ContentPreview)

		if len(docs[i].Metadata) > 0 {
			cmd.Println("\n  Metadata:")
			for k, v := range docs[i].Metadata {
				cmd.Printf("    %s: %v\n", k, v.Any())
			}
		}
		return nil
	}

	return fmt.Errorf("document %q not found", args[0])
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if err := engine.DeleteDocument(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	saveIndexSnapshot(cmd)
	cmd.Printf("Deleted document %s.\n", args[0])
	return nil
}
