package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pocketml/pocketrag/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest text files",
	Long: `Ingests the .txt and .md files in the directory, then keeps
watching for new or changed files until interrupted. Changed files
replace their previous version in the corpus.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := watch.New(engine, args[0])

	err := watcher.Run(ctx)

	// Persist whatever was ingested before shutdown.
	saveIndexSnapshot(cmd)

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	cmd.Println("Watch stopped.")
	return nil
}
