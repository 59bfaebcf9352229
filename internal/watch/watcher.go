// Package watch observes a directory and ingests text files into the engine
// as they appear or change. It backs the `pocketrag watch` command.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/pocketml/pocketrag/internal/core/domain"
	"github.com/pocketml/pocketrag/internal/core/ports/driving"
	"github.com/pocketml/pocketrag/internal/logger"
)

// watchedExtensions are the file types picked up for ingestion.
var watchedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// Watcher ingests files from a directory into the engine.
type Watcher struct {
	engine driving.Engine
	root   string
}

// New creates a watcher rooted at dir.
func New(engine driving.Engine, dir string) *Watcher {
	return &Watcher{
		engine: engine,
		root:   dir,
	}
}

// Run ingests the existing files under the root, then blocks processing
// filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %q: %w: not a directory", w.root, domain.ErrInvalidInput)
	}

	if err := w.ingestExisting(ctx); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.root); err != nil {
		return fmt.Errorf("watching %s: %w", w.root, err)
	}

	logger.Info("Watching %s", w.root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// ingestExisting walks the root once and ingests every eligible file.
func (w *Watcher) ingestExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("reading watch root: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.root, entry.Name())
		if !shouldIngest(path) {
			continue
		}
		w.ingestFile(ctx, path)
	}
	return nil
}

// handleEvent ingests files on create and write; removes are ignored since
// the corpus keeps documents until explicitly deleted.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return
	}
	if !shouldIngest(event.Name) {
		return
	}

	w.ingestFile(ctx, event.Name)
}

// ingestFile reads and ingests a single file. The document ID is derived
// from the file name, so a changed file replaces its previous version:
// on a duplicate the old document is deleted and the file ingested again.
func (w *Watcher) ingestFile(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Reading %s failed: %v", path, err)
		return
	}
	if len(content) == 0 {
		return
	}

	name := filepath.Base(path)
	req := domain.IngestRequest{
		DocumentID: DocumentID(path),
		Content:    string(content),
		Metadata: domain.Metadata{
			domain.MetaTitle:      domain.String(name),
			domain.MetaSourceType: domain.String("file"),
			domain.MetaSourcePath: domain.String(path),
		},
	}

	result, err := w.engine.Ingest(ctx, req)
	if errors.Is(err, domain.ErrAlreadyExists) {
		if err := w.engine.DeleteDocument(ctx, req.DocumentID); err != nil {
			logger.Warn("Replacing %s failed: %v", name, err)
			return
		}
		result, err = w.engine.Ingest(ctx, req)
	}
	if err != nil {
		logger.Warn("Ingesting %s failed: %v", name, err)
		return
	}

	logger.Info("Ingested %s (%d chunks)", name, result.ChunkCount)
	fmt.Printf("ingested %s: %d chunks\n", name, result.ChunkCount)
}

// shouldIngest reports whether the path is an eligible text file. Hidden
// files and unknown extensions are skipped.
func shouldIngest(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return watchedExtensions[strings.ToLower(filepath.Ext(name))]
}

// DocumentID derives a stable document ID from a file path.
func DocumentID(path string) string {
	base := filepath.Base(path)
	return "file:" + base
}
