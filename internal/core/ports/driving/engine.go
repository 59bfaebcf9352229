// Package driving defines the inbound port: the API the engine exposes to
// callers (CLI, TUI, watcher, mobile bridge).
package driving

import (
	"context"

	"github.com/pocketml/pocketrag/internal/core/domain"
)

// Engine is the retrieval-augmented generation engine API.
type Engine interface {
	// Ingest chunks, embeds and indexes one document. Per-chunk embedding
	// failures are skipped; cancellation between chunks stops early and
	// returns the partial result together with the context error.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// RetrieveContext embeds the query, searches the index, filters by
	// similarity threshold and assembles the augmented prompt. It never
	// fails: any internal error degrades to returning the query unchanged.
	RetrieveContext(ctx context.Context, query string, opts domain.RetrieveOptions) string

	// ListDocuments returns all document records in insertion order.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document, its chunks, and rebuilds the
	// vector index from the remaining chunks. HNSW has no cheap point
	// deletion, so this is a full rebuild; acceptable for a bounded
	// on-device corpus.
	DeleteDocument(ctx context.Context, id string) error

	// Stats returns aggregate index statistics.
	Stats(ctx context.Context) domain.IndexStats

	// Config returns the current configuration.
	Config() domain.Config

	// UpdateConfig merges the patch, validates, and rebuilds the index if
	// structural parameters changed.
	UpdateConfig(ctx context.Context, patch domain.ConfigPatch) (domain.Config, error)

	// Clear drops all chunks, documents and stats, returning the engine to
	// an empty but initialized state.
	Clear(ctx context.Context) error

	// SaveIndex persists an index snapshot through the snapshot store.
	SaveIndex(ctx context.Context) error

	// LoadIndex restores the index from the last snapshot.
	LoadIndex(ctx context.Context) error
}
