package driven

import (
	"context"

	"github.com/pocketml/pocketrag/internal/core/domain"
)

// DocumentStore is the metadata ledger for ingested documents and their
// chunks, independent of the vector index's graph structure.
type DocumentStore interface {
	// SaveDocument appends a document record. An existing ID is rejected
	// with domain.ErrAlreadyExists; records are never overwritten.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document, ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// ListDocuments returns all documents in insertion order.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ListChunks returns every stored chunk. Used for index rebuilds.
	ListChunks(ctx context.Context) ([]domain.Chunk, error)

	// DeleteDocument removes a document and cascades to its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// Clear removes all documents and chunks.
	Clear(ctx context.Context) error
}
