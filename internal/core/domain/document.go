package domain

import "time"

// PreviewLimit is the maximum length of a document content preview.
// Document records never hold the full source text.
const PreviewLimit = 500

// Document is the ingestion-time bookkeeping record for one ingested text.
// It is created when ingestion completes and is never mutated afterwards;
// the only lifecycle transition is wholesale deletion together with its
// chunks.
type Document struct {
	// ID is the unique identifier, caller-supplied or generated.
	ID string

	// ContentPreview is a truncated copy of the original text for display
	// and debugging. Bounded by PreviewLimit.
	ContentPreview string

	// Metadata contains caller-supplied fields (title, source type,
	// source path).
	Metadata Metadata

	// ChunkCount is the number of chunks produced from this document.
	ChunkCount int

	// CreatedAt is the ingestion timestamp.
	CreatedAt time.Time
}

// NewDocument builds a document record with a bounded content preview.
func NewDocument(id, content string, metadata Metadata) Document {
	preview := content
	if len(preview) > PreviewLimit {
		preview = preview[:PreviewLimit]
	}
	return Document{
		ID:             id,
		ContentPreview: preview,
		Metadata:       metadata,
		CreatedAt:      time.Now(),
	}
}

// Chunk is an immutable retrievable unit: a bounded span of document text
// plus its embedding vector. Once inserted into the vector index a chunk is
// never mutated, only removed when its owning document is deleted.
type Chunk struct {
	// ID is derived from the owning document ID and the chunk ordinal.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the raw text of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the fixed-dimension vector representation.
	Embedding []float32

	// Metadata carries the document metadata plus chunk position fields.
	Metadata Metadata
}
