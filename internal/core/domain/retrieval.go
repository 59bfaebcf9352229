package domain

// IngestRequest describes one document to ingest.
type IngestRequest struct {
	// DocumentID is optional; a unique ID is generated when empty.
	DocumentID string

	// Content is the full document text.
	Content string

	// Metadata is caller-supplied (title, source type, source path).
	Metadata Metadata
}

// IngestResult reports the outcome of an ingestion.
type IngestResult struct {
	// DocumentID identifies the created document record.
	DocumentID string

	// ChunkCount is the number of chunks embedded and indexed. It can be
	// lower than the number of windows produced when individual chunks
	// failed to embed or ingestion was cancelled part-way.
	ChunkCount int

	// ProcessingTimeMs is the wall-clock ingestion duration.
	ProcessingTimeMs int64
}

// RetrieveOptions carries per-query overrides for context retrieval.
// Nil fields fall back to the configured defaults.
type RetrieveOptions struct {
	// TopK overrides the number of nearest neighbours requested.
	TopK *int

	// Threshold overrides the minimum similarity for inclusion.
	Threshold *float64
}

// RetrievedChunk is a chunk that survived similarity filtering.
type RetrievedChunk struct {
	// Chunk is the matched unit.
	Chunk Chunk

	// Similarity is 1 − cosine distance, in [0, 1] for normalized vectors.
	Similarity float64
}

// IndexStats summarizes the state of the vector index. Derived, recomputed
// on demand.
type IndexStats struct {
	// TotalVectors is the number of vectors currently indexed.
	TotalVectors int

	// Dimensions is the configured embedding dimensionality.
	Dimensions int

	// IndexSize is the approximate in-memory size of stored vectors in
	// bytes.
	IndexSize int64

	// IsReady reports whether the embedding capability is initialized and
	// the index is constructed.
	IsReady bool
}
