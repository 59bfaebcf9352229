package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pocketml/pocketrag/internal/chunker"
	"github.com/pocketml/pocketrag/internal/core/domain"
	"github.com/pocketml/pocketrag/internal/core/ports/driven"
	"github.com/pocketml/pocketrag/internal/core/ports/driving"
	"github.com/pocketml/pocketrag/internal/logger"
)

// Ensure Engine implements the interface.
var _ driving.Engine = (*Engine)(nil)

// IndexFactory constructs a fresh vector index for a configuration. The
// engine uses it for the initial build and for rebuild-on-delete.
type IndexFactory func(cfg domain.Config) (driven.VectorIndex, error)

// Engine is the retrieval-augmented generation engine. It orchestrates
// chunking, embedding, indexing and prompt assembly over the driven ports.
//
// The engine is safe for concurrent ingestion and query calls: the mutex
// guards the configuration and the index pointer (which is swapped during
// rebuilds); the index serializes its own graph access internally.
type Engine struct {
	mu          sync.RWMutex
	cfg         domain.Config
	vectorIndex driven.VectorIndex

	docStore      driven.DocumentStore
	embedder      driven.EmbeddingService
	snapshotStore driven.IndexSnapshotStore
	newIndex      IndexFactory
}

// NewEngine builds the engine and its initial vector index.
// The embedder and snapshotStore are optional (can be nil): without an
// embedder the engine degrades to query passthrough and rejects ingestion;
// without a snapshot store SaveIndex/LoadIndex are unavailable.
func NewEngine(
	cfg domain.Config,
	docStore driven.DocumentStore,
	embedder driven.EmbeddingService,
	snapshotStore driven.IndexSnapshotStore,
	newIndex IndexFactory,
) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if docStore == nil {
		return nil, fmt.Errorf("%w: document store is required", domain.ErrInvalidConfiguration)
	}
	if newIndex == nil {
		return nil, fmt.Errorf("%w: index factory is required", domain.ErrInvalidConfiguration)
	}

	idx, err := newIndex(cfg)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	return &Engine{
		cfg:           cfg,
		vectorIndex:   idx,
		docStore:      docStore,
		embedder:      embedder,
		snapshotStore: snapshotStore,
		newIndex:      newIndex,
	}, nil
}

// Ingest chunks, embeds and indexes one document.
//
// Failure semantics follow the partial-failure contract: a chunk whose
// embedding fails is logged and skipped, never aborting the document.
// Cancellation between chunks stops early; the chunks already indexed are
// kept (no rollback) and the partial result is returned together with the
// context error. ErrCapacityExceeded is surfaced the same way so the
// caller can rebuild with a larger bound.
func (e *Engine) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	start := time.Now()

	e.mu.RLock()
	cfg := e.cfg
	idx := e.vectorIndex
	embedder := e.embedder
	e.mu.RUnlock()

	if embedder == nil {
		return nil, fmt.Errorf("ingest: %w", domain.ErrEmbeddingUnavailable)
	}
	if idx == nil {
		return nil, fmt.Errorf("ingest: %w", domain.ErrIndexNotReady)
	}

	ck, err := chunker.New(cfg.ChunkMaxSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	docID := req.DocumentID
	if docID == "" {
		docID = uuid.New().String()
	}

	if existing, err := e.docStore.GetDocument(ctx, docID); err == nil && existing != nil {
		return nil, fmt.Errorf("document %q: %w", docID, domain.ErrAlreadyExists)
	}

	logger.Section("Ingestion")
	logger.Debug("Document %s: %d bytes, chunk size %d, overlap %d",
		docID, len(req.Content), cfg.ChunkMaxSize, cfg.ChunkOverlap)

	pieces := ck.Split(req.Content)
	logger.Debug("Produced %d chunks", len(pieces))

	chunks := make([]domain.Chunk, 0, len(pieces))
	var ingestErr error

	for i, piece := range pieces {
		// Cancellation is honoured between chunks, never mid-chunk.
		if err := ctx.Err(); err != nil {
			logger.Warn("Ingestion of %s cancelled after %d/%d chunks", docID, len(chunks), len(pieces))
			ingestErr = err
			break
		}

		// Embed outside any index lock; inference can be slow.
		embedding, err := embedder.Embed(ctx, piece)
		if err != nil {
			logger.Warn("Embedding chunk %d of %s failed, skipping: %v", i, docID, err)
			continue
		}

		chunk := domain.Chunk{
			ID:         chunkID(docID, i),
			DocumentID: docID,
			Content:    piece,
			Position:   i,
			Embedding:  embedding,
			Metadata:   chunkMetadata(req.Metadata, docID, i),
		}

		if err := idx.Add(ctx, chunk.ID, embedding); err != nil {
			if errors.Is(err, domain.ErrCapacityExceeded) {
				logger.Warn("Index full after %d chunks of %s", len(chunks), docID)
				ingestErr = err
				break
			}
			logger.Warn("Indexing chunk %d of %s failed, skipping: %v", i, docID, err)
			continue
		}

		chunks = append(chunks, chunk)
	}

	doc := domain.NewDocument(docID, req.Content, req.Metadata)
	doc.ChunkCount = len(chunks)

	if err := e.docStore.SaveDocument(ctx, &doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := e.docStore.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	result := &domain.IngestResult{
		DocumentID:       docID,
		ChunkCount:       len(chunks),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}

	logger.Info("Ingested %s: %d/%d chunks in %dms", docID, len(chunks), len(pieces), result.ProcessingTimeMs)

	if ingestErr != nil {
		return result, fmt.Errorf("ingest %s: %w", docID, ingestErr)
	}
	return result, nil
}

// ListDocuments returns all document records in insertion order.
func (e *Engine) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return e.docStore.ListDocuments(ctx)
}

// DeleteDocument removes a document and its chunks, then rebuilds the
// vector index from the remaining chunks. HNSW offers no cheap point
// deletion, so every delete pays a full rebuild; for the bounded corpora
// this engine targets that cost is acceptable.
func (e *Engine) DeleteDocument(ctx context.Context, id string) error {
	if _, err := e.docStore.GetDocument(ctx, id); err != nil {
		return fmt.Errorf("get document %s: %w", id, err)
	}

	if err := e.docStore.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}

	logger.Info("Deleted document %s, rebuilding index", id)
	return e.rebuildIndex(ctx, e.Config())
}

// Stats returns aggregate index statistics, recomputed on demand.
func (e *Engine) Stats(_ context.Context) domain.IndexStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	total := 0
	if e.vectorIndex != nil {
		total = e.vectorIndex.Len()
	}

	return domain.IndexStats{
		TotalVectors: total,
		Dimensions:   e.cfg.Dimensions,
		IndexSize:    int64(total) * int64(e.cfg.Dimensions) * 4,
		IsReady:      e.embedder != nil && e.vectorIndex != nil,
	}
}

// Config returns the current configuration.
func (e *Engine) Config() domain.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// UpdateConfig merges the patch onto the current configuration, validates
// the result, and rebuilds the index when structural parameters changed.
// Dimension changes are rejected while vectors exist: embeddings from the
// old space are meaningless in the new one.
func (e *Engine) UpdateConfig(ctx context.Context, patch domain.ConfigPatch) (domain.Config, error) {
	e.mu.RLock()
	current := e.cfg
	populated := e.vectorIndex != nil && e.vectorIndex.Len() > 0
	e.mu.RUnlock()

	next := current.Apply(patch)
	if err := next.Validate(); err != nil {
		return current, err
	}
	if next.Dimensions != current.Dimensions && populated {
		return current, fmt.Errorf("%w: cannot change dimensions while %s",
			domain.ErrInvalidConfiguration, "vectors are indexed; clear the engine first")
	}

	if current.RequiresRebuild(next) {
		logger.Info("Configuration change requires index rebuild")
		if err := e.rebuildIndex(ctx, next); err != nil {
			return current, err
		}
		return next, nil
	}

	e.mu.Lock()
	e.cfg = next
	e.mu.Unlock()
	return next, nil
}

// Clear drops all chunks, documents and stats, returning the engine to an
// empty but initialized state.
func (e *Engine) Clear(ctx context.Context) error {
	if err := e.docStore.Clear(ctx); err != nil {
		return fmt.Errorf("clear document store: %w", err)
	}

	cfg := e.Config()
	idx, err := e.newIndex(cfg)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	e.mu.Lock()
	old := e.vectorIndex
	e.vectorIndex = idx
	e.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	logger.Info("Engine cleared")
	return nil
}

// SaveIndex persists a snapshot of the vector index.
func (e *Engine) SaveIndex(ctx context.Context) error {
	if e.snapshotStore == nil {
		return fmt.Errorf("save index: %w", domain.ErrNotFound)
	}

	e.mu.RLock()
	idx := e.vectorIndex
	e.mu.RUnlock()

	if idx == nil {
		return fmt.Errorf("save index: %w", domain.ErrIndexNotReady)
	}

	blob, err := idx.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot index: %w", err)
	}
	if err := e.snapshotStore.SaveGraph(ctx, blob); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	logger.Debug("Saved index snapshot (%d bytes)", len(blob))
	return nil
}

// LoadIndex restores the vector index from the last snapshot.
func (e *Engine) LoadIndex(ctx context.Context) error {
	if e.snapshotStore == nil {
		return fmt.Errorf("load index: %w", domain.ErrNotFound)
	}

	blob, err := e.snapshotStore.LoadGraph(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.vectorIndex == nil {
		return fmt.Errorf("load index: %w", domain.ErrIndexNotReady)
	}
	if err := e.vectorIndex.Restore(blob); err != nil {
		return fmt.Errorf("restore index: %w", err)
	}

	logger.Info("Restored index snapshot: %d vectors", e.vectorIndex.Len())
	return nil
}

// RebuildIndex reconstructs the vector index from all stored chunks. Used
// at startup when no snapshot exists.
func (e *Engine) RebuildIndex(ctx context.Context) error {
	return e.rebuildIndex(ctx, e.Config())
}

// rebuildIndex builds a fresh index for cfg, fills it from the document
// store, then atomically swaps it in and commits cfg.
func (e *Engine) rebuildIndex(ctx context.Context, cfg domain.Config) error {
	idx, err := e.newIndex(cfg)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	chunks, err := e.docStore.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}

	for i := range chunks {
		if chunks[i].Embedding == nil {
			continue
		}
		if err := idx.Add(ctx, chunks[i].ID, chunks[i].Embedding); err != nil {
			return fmt.Errorf("re-add chunk %s: %w", chunks[i].ID, err)
		}
	}

	e.mu.Lock()
	old := e.vectorIndex
	e.vectorIndex = idx
	e.cfg = cfg
	e.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	logger.Info("Index rebuilt: %d vectors", idx.Len())
	return nil
}

// chunkID derives a chunk identifier from the owning document and ordinal.
func chunkID(docID string, position int) string {
	return fmt.Sprintf("%s:%d", docID, position)
}

// chunkMetadata combines document metadata with per-chunk position fields.
func chunkMetadata(docMeta domain.Metadata, docID string, position int) domain.Metadata {
	md := docMeta.Clone()
	if md == nil {
		md = make(domain.Metadata, 2)
	}
	md[domain.MetaDocumentID] = domain.String(docID)
	md[domain.MetaPosition] = domain.Int(int64(position))
	return md
}
