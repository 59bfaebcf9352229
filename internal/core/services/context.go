package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pocketml/pocketrag/internal/core/domain"
	"github.com/pocketml/pocketrag/internal/logger"
)

// Prompt template fragments. The numbered context lines use the zero-based
// position within the filtered result list, not a global chunk ID.
const (
	promptInstruction = "Use the following context to answer the question:"
	promptNoContext   = "No relevant context found."
	promptQueryPrefix = "Question: "
)

// RetrieveContext embeds the query, searches the vector index, filters
// results by similarity threshold and assembles the augmented prompt.
//
// This function never surfaces an error: availability is prioritized over
// retrieval quality, so any internal failure (no embedder, embedding
// error, search error) degrades to returning the query unchanged. The
// downstream language model always receives a usable prompt.
func (e *Engine) RetrieveContext(ctx context.Context, query string, opts domain.RetrieveOptions) string {
	e.mu.RLock()
	cfg := e.cfg
	idx := e.vectorIndex
	embedder := e.embedder
	e.mu.RUnlock()

	if embedder == nil {
		logger.Debug("No embedding service, passing query through")
		return query
	}

	logger.Section("Context Retrieval")
	logger.Debug("Query: %q", query)

	queryVector, err := embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed, falling back to raw query: %v", err)
		return query
	}

	k := cfg.TopK
	if opts.TopK != nil && *opts.TopK > 0 {
		k = *opts.TopK
	}
	threshold := cfg.Threshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	logger.Debug("k=%d threshold=%.2f", k, threshold)

	var retrieved []domain.RetrievedChunk

	if idx != nil && idx.Len() > 0 {
		hits, err := idx.Search(ctx, queryVector, k)
		if err != nil {
			logger.Warn("Vector search failed, falling back to raw query: %v", err)
			return query
		}
		logger.Debug("Search returned %d hits", len(hits))

		for _, hit := range hits {
			similarity := 1 - hit.Distance
			if similarity < threshold {
				continue
			}

			chunk, err := e.docStore.GetChunk(ctx, hit.ChunkID)
			if err != nil {
				// Chunk was deleted under us; skip it.
				logger.Debug("Chunk %s not resolvable: %v", hit.ChunkID, err)
				continue
			}

			retrieved = append(retrieved, domain.RetrievedChunk{
				Chunk:      *chunk,
				Similarity: similarity,
			})
		}
	} else {
		logger.Debug("Index empty, skipping search")
	}

	logger.Info("Retrieved %d chunks above threshold", len(retrieved))
	return formatPrompt(query, retrieved)
}

// formatPrompt assembles the augmented prompt: the instruction line, one
// numbered line per surviving chunk in ascending-distance order, and a
// closing line carrying the verbatim query.
func formatPrompt(query string, results []domain.RetrievedChunk) string {
	var b strings.Builder

	b.WriteString(promptInstruction)
	b.WriteByte('\n')

	if len(results) == 0 {
		b.WriteString(promptNoContext)
		b.WriteByte('\n')
	} else {
		for i, r := range results {
			fmt.Fprintf(&b, "%d: %s;\n", i, r.Chunk.Content)
		}
	}

	b.WriteString(promptQueryPrefix)
	b.WriteString(query)

	return b.String()
}
