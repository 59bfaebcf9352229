package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketml/pocketrag/internal/adapters/driven/storage/memory"
	"github.com/pocketml/pocketrag/internal/core/domain"
	"github.com/pocketml/pocketrag/internal/core/ports/driven"
)

// stubIndex returns canned hits regardless of the query vector, so tests
// can pin exact distances at the threshold boundary.
type stubIndex struct {
	hits      []driven.VectorHit
	searchErr error
	lastK     int
}

var _ driven.VectorIndex = (*stubIndex)(nil)

func (s *stubIndex) Add(_ context.Context, _ string, _ []float32) error { return nil }

func (s *stubIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	s.lastK = k
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if k < len(s.hits) {
		return s.hits[:k], nil
	}
	return s.hits, nil
}

func (s *stubIndex) Len() int                  { return len(s.hits) }
func (s *stubIndex) Snapshot() ([]byte, error) { return nil, nil }
func (s *stubIndex) Restore(_ []byte) error    { return nil }
func (s *stubIndex) Close() error              { return nil }

// newStubEngine builds an engine whose index is the given stub, with the
// document store pre-seeded so hit chunk IDs resolve to real content.
func newStubEngine(t *testing.T, cfg domain.Config, idx *stubIndex, chunks []domain.Chunk) *Engine {
	t.Helper()

	docStore := memory.NewDocumentStore()
	ctx := context.Background()

	if len(chunks) > 0 {
		doc := domain.NewDocument(chunks[0].DocumentID, "seed", nil)
		doc.ChunkCount = len(chunks)
		require.NoError(t, docStore.SaveDocument(ctx, &doc))
		require.NoError(t, docStore.SaveChunks(ctx, chunks))
	}

	factory := func(domain.Config) (driven.VectorIndex, error) { return idx, nil }
	engine, err := NewEngine(cfg, docStore, newHashEmbedder(testDims), nil, factory)
	require.NoError(t, err)
	return engine
}

func seedChunks(contents ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(contents))
	for i, c := range contents {
		chunks[i] = domain.Chunk{
			ID:         chunkID("doc-1", i),
			DocumentID: "doc-1",
			Content:    c,
			Position:   i,
		}
	}
	return chunks
}

// --- Degradation paths ---

func TestRetrieveContext_NoEmbedderPassesThrough(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), nil)

	prompt := engine.RetrieveContext(context.Background(), "hello", domain.RetrieveOptions{})
	assert.Equal(t, "hello", prompt)
}

func TestRetrieveContext_EmbedErrorFallsBack(t *testing.T) {
	embedder := newHashEmbedder(testDims)
	embedder.err = errors.New("model not loaded")

	engine, _, _ := newTestEngine(t, testConfig(), embedder)

	prompt := engine.RetrieveContext(context.Background(), "what is paris", domain.RetrieveOptions{})
	assert.Equal(t, "what is paris", prompt)
}

func TestRetrieveContext_SearchErrorFallsBack(t *testing.T) {
	idx := &stubIndex{
		hits:      []driven.VectorHit{{ChunkID: chunkID("doc-1", 0), Distance: 0.1}},
		searchErr: errors.New("graph corrupted"),
	}
	engine := newStubEngine(t, testConfig(), idx, seedChunks("some text"))

	prompt := engine.RetrieveContext(context.Background(), "query", domain.RetrieveOptions{})
	assert.Equal(t, "query", prompt)
}

func TestRetrieveContext_EmptyIndex(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), newHashEmbedder(testDims))

	prompt := engine.RetrieveContext(context.Background(), "what is go", domain.RetrieveOptions{})
	assert.Equal(t, "Use the following context to answer the question:\nNo relevant context found.\nQuestion: what is go", prompt)
}

func TestRetrieveContext_UnresolvableChunkSkipped(t *testing.T) {
	idx := &stubIndex{hits: []driven.VectorHit{{ChunkID: "ghost:0", Distance: 0.1}}}
	engine := newStubEngine(t, testConfig(), idx, seedChunks("stored text"))

	prompt := engine.RetrieveContext(context.Background(), "query", domain.RetrieveOptions{})
	assert.Contains(t, prompt, promptNoContext)
	assert.NotContains(t, prompt, "stored text")
}

// --- Filtering and overrides ---

func TestRetrieveContext_ThresholdInclusive(t *testing.T) {
	// First hit sits exactly on the threshold, second strictly below it.
	idx := &stubIndex{hits: []driven.VectorHit{
		{ChunkID: chunkID("doc-1", 0), Distance: 0.5},
		{ChunkID: chunkID("doc-1", 1), Distance: 0.8},
	}}

	cfg := testConfig()
	cfg.Threshold = 0.5
	engine := newStubEngine(t, cfg, idx, seedChunks("at the boundary", "far away"))

	prompt := engine.RetrieveContext(context.Background(), "query", domain.RetrieveOptions{})
	assert.Contains(t, prompt, "0: at the boundary;")
	assert.NotContains(t, prompt, "far away")
}

func TestRetrieveContext_ThresholdOverride(t *testing.T) {
	idx := &stubIndex{hits: []driven.VectorHit{
		{ChunkID: chunkID("doc-1", 0), Distance: 0.5},
		{ChunkID: chunkID("doc-1", 1), Distance: 0.8},
	}}
	engine := newStubEngine(t, testConfig(), idx, seedChunks("near", "far"))

	threshold := 0.1
	prompt := engine.RetrieveContext(context.Background(), "query", domain.RetrieveOptions{Threshold: &threshold})
	assert.Contains(t, prompt, "0: near;")
	assert.Contains(t, prompt, "1: far;")
}

func TestRetrieveContext_TopKOverride(t *testing.T) {
	idx := &stubIndex{hits: []driven.VectorHit{
		{ChunkID: chunkID("doc-1", 0), Distance: 0.1},
		{ChunkID: chunkID("doc-1", 1), Distance: 0.2},
	}}
	engine := newStubEngine(t, testConfig(), idx, seedChunks("first", "second"))
	ctx := context.Background()

	engine.RetrieveContext(ctx, "query", domain.RetrieveOptions{})
	assert.Equal(t, testConfig().TopK, idx.lastK)

	k := 1
	prompt := engine.RetrieveContext(ctx, "query", domain.RetrieveOptions{TopK: &k})
	assert.Equal(t, 1, idx.lastK)
	assert.Contains(t, prompt, "first")
	assert.NotContains(t, prompt, "second")
}

// --- End to end over the real index ---

func TestRetrieveContext_EndToEnd(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), newHashEmbedder(testDims))
	ctx := context.Background()

	_, err := engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: olympicsText})
	require.NoError(t, err)

	k := 1
	prompt := engine.RetrieveContext(ctx, "Olympics", domain.RetrieveOptions{TopK: &k})

	assert.True(t, strings.HasPrefix(prompt, promptInstruction+"\n"))
	assert.Contains(t, prompt, "2024 Olympics")
	assert.True(t, strings.HasSuffix(prompt, "Question: Olympics"))

	// Exactly one numbered context line.
	assert.Contains(t, prompt, "0: ")
	assert.NotContains(t, prompt, "1: ")
}

// --- Prompt assembly ---

func TestFormatPrompt_NoResults(t *testing.T) {
	prompt := formatPrompt("why", nil)
	assert.Equal(t, "Use the following context to answer the question:\nNo relevant context found.\nQuestion: why", prompt)
}

func TestFormatPrompt_NumbersResultsInOrder(t *testing.T) {
	results := []domain.RetrievedChunk{
		{Chunk: domain.Chunk{Content: "closest match"}, Similarity: 0.9},
		{Chunk: domain.Chunk{Content: "second match"}, Similarity: 0.6},
	}

	prompt := formatPrompt("the question", results)
	assert.Equal(t, "Use the following context to answer the question:\n0: closest match;\n1: second match;\nQuestion: the question", prompt)
	assert.False(t, strings.HasSuffix(prompt, "\n"))
}
