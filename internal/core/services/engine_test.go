package services

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketml/pocketrag/internal/adapters/driven/storage/memory"
	"github.com/pocketml/pocketrag/internal/chunker"
	"github.com/pocketml/pocketrag/internal/core/domain"
	"github.com/pocketml/pocketrag/internal/core/ports/driven"
	"github.com/pocketml/pocketrag/internal/index/hnsw"
)

// --- Mock implementations ---

// hashEmbedder is a deterministic bag-of-words embedder: each token is
// hashed into a bucket and the vector L2-normalized. Texts sharing tokens
// get positive cosine similarity, disjoint texts stay near zero, and the
// same text always embeds identically.
type hashEmbedder struct {
	dims    int
	calls   int
	failOn  map[int]bool // fail the n-th Embed call (0-based)
	err     error        // fail every call
	onEmbed func()       // invoked after each successful call
}

func newHashEmbedder(dims int) *hashEmbedder {
	return &hashEmbedder{dims: dims}
}

func (m *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	call := m.calls
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	if m.failOn[call] {
		return nil, errors.New("inference backend unavailable")
	}

	vec := make([]float32, m.dims)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%uint32(m.dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	if m.onEmbed != nil {
		m.onEmbed()
	}
	return vec, nil
}

func (m *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *hashEmbedder) Dimensions() int              { return m.dims }
func (m *hashEmbedder) ModelName() string            { return "hash-bow" }
func (m *hashEmbedder) Ping(_ context.Context) error { return nil }
func (m *hashEmbedder) Close() error                 { return nil }

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// --- Test fixtures ---

const testDims = 64

func testConfig() domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Dimensions = testDims
	cfg.ChunkMaxSize = 40
	cfg.ChunkOverlap = 5
	cfg.M = 8
	cfg.EfConstruction = 64
	cfg.EfSearch = 64
	cfg.MaxElements = 100
	return cfg
}

func hnswFactory(cfg domain.Config) (driven.VectorIndex, error) {
	return hnsw.New(hnsw.FromDomain(cfg))
}

// newTestEngine builds an engine over in-memory adapters and a real index.
func newTestEngine(t *testing.T, cfg domain.Config, embedder driven.EmbeddingService) (*Engine, *memory.DocumentStore, *memory.SnapshotStore) {
	t.Helper()

	docStore := memory.NewDocumentStore()
	snapshots := memory.NewSnapshotStore()

	engine, err := NewEngine(cfg, docStore, embedder, snapshots, hnswFactory)
	require.NoError(t, err)
	return engine, docStore, snapshots
}

const olympicsText = "The capital of France is Paris. Paris hosted the 2024 Olympics."

// --- Construction ---

func TestNewEngine_Validation(t *testing.T) {
	docStore := memory.NewDocumentStore()

	bad := testConfig()
	bad.TopK = 0
	_, err := NewEngine(bad, docStore, nil, nil, hnswFactory)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = NewEngine(testConfig(), nil, nil, nil, hnswFactory)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = NewEngine(testConfig(), docStore, nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

// --- Ingestion ---

func TestIngest_NoEmbedderRejected(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), nil)

	_, err := engine.Ingest(context.Background(), domain.IngestRequest{Content: "hello"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIngest_GeneratesDocumentID(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), newHashEmbedder(testDims))
	ctx := context.Background()

	result, err := engine.Ingest(ctx, domain.IngestRequest{Content: olympicsText})
	require.NoError(t, err)
	assert.NotEmpty(t, result.DocumentID)
	assert.Equal(t, 2, result.ChunkCount)

	docs, err := engine.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, result.DocumentID, docs[0].ID)
	assert.Equal(t, 2, docs[0].ChunkCount)
}

func TestIngest_DuplicateIDRejected(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), newHashEmbedder(testDims))
	ctx := context.Background()

	_, err := engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: olympicsText})
	require.NoError(t, err)

	_, err = engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: "other content"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestIngest_SameContentUnderTwoIDs(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), newHashEmbedder(testDims))
	ctx := context.Background()

	first, err := engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-a", Content: olympicsText})
	require.NoError(t, err)
	second, err := engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-b", Content: olympicsText})
	require.NoError(t, err)

	assert.Equal(t, first.ChunkCount, second.ChunkCount)
	assert.Equal(t, 2*first.ChunkCount, engine.Stats(ctx).TotalVectors)

	// Deleting one copy leaves the other fully searchable.
	require.NoError(t, engine.DeleteDocument(ctx, "doc-a"))
	assert.Equal(t, first.ChunkCount, engine.Stats(ctx).TotalVectors)

	prompt := engine.RetrieveContext(ctx, "Olympics", domain.RetrieveOptions{})
	assert.Contains(t, prompt, "2024 Olympics")
}

func TestIngest_PartialEmbedFailureSkipsChunk(t *testing.T) {
	embedder := newHashEmbedder(testDims)
	embedder.failOn = map[int]bool{1: true} // second chunk fails

	engine, docStore, _ := newTestEngine(t, testConfig(), embedder)
	ctx := context.Background()

	// Long enough for several chunks.
	content := strings.Repeat("alpha beta gamma delta epsilon ", 4)
	ck, err := chunker.New(40, 5)
	require.NoError(t, err)
	pieces := len(ck.Split(content))
	require.Greater(t, pieces, 2)

	result, err := engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: content})
	require.NoError(t, err)
	assert.Equal(t, pieces-1, result.ChunkCount)

	// Surviving chunks are stored and positions reflect the originals.
	chunks, err := docStore.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, chunks, pieces-1)
	for _, c := range chunks {
		assert.NotEqual(t, 1, c.Position)
	}
}

func TestIngest_CancellationKeepsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	embedder := newHashEmbedder(testDims)
	embedder.onEmbed = cancel // cancel after the first chunk embeds

	engine, _, _ := newTestEngine(t, testConfig(), embedder)

	result, err := engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: olympicsText})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.ChunkCount)

	// No rollback: the indexed chunk stays queryable.
	assert.Equal(t, 1, engine.Stats(context.Background()).TotalVectors)
}

func TestIngest_CapacityExceededSurfaced(t *testing.T) {
	cfg := testConfig()
	cfg.MaxElements = 2

	engine, _, _ := newTestEngine(t, cfg, newHashEmbedder(testDims))
	ctx := context.Background()

	content := strings.Repeat("one two three four five six seven ", 4)
	result, err := engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: content})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.ChunkCount)
}

// --- Deletion ---

func TestDeleteDocument_RebuildsIndex(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), newHashEmbedder(testDims))
	ctx := context.Background()

	_, err := engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: olympicsText})
	require.NoError(t, err)
	_, err = engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-2", Content: "Completely unrelated text about gardening and soil."})
	require.NoError(t, err)

	before := engine.Stats(ctx).TotalVectors
	require.NoError(t, engine.DeleteDocument(ctx, "doc-1"))
	after := engine.Stats(ctx).TotalVectors
	assert.Less(t, after, before)

	// The deleted document's content is no longer retrievable.
	prompt := engine.RetrieveContext(ctx, "2024 Olympics in Paris", domain.RetrieveOptions{})
	assert.NotContains(t, prompt, "Olympics.")

	docs, err := engine.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-2", docs[0].ID)
}

func TestDeleteDocument_NotFound(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), newHashEmbedder(testDims))

	err := engine.DeleteDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// --- Configuration ---

func TestUpdateConfig_QueryParamsNoRebuild(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), newHashEmbedder(testDims))
	ctx := context.Background()

	_, err := engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: olympicsText})
	require.NoError(t, err)

	topK := 9
	threshold := 0.5
	next, err := engine.UpdateConfig(ctx, domain.ConfigPatch{TopK: &topK, Threshold: &threshold})
	require.NoError(t, err)
	assert.Equal(t, 9, next.TopK)
	assert.InDelta(t, 0.5, next.Threshold, 1e-9)
	assert.Equal(t, 2, engine.Stats(ctx).TotalVectors)
}

func TestUpdateConfig_StructuralChangeRebuilds(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), newHashEmbedder(testDims))
	ctx := context.Background()

	_, err := engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: olympicsText})
	require.NoError(t, err)

	m := 12
	next, err := engine.UpdateConfig(ctx, domain.ConfigPatch{M: &m})
	require.NoError(t, err)
	assert.Equal(t, 12, next.M)

	// Vectors survive the rebuild and remain searchable.
	assert.Equal(t, 2, engine.Stats(ctx).TotalVectors)
	prompt := engine.RetrieveContext(ctx, "Olympics", domain.RetrieveOptions{})
	assert.Contains(t, prompt, "Olympics")
}

func TestUpdateConfig_DimensionChangeRejectedWhilePopulated(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), newHashEmbedder(testDims))
	ctx := context.Background()

	_, err := engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: olympicsText})
	require.NoError(t, err)

	dims := 128
	_, err = engine.UpdateConfig(ctx, domain.ConfigPatch{Dimensions: &dims})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	// Allowed once the corpus is empty.
	require.NoError(t, engine.Clear(ctx))
	next, err := engine.UpdateConfig(ctx, domain.ConfigPatch{Dimensions: &dims})
	require.NoError(t, err)
	assert.Equal(t, 128, next.Dimensions)
}

func TestUpdateConfig_InvalidPatchRejected(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), newHashEmbedder(testDims))

	overlap := 40 // equal to chunk max size
	_, err := engine.UpdateConfig(context.Background(), domain.ConfigPatch{ChunkOverlap: &overlap})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	// Config unchanged after the failed update.
	assert.Equal(t, 5, engine.Config().ChunkOverlap)
}

// --- Clear ---

func TestClear_ResetsEverything(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), newHashEmbedder(testDims))
	ctx := context.Background()

	_, err := engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: olympicsText})
	require.NoError(t, err)

	require.NoError(t, engine.Clear(ctx))

	assert.Equal(t, 0, engine.Stats(ctx).TotalVectors)
	docs, err := engine.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	// Re-ingesting under the old ID works after a clear.
	_, err = engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: olympicsText})
	assert.NoError(t, err)
}

// --- Snapshots ---

func TestSaveLoadIndex_RoundTrip(t *testing.T) {
	embedder := newHashEmbedder(testDims)
	docStore := memory.NewDocumentStore()
	snapshots := memory.NewSnapshotStore()
	ctx := context.Background()

	first, err := NewEngine(testConfig(), docStore, embedder, snapshots, hnswFactory)
	require.NoError(t, err)

	_, err = first.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: olympicsText})
	require.NoError(t, err)
	require.NoError(t, first.SaveIndex(ctx))

	// A second engine over the same stores restores the graph without
	// re-embedding anything.
	second, err := NewEngine(testConfig(), docStore, embedder, snapshots, hnswFactory)
	require.NoError(t, err)
	require.NoError(t, second.LoadIndex(ctx))

	assert.Equal(t, 2, second.Stats(ctx).TotalVectors)
	prompt := second.RetrieveContext(ctx, "Olympics", domain.RetrieveOptions{})
	assert.Contains(t, prompt, "2024 Olympics")
}

func TestSaveLoadIndex_NoStore(t *testing.T) {
	docStore := memory.NewDocumentStore()
	engine, err := NewEngine(testConfig(), docStore, nil, nil, hnswFactory)
	require.NoError(t, err)

	assert.ErrorIs(t, engine.SaveIndex(context.Background()), domain.ErrNotFound)
	assert.ErrorIs(t, engine.LoadIndex(context.Background()), domain.ErrNotFound)
}

// --- Stats ---

func TestStats(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), newHashEmbedder(testDims))
	ctx := context.Background()

	stats := engine.Stats(ctx)
	assert.Equal(t, 0, stats.TotalVectors)
	assert.Equal(t, testDims, stats.Dimensions)
	assert.True(t, stats.IsReady)

	_, err := engine.Ingest(ctx, domain.IngestRequest{DocumentID: "doc-1", Content: olympicsText})
	require.NoError(t, err)

	stats = engine.Stats(ctx)
	assert.Equal(t, 2, stats.TotalVectors)
	assert.Equal(t, int64(2*testDims*4), stats.IndexSize)
}

func TestStats_NotReadyWithoutEmbedder(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(), nil)
	assert.False(t, engine.Stats(context.Background()).IsReady)
}
