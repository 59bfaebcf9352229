// Package hnsw implements a Hierarchical Navigable Small World graph for
// approximate nearest-neighbour search under cosine distance.
//
// Vectors are L2-normalized on insertion, so cosine distance reduces to
// 1 − dot product. The index is bounded: capacity is fixed at construction
// and inserts beyond it fail. Point deletion is not supported; owners
// rebuild from the surviving records instead.
package hnsw

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/pocketml/pocketrag/internal/core/domain"
	"github.com/pocketml/pocketrag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Config holds the build- and query-time parameters of the graph.
type Config struct {
	// Dimensions is the vector size accepted by the index.
	Dimensions int

	// M is the maximum number of bi-directional links per node on upper
	// layers; layer 0 allows 2*M.
	M int

	// EfConstruction is the candidate-list size during insertion. Larger
	// values buy recall at the cost of build time.
	EfConstruction int

	// EfSearch is the candidate-list size during queries. Larger values
	// buy recall at the cost of query latency.
	EfSearch int

	// MaxElements bounds the number of vectors the index can hold.
	MaxElements int
}

// FromDomain derives index parameters from the engine configuration.
func FromDomain(cfg domain.Config) Config {
	return Config{
		Dimensions:     cfg.Dimensions,
		M:              cfg.M,
		EfConstruction: cfg.EfConstruction,
		EfSearch:       cfg.EfSearch,
		MaxElements:    cfg.MaxElements,
	}
}

// node is one element of the graph. links[l] holds the neighbour IDs on
// layer l; a node participates in layers 0..level.
type node struct {
	chunkID string
	vector  []float32
	level   int
	links   [][]uint32
}

// Index is an in-memory HNSW graph.
//
// Locking follows single-writer-multiple-reader: Add and Restore take the
// write lock, Search the read lock. A reader can never observe a
// half-built graph.
type Index struct {
	mu       sync.RWMutex
	cfg      Config
	ml       float64
	nodes    []node
	ids      map[string]uint32
	entry    uint32
	maxLevel int
	rng      *rand.Rand
	closed   bool
}

// New constructs an empty index. Construction is the explicit build step:
// inserts are only legal on a constructed, open index.
func New(cfg Config) (*Index, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidConfiguration)
	}
	if cfg.M < 2 {
		return nil, fmt.Errorf("%w: M must be at least 2", domain.ErrInvalidConfiguration)
	}
	if cfg.EfConstruction < 1 || cfg.EfSearch < 1 {
		return nil, fmt.Errorf("%w: efConstruction and efSearch must be positive", domain.ErrInvalidConfiguration)
	}
	if cfg.MaxElements <= 0 {
		return nil, fmt.Errorf("%w: max elements must be positive", domain.ErrInvalidConfiguration)
	}

	return &Index{
		cfg:      cfg,
		ml:       1 / math.Log(float64(cfg.M)),
		ids:      make(map[string]uint32),
		maxLevel: -1,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // level sampling, not crypto
	}, nil
}

// Add inserts a vector under the given chunk ID.
func (ix *Index) Add(_ context.Context, chunkID string, embedding []float32) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return fmt.Errorf("hnsw: %w", domain.ErrIndexNotReady)
	}
	if len(embedding) != ix.cfg.Dimensions {
		return fmt.Errorf("%w: expected %d dimensions, got %d",
			domain.ErrInvalidInput, ix.cfg.Dimensions, len(embedding))
	}
	if _, exists := ix.ids[chunkID]; exists {
		return fmt.Errorf("%w: chunk %q is already indexed", domain.ErrAlreadyExists, chunkID)
	}
	if len(ix.nodes) >= ix.cfg.MaxElements {
		return fmt.Errorf("%w: index was built for %d elements",
			domain.ErrCapacityExceeded, ix.cfg.MaxElements)
	}

	vec := normalize(embedding)
	level := ix.randomLevel()

	id := uint32(len(ix.nodes))
	ix.nodes = append(ix.nodes, node{
		chunkID: chunkID,
		vector:  vec,
		level:   level,
		links:   make([][]uint32, level+1),
	})
	ix.ids[chunkID] = id

	// First element becomes the entry point.
	if len(ix.nodes) == 1 {
		ix.entry = id
		ix.maxLevel = level
		return nil
	}

	// Greedy descent through layers above the new node's level.
	ep := ix.entry
	for l := ix.maxLevel; l > level; l-- {
		ep = ix.greedyClosest(vec, ep, l)
	}

	top := level
	if top > ix.maxLevel {
		top = ix.maxLevel
	}

	for l := top; l >= 0; l-- {
		candidates := ix.searchLayer(vec, ep, ix.cfg.EfConstruction, l)

		neighbours := candidates
		if len(neighbours) > ix.cfg.M {
			neighbours = neighbours[:ix.cfg.M]
		}

		for _, nb := range neighbours {
			ix.nodes[id].links[l] = append(ix.nodes[id].links[l], nb.id)
			ix.nodes[nb.id].links[l] = append(ix.nodes[nb.id].links[l], id)
			ix.pruneLinks(nb.id, l)
		}

		ep = candidates[0].id
	}

	if level > ix.maxLevel {
		ix.maxLevel = level
		ix.entry = id
	}

	return nil
}

// Search finds the k nearest neighbours to the query vector, ordered
// ascending by cosine distance.
func (ix *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, fmt.Errorf("hnsw: %w", domain.ErrIndexNotReady)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if len(query) != ix.cfg.Dimensions {
		return nil, fmt.Errorf("%w: expected %d dimensions, got %d",
			domain.ErrInvalidInput, ix.cfg.Dimensions, len(query))
	}
	if len(ix.nodes) == 0 {
		return nil, nil
	}

	q := normalize(query)

	ep := ix.entry
	for l := ix.maxLevel; l > 0; l-- {
		ep = ix.greedyClosest(q, ep, l)
	}

	ef := ix.cfg.EfSearch
	if ef < k {
		ef = k
	}

	candidates := ix.searchLayer(q, ep, ef, 0)
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	hits := make([]driven.VectorHit, len(candidates))
	for i, c := range candidates {
		d := c.dist
		if d < 0 {
			// Floating-point residue on identical vectors.
			d = 0
		}
		hits[i] = driven.VectorHit{ChunkID: ix.nodes[c.id].chunkID, Distance: d}
	}

	return hits, nil
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.nodes)
}

// Close releases the graph. Subsequent operations fail with
// domain.ErrIndexNotReady.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.nodes = nil
	ix.ids = nil
	ix.closed = true
	return nil
}

// randomLevel samples a layer from the exponential level distribution.
func (ix *Index) randomLevel() int {
	r := ix.rng.Float64()
	for r == 0 {
		r = ix.rng.Float64()
	}
	return int(-math.Log(r) * ix.ml)
}

// maxConnections returns the link budget for a layer.
func (ix *Index) maxConnections(level int) int {
	if level == 0 {
		return 2 * ix.cfg.M
	}
	return ix.cfg.M
}

// greedyClosest walks a single layer towards the query until no neighbour
// improves the distance.
func (ix *Index) greedyClosest(q []float32, entryID uint32, level int) uint32 {
	curr := entryID
	currDist := cosineDistance(q, ix.nodes[curr].vector)

	for {
		improved := false
		for _, nb := range ix.nodes[curr].links[level] {
			if d := cosineDistance(q, ix.nodes[nb].vector); d < currDist {
				curr = nb
				currDist = d
				improved = true
			}
		}
		if !improved {
			return curr
		}
	}
}

// searchCandidate pairs a node with its distance to the query.
type searchCandidate struct {
	id   uint32
	dist float64
}

// searchLayer performs the beam search of one layer, returning up to ef
// candidates ordered ascending by distance.
func (ix *Index) searchLayer(q []float32, entryID uint32, ef, level int) []searchCandidate {
	entryDist := cosineDistance(q, ix.nodes[entryID].vector)

	visited := map[uint32]struct{}{entryID: {}}
	candidates := &minDistHeap{{id: entryID, dist: entryDist}}
	results := &maxDistHeap{{id: entryID, dist: entryDist}}

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(searchCandidate)
		if results.Len() >= ef && c.dist > (*results)[0].dist {
			break
		}

		for _, nb := range ix.nodes[c.id].links[level] {
			if _, seen := visited[nb]; seen {
				continue
			}
			visited[nb] = struct{}{}

			d := cosineDistance(q, ix.nodes[nb].vector)
			if results.Len() < ef || d < (*results)[0].dist {
				heap.Push(candidates, searchCandidate{id: nb, dist: d})
				heap.Push(results, searchCandidate{id: nb, dist: d})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]searchCandidate, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(searchCandidate)
	}
	return out
}

// pruneLinks trims a node's layer links back to the connection budget,
// keeping the closest neighbours.
func (ix *Index) pruneLinks(id uint32, level int) {
	limit := ix.maxConnections(level)
	links := ix.nodes[id].links[level]
	if len(links) <= limit {
		return
	}

	base := ix.nodes[id].vector
	sort.Slice(links, func(i, j int) bool {
		return cosineDistance(base, ix.nodes[links[i]].vector) <
			cosineDistance(base, ix.nodes[links[j]].vector)
	})
	ix.nodes[id].links[level] = links[:limit]
}

// minDistHeap is a min-heap of candidates by distance.
type minDistHeap []searchCandidate

func (h minDistHeap) Len() int            { return len(h) }
func (h minDistHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h minDistHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minDistHeap) Push(x any)         { *h = append(*h, x.(searchCandidate)) }
func (h *minDistHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// maxDistHeap is a max-heap of candidates by distance; the root is the
// worst result kept so far.
type maxDistHeap []searchCandidate

func (h maxDistHeap) Len() int            { return len(h) }
func (h maxDistHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h maxDistHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxDistHeap) Push(x any)         { *h = append(*h, x.(searchCandidate)) }
func (h *maxDistHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// normalize returns an L2-normalized copy of the vector. Zero vectors are
// returned as-is.
func normalize(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)

	var sum float64
	for _, v := range out {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return out
	}

	norm := float32(math.Sqrt(sum))
	for i := range out {
		out[i] /= norm
	}
	return out
}

// cosineDistance computes 1 − dot product for normalized vectors.
func cosineDistance(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return 1 - dot
}
