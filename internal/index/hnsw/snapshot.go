package hnsw

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/pocketml/pocketrag/internal/core/domain"
)

// persistedNode is the serialized form of a graph node.
type persistedNode struct {
	ChunkID string
	Vector  []float32
	Level   int
	Links   [][]uint32
}

// persistedGraph is the serialized form of the whole index. The blob is
// opaque to callers; only this package reads or writes it.
type persistedGraph struct {
	Dimensions int
	M          int
	Nodes      []persistedNode
	Entry      uint32
	MaxLevel   int
}

// Snapshot serializes the graph to an opaque blob.
func (ix *Index) Snapshot() ([]byte, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, fmt.Errorf("hnsw: %w", domain.ErrIndexNotReady)
	}

	graph := persistedGraph{
		Dimensions: ix.cfg.Dimensions,
		M:          ix.cfg.M,
		Nodes:      make([]persistedNode, len(ix.nodes)),
		Entry:      ix.entry,
		MaxLevel:   ix.maxLevel,
	}
	for i, n := range ix.nodes {
		graph.Nodes[i] = persistedNode{
			ChunkID: n.chunkID,
			Vector:  n.vector,
			Level:   n.level,
			Links:   n.links,
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(graph); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Restore replaces the index contents from a Snapshot blob. The snapshot
// must have been taken with the same dimensionality and link budget.
func (ix *Index) Restore(data []byte) error {
	var graph persistedGraph
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&graph); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return fmt.Errorf("hnsw: %w", domain.ErrIndexNotReady)
	}
	if graph.Dimensions != ix.cfg.Dimensions || graph.M != ix.cfg.M {
		return fmt.Errorf("%w: snapshot built with dimensions=%d M=%d, index configured with dimensions=%d M=%d",
			domain.ErrInvalidConfiguration, graph.Dimensions, graph.M, ix.cfg.Dimensions, ix.cfg.M)
	}
	if len(graph.Nodes) > ix.cfg.MaxElements {
		return fmt.Errorf("%w: snapshot holds %d elements, index capacity is %d",
			domain.ErrCapacityExceeded, len(graph.Nodes), ix.cfg.MaxElements)
	}

	nodes := make([]node, len(graph.Nodes))
	ids := make(map[string]uint32, len(graph.Nodes))
	for i, pn := range graph.Nodes {
		nodes[i] = node{
			chunkID: pn.ChunkID,
			vector:  pn.Vector,
			level:   pn.Level,
			links:   pn.Links,
		}
		ids[pn.ChunkID] = uint32(i)
	}

	ix.nodes = nodes
	ix.ids = ids
	ix.entry = graph.Entry
	ix.maxLevel = graph.MaxLevel
	return nil
}
