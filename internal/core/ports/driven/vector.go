package driven

import "context"

// VectorIndex provides approximate nearest-neighbour search over inserted
// (vector, chunk ID) pairs under cosine distance.
//
// Concurrency contract: Add and Restore require exclusive access; Search
// calls may run concurrently with each other but are excluded from
// mutation. Implementations guard this internally.
//
// The index holds a capacity bound fixed at construction; inserting beyond
// it fails with domain.ErrCapacityExceeded and the owner must rebuild with
// a larger bound. Point deletion is not supported: removing chunks means
// rebuilding the index from the remaining records.
type VectorIndex interface {
	// Add inserts a vector under the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Search finds the k nearest neighbours to the query vector, ordered
	// ascending by cosine distance. Returns at most k hits; an empty index
	// yields no hits. k <= 0 is a caller error.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Snapshot serializes the index graph to an opaque byte blob.
	Snapshot() ([]byte, error)

	// Restore replaces the index contents from a Snapshot blob.
	Restore(data []byte) error

	// Close releases resources.
	Close() error
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Distance is the cosine distance (1 − cosine similarity).
	Distance float64
}
