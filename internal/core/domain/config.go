package domain

import "fmt"

// Default configuration values.
const (
	DefaultDimensions     = 512
	DefaultChunkMaxSize   = 1000
	DefaultChunkOverlap   = 200
	DefaultM              = 16
	DefaultEfConstruction = 200
	DefaultEfSearch       = 64
	DefaultMaxElements    = 10000
	DefaultTopK           = 5
	DefaultThreshold      = 0.3
)

// Config holds the tunable parameters governing chunking, indexing and
// retrieval. It is an explicit value passed into constructors rather than
// ambient global state; updates go through Apply on a copy.
type Config struct {
	// Dimensions is the embedding vector size. Fixed per embedding model.
	Dimensions int `toml:"dimensions"`

	// ChunkMaxSize is the sliding-window width in bytes.
	ChunkMaxSize int `toml:"chunk_max_size"`

	// ChunkOverlap is the number of bytes shared by consecutive chunks.
	ChunkOverlap int `toml:"chunk_overlap"`

	// M is the maximum number of bi-directional links per HNSW node.
	M int `toml:"m"`

	// EfConstruction is the candidate-list size during HNSW insertion.
	EfConstruction int `toml:"ef_construction"`

	// EfSearch is the candidate-list size during HNSW queries.
	EfSearch int `toml:"ef_search"`

	// MaxElements is the index capacity fixed at build time.
	MaxElements int `toml:"max_elements"`

	// TopK is the default number of results retrieved per query.
	TopK int `toml:"top_k"`

	// Threshold is the default minimum cosine similarity for a retrieved
	// chunk to survive filtering. Inclusive.
	Threshold float64 `toml:"threshold"`
}

// DefaultConfig returns the stock tuning for a small on-device corpus.
func DefaultConfig() Config {
	return Config{
		Dimensions:     DefaultDimensions,
		ChunkMaxSize:   DefaultChunkMaxSize,
		ChunkOverlap:   DefaultChunkOverlap,
		M:              DefaultM,
		EfConstruction: DefaultEfConstruction,
		EfSearch:       DefaultEfSearch,
		MaxElements:    DefaultMaxElements,
		TopK:           DefaultTopK,
		Threshold:      DefaultThreshold,
	}
}

// Validate rejects parameter combinations before any work starts.
func (c Config) Validate() error {
	if c.Dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", ErrInvalidConfiguration)
	}
	if c.ChunkMaxSize <= 0 {
		return fmt.Errorf("%w: chunk max size must be positive", ErrInvalidConfiguration)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkMaxSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, max size)", ErrInvalidConfiguration)
	}
	if c.M < 2 {
		return fmt.Errorf("%w: M must be at least 2", ErrInvalidConfiguration)
	}
	if c.EfConstruction < 1 || c.EfSearch < 1 {
		return fmt.Errorf("%w: efConstruction and efSearch must be positive", ErrInvalidConfiguration)
	}
	if c.MaxElements <= 0 {
		return fmt.Errorf("%w: max elements must be positive", ErrInvalidConfiguration)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top k must be positive", ErrInvalidConfiguration)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be in [0, 1]", ErrInvalidConfiguration)
	}
	return nil
}

// ConfigPatch is a partial configuration update. Nil fields are left
// unchanged by Apply.
type ConfigPatch struct {
	Dimensions     *int
	ChunkMaxSize   *int
	ChunkOverlap   *int
	M              *int
	EfConstruction *int
	EfSearch       *int
	MaxElements    *int
	TopK           *int
	Threshold      *float64
}

// Apply merges the patch onto a copy of the config and returns it.
// The result is not validated; callers validate before committing.
func (c Config) Apply(p ConfigPatch) Config {
	if p.Dimensions != nil {
		c.Dimensions = *p.Dimensions
	}
	if p.ChunkMaxSize != nil {
		c.ChunkMaxSize = *p.ChunkMaxSize
	}
	if p.ChunkOverlap != nil {
		c.ChunkOverlap = *p.ChunkOverlap
	}
	if p.M != nil {
		c.M = *p.M
	}
	if p.EfConstruction != nil {
		c.EfConstruction = *p.EfConstruction
	}
	if p.EfSearch != nil {
		c.EfSearch = *p.EfSearch
	}
	if p.MaxElements != nil {
		c.MaxElements = *p.MaxElements
	}
	if p.TopK != nil {
		c.TopK = *p.TopK
	}
	if p.Threshold != nil {
		c.Threshold = *p.Threshold
	}
	return c
}

// RequiresRebuild reports whether switching from c to next invalidates the
// existing HNSW graph. Query-time and chunking parameters do not.
func (c Config) RequiresRebuild(next Config) bool {
	return c.Dimensions != next.Dimensions ||
		c.M != next.M ||
		c.EfConstruction != next.EfConstruction ||
		c.MaxElements != next.MaxElements
}
