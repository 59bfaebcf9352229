package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

// TestConfig_Validate covers every rejected parameter combination.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		valid  bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
			valid:  true,
		},
		{
			name:   "zero dimensions",
			mutate: func(c *Config) { c.Dimensions = 0 },
			valid:  false,
		},
		{
			name:   "negative dimensions",
			mutate: func(c *Config) { c.Dimensions = -1 },
			valid:  false,
		},
		{
			name:   "zero chunk max size",
			mutate: func(c *Config) { c.ChunkMaxSize = 0 },
			valid:  false,
		},
		{
			name:   "negative overlap",
			mutate: func(c *Config) { c.ChunkOverlap = -1 },
			valid:  false,
		},
		{
			name:   "overlap equal to chunk size",
			mutate: func(c *Config) { c.ChunkOverlap = c.ChunkMaxSize },
			valid:  false,
		},
		{
			name:   "overlap just below chunk size",
			mutate: func(c *Config) { c.ChunkOverlap = c.ChunkMaxSize - 1 },
			valid:  true,
		},
		{
			name:   "zero overlap",
			mutate: func(c *Config) { c.ChunkOverlap = 0 },
			valid:  true,
		},
		{
			name:   "M below two",
			mutate: func(c *Config) { c.M = 1 },
			valid:  false,
		},
		{
			name:   "zero efConstruction",
			mutate: func(c *Config) { c.EfConstruction = 0 },
			valid:  false,
		},
		{
			name:   "zero efSearch",
			mutate: func(c *Config) { c.EfSearch = 0 },
			valid:  false,
		},
		{
			name:   "zero max elements",
			mutate: func(c *Config) { c.MaxElements = 0 },
			valid:  false,
		},
		{
			name:   "zero top k",
			mutate: func(c *Config) { c.TopK = 0 },
			valid:  false,
		},
		{
			name:   "negative threshold",
			mutate: func(c *Config) { c.Threshold = -0.1 },
			valid:  false,
		},
		{
			name:   "threshold above one",
			mutate: func(c *Config) { c.Threshold = 1.1 },
			valid:  false,
		},
		{
			name:   "threshold zero",
			mutate: func(c *Config) { c.Threshold = 0 },
			valid:  true,
		},
		{
			name:   "threshold one",
			mutate: func(c *Config) { c.Threshold = 1 },
			valid:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfiguration)
			}
		})
	}
}

func TestConfig_Apply(t *testing.T) {
	base := DefaultConfig()

	topK := 9
	threshold := 0.75
	next := base.Apply(ConfigPatch{TopK: &topK, Threshold: &threshold})

	assert.Equal(t, 9, next.TopK)
	assert.InDelta(t, 0.75, next.Threshold, 1e-9)

	// Untouched fields carry over, and the receiver is unchanged.
	assert.Equal(t, base.Dimensions, next.Dimensions)
	assert.Equal(t, base.M, next.M)
	assert.Equal(t, DefaultTopK, base.TopK)
}

func TestConfig_ApplyEmptyPatchIsIdentity(t *testing.T) {
	base := DefaultConfig()
	assert.Equal(t, base, base.Apply(ConfigPatch{}))
}

// TestConfig_RequiresRebuild distinguishes graph-structural parameters from
// query-time and chunking parameters.
func TestConfig_RequiresRebuild(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		rebuild bool
	}{
		{
			name:    "no change",
			mutate:  func(c *Config) {},
			rebuild: false,
		},
		{
			name:    "dimensions change",
			mutate:  func(c *Config) { c.Dimensions = 256 },
			rebuild: true,
		},
		{
			name:    "M change",
			mutate:  func(c *Config) { c.M = 32 },
			rebuild: true,
		},
		{
			name:    "efConstruction change",
			mutate:  func(c *Config) { c.EfConstruction = 400 },
			rebuild: true,
		},
		{
			name:    "max elements change",
			mutate:  func(c *Config) { c.MaxElements = 50000 },
			rebuild: true,
		},
		{
			name:    "efSearch change",
			mutate:  func(c *Config) { c.EfSearch = 128 },
			rebuild: false,
		},
		{
			name:    "top k change",
			mutate:  func(c *Config) { c.TopK = 10 },
			rebuild: false,
		},
		{
			name:    "threshold change",
			mutate:  func(c *Config) { c.Threshold = 0.5 },
			rebuild: false,
		},
		{
			name:    "chunking change",
			mutate:  func(c *Config) { c.ChunkMaxSize = 500; c.ChunkOverlap = 50 },
			rebuild: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := DefaultConfig()
			next := base
			tt.mutate(&next)
			assert.Equal(t, tt.rebuild, base.RequiresRebuild(next))
		})
	}
}
