package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketml/pocketrag/internal/core/domain"
)

func TestConfigStore_LoadMissingFileReturnsDefaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestConfigStore_SaveLoadRoundTrip(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	cfg := domain.DefaultConfig()
	cfg.TopK = 7
	cfg.Threshold = 0.5
	cfg.ChunkMaxSize = 800

	require.NoError(t, store.Save(ctx, cfg))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfigStore_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	// Only two fields set; the rest must fall back to defaults.
	content := "top_k = 3\nthreshold = 0.6\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	cfg, err := store.Load(context.Background())
	require.NoError(t, err)

	defaults := domain.DefaultConfig()
	assert.Equal(t, 3, cfg.TopK)
	assert.InDelta(t, 0.6, cfg.Threshold, 1e-9)
	assert.Equal(t, defaults.Dimensions, cfg.Dimensions)
	assert.Equal(t, defaults.ChunkMaxSize, cfg.ChunkMaxSize)
	assert.Equal(t, defaults.M, cfg.M)
}

func TestConfigStore_InvalidStoredConfigRejected(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	content := "chunk_overlap = 5000\n" // overlap >= max size
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}
