package driven

import (
	"context"

	"github.com/pocketml/pocketrag/internal/core/domain"
)

// ConfigStore persists engine configuration between runs.
type ConfigStore interface {
	// Load returns the stored configuration, or domain.DefaultConfig()
	// merged with whatever fields were stored.
	Load(ctx context.Context) (domain.Config, error)

	// Save persists the configuration.
	Save(ctx context.Context, cfg domain.Config) error
}
