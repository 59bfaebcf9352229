package memory

import (
	"context"
	"sync"

	"github.com/pocketml/pocketrag/internal/core/domain"
	"github.com/pocketml/pocketrag/internal/core/ports/driven"
)

var _ driven.IndexSnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore holds the latest index snapshot in memory.
type SnapshotStore struct {
	mu   sync.Mutex
	blob []byte
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// SaveGraph replaces the stored snapshot.
func (s *SnapshotStore) SaveGraph(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = append([]byte(nil), blob...)
	return nil
}

// LoadGraph returns the stored snapshot, or ErrNotFound if none was saved.
func (s *SnapshotStore) LoadGraph(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), s.blob...), nil
}
