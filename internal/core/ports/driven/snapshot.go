package driven

import "context"

// IndexSnapshotStore persists opaque serialized index graphs. The blob
// format belongs to the index implementation; the store treats it as
// bytes.
type IndexSnapshotStore interface {
	// SaveGraph stores the serialized graph, replacing any previous one.
	SaveGraph(ctx context.Context, data []byte) error

	// LoadGraph returns the last stored graph, or domain.ErrNotFound when
	// none has been saved.
	LoadGraph(ctx context.Context) ([]byte, error)
}
