package actionlog

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores action-log entries and pre-image snapshots. LatestEntry
// and GetSnapshot return (nil, nil) when nothing matches; the service turns
// that into its undo error taxonomy.
type Repository interface {
	AppendEntry(ctx context.Context, e *Entry) error
	// LatestEntry finds the most recent entry for a user/org scope,
	// optionally narrowed to one entity.
	LatestEntry(ctx context.Context, userID, orgID, entityType string, entityID *uuid.UUID) (*Entry, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID, orgID string, limit, offset int) ([]*Entry, int, error)

	// PutSnapshot upserts the snapshot for its entity id.
	PutSnapshot(ctx context.Context, s *Snapshot) error
	GetSnapshot(ctx context.Context, entityID uuid.UUID) (*Snapshot, error)
	DeleteSnapshot(ctx context.Context, id uuid.UUID) error
}
