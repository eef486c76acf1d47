// Package chartcache pushes restored filling zones into the externally-owned
// chart cache. The cache is best-effort: callers log failures and move on,
// and the reconstruction engine never reads from it.
package chartcache

import (
	"context"

	"github.com/google/uuid"
)

// Cache is the chart-cache surface the undo engine writes to.
type Cache interface {
	PutFilling(ctx context.Context, patientID uuid.UUID, tooth int, zones []string, material string) error
}

// Noop discards every write. Used when no cache is configured.
type Noop struct{}

func (Noop) PutFilling(context.Context, uuid.UUID, int, []string, string) error { return nil }
