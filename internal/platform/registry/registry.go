// Package registry provides read-only lookup of procedure-code metadata.
// The code catalog itself is owned by the billing system; this package only
// resolves references into it.
package registry

import (
	"context"

	"github.com/google/uuid"
)

// Code categories drive chart behavior: the reconstruction engine and the
// composite builders branch on Category, never on the code string itself.
const (
	CategoryCrown      = "crown"
	CategoryPontic     = "pontic"
	CategoryFilling    = "filling"
	CategoryExtraction = "extraction"
	CategorySealing    = "sealing"
	CategoryScaling    = "scaling"
	CategoryMarker     = "marker"
	CategoryAdjunct    = "adjunct"
)

// SentinelDisabled is the code string marking a tooth as disabled on the
// chart. Records carrying it are rendering markers, not procedures.
const SentinelDisabled = "DISABLED"

// Code is one entry of the procedure-code catalog.
type Code struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Code     string    `db:"code" json:"code"`
	Category string    `db:"category" json:"category"`
	Display  string    `db:"display" json:"display"`
	// Material is the primary material a prosthetic code implies
	// (crowns and pontics only).
	Material string `db:"material" json:"material,omitempty"`
}

// Registry resolves procedure-code references.
type Registry interface {
	Resolve(ctx context.Context, id uuid.UUID) (*Code, error)
	ResolveCode(ctx context.Context, code string) (*Code, error)
}
