// Package chart projects a patient's procedure ledger into the rendering
// state of their dentition. The projection is recomputed from scratch on
// every read; nothing here is persisted.
package chart

import "github.com/arcalife/dental-api/internal/domain/procedure"

// Overlay kinds. An overlay applies to the whole tooth rather than one zone.
const (
	OverlayCrown      = "crown"
	OverlayExtraction = "extraction"
)

// Zone state set by a DISABLED marker.
const ZoneDisabled = "disabled"

// BridgeRef identifies a tooth's membership in a prosthetic bridge.
type BridgeRef struct {
	GroupID   string `json:"group_id"`
	Role      string `json:"role"`
	IsPrimary bool   `json:"is_primary"`
}

// Overlay is a whole-tooth rendering state (crown or extraction).
type Overlay struct {
	Kind         string     `json:"kind"`
	Material     string     `json:"material,omitempty"`
	RenderStatus string     `json:"render_status"`
	Bridge       *BridgeRef `json:"bridge,omitempty"`
}

// ToothState is the derived rendering state of one tooth. Zones maps zone
// names (per the tooth's anatomy) to color states like
// "filling-history-composite" or "sealing-pending"; History lists codes that
// were performed on the tooth without coloring it (scaling).
type ToothState struct {
	IsDisabled bool              `json:"is_disabled"`
	WholeTooth *Overlay          `json:"whole_tooth,omitempty"`
	Zones      map[string]string `json:"zones"`
	History    []string          `json:"history,omitempty"`
}

func newToothState() *ToothState {
	return &ToothState{Zones: make(map[string]string)}
}

// Record is one ledger entry with its code already resolved against the
// registry. The reconstruction engine is a pure function of these.
type Record struct {
	Tooth        int // 0 when the code is not tooth-scoped
	Code         string
	Category     string
	Status       procedure.Status
	SubSurfaces  []string
	Material     string // record's filling material
	CodeMaterial string // primary material the code implies (prosthetics)
	Notes        string
	BridgeGroup  string
	BridgeRole   string
	BridgeMain   bool
}
