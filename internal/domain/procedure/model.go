package procedure

import (
	"time"

	"github.com/google/uuid"
)

// Status is the clinical state of a procedure record. It maps onto the chart
// rendering states: PENDING renders as planned work, IN_PROGRESS as the
// current visit, COMPLETED as history.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// RenderState returns the chart rendering state for a status. Unknown
// statuses render as pending.
func (s Status) RenderState() string {
	switch s {
	case StatusInProgress:
		return "current"
	case StatusCompleted:
		return "history"
	default:
		return "pending"
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

// Bridge roles. A bridge record is either an abutment (a crowned anchor
// tooth) or a pontic (the replaced tooth between anchors).
const (
	RoleAbutment = "abutment"
	RolePontic   = "pontic"
)

// DefaultFillingMaterial is assumed when a record does not name one.
const DefaultFillingMaterial = "composite"

// ProcedureRecord is one append-only entry of the clinical procedure ledger.
// Rows are immutable once created except for the editable fields copied by
// ApplyEditable; those are exactly the fields the undo snapshot restores.
//
// Bridge membership lives in the structured BridgeGroup/BridgeRole/BridgeMain
// fields. Older rows encoded the same facts as substrings of Notes; the
// bridge-notes migration backfills them (see ParseBridgeNotes).
type ProcedureRecord struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	CodeID          uuid.UUID  `db:"code_id" json:"code_id"`
	ToothNumber     *int       `db:"tooth_number" json:"tooth_number,omitempty"`
	Status          Status     `db:"status" json:"status"`
	Date            time.Time  `db:"date" json:"date"`
	SubSurfaces     []string   `db:"sub_surfaces" json:"sub_surfaces"`
	FillingMaterial string     `db:"filling_material" json:"filling_material"`
	Quantity        int        `db:"quantity" json:"quantity"`
	Cost            float64    `db:"cost" json:"cost"`
	Paid            bool       `db:"paid" json:"paid"`
	PractitionerID  *uuid.UUID `db:"practitioner_id" json:"practitioner_id,omitempty"`
	Notes           string     `db:"notes" json:"notes"`
	BridgeGroup     string     `db:"bridge_group_id" json:"bridge_group_id,omitempty"`
	BridgeRole      string     `db:"bridge_role" json:"bridge_role,omitempty"`
	BridgeMain      bool       `db:"bridge_main" json:"bridge_main"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// ApplyEditable copies the editable field set from src onto r. Identity
// fields (id, patient, code, bridge membership) are never touched; this is
// the allow-list the undo engine restores through.
func (r *ProcedureRecord) ApplyEditable(src *ProcedureRecord) {
	r.Date = src.Date
	r.Notes = src.Notes
	r.Status = src.Status
	r.Quantity = src.Quantity
	r.Cost = src.Cost
	r.ToothNumber = src.ToothNumber
	r.PractitionerID = src.PractitionerID
	r.SubSurfaces = src.SubSurfaces
	r.FillingMaterial = src.FillingMaterial
	r.Paid = src.Paid
}

// IsFilling reports whether the record colors zones as a restored filling:
// it has explicit surfaces and a material.
func (r *ProcedureRecord) IsFilling() bool {
	return len(r.SubSurfaces) > 0 && r.FillingMaterial != ""
}
