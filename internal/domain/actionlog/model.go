package actionlog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arcalife/dental-api/internal/domain/procedure"
)

// Action is the kind of mutation an Entry records.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionUndo   Action = "undo"
)

// EntityDentalProcedure is the only entity type the undo engine handles.
const EntityDentalProcedure = "DentalProcedure"

// Entry is one append-only action-log row, strictly ordered by creation
// time. Undo entries reference the entry and snapshot they consumed.
type Entry struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Action         Action     `db:"action" json:"action"`
	EntityType     string     `db:"entity_type" json:"entity_type"`
	EntityID       uuid.UUID  `db:"entity_id" json:"entity_id"`
	UserID         string     `db:"user_id" json:"user_id"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	UndoOfID       *uuid.UUID `db:"undo_of_id" json:"undo_of_id,omitempty"`
	SnapshotID     *uuid.UUID `db:"snapshot_id" json:"snapshot_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Snapshot is the pre-image of a procedure record, keyed by the record's id
// so concurrent edits of different records cannot clobber each other's
// backup. Writing a new snapshot for the same record replaces the old one;
// a successful undo consumes and deletes it.
type Snapshot struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	EntityID  uuid.UUID       `db:"entity_id" json:"entity_id"`
	Data      json.RawMessage `db:"data" json:"data"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// NewSnapshot captures the full field set of a procedure record.
func NewSnapshot(rec *procedure.ProcedureRecord) (*Snapshot, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return &Snapshot{EntityID: rec.ID, Data: data}, nil
}

// Record deserializes the captured pre-image.
func (s *Snapshot) Record() (*procedure.ProcedureRecord, error) {
	var rec procedure.ProcedureRecord
	if err := json.Unmarshal(s.Data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", s.ID, err)
	}
	return &rec, nil
}
