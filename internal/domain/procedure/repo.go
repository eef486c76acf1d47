package procedure

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the ledger storage contract. The ledger is append-only in
// spirit: Update touches only editable fields and Delete is a hard removal
// recoverable solely through the action-log snapshot mechanism.
type Repository interface {
	// Append stores one record and assigns its id.
	Append(ctx context.Context, rec *ProcedureRecord) error
	// AppendGroup stores a composite procedure's records in one
	// transaction, so a crash cannot leave a half-written bridge.
	AppendGroup(ctx context.Context, recs []*ProcedureRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*ProcedureRecord, error)
	// ListByPatient returns the patient's full ledger in insertion order.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ProcedureRecord, error)
	// ListByPatientPage returns one page plus the total count.
	ListByPatientPage(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*ProcedureRecord, int, error)
	Update(ctx context.Context, rec *ProcedureRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByBridgeGroup finds every record of a bridge group, matching the
	// structured field and the historical notes notations.
	ListByBridgeGroup(ctx context.Context, patientID uuid.UUID, groupID string) ([]*ProcedureRecord, error)
	// DeleteGroup removes a whole bridge group in one transaction.
	DeleteGroup(ctx context.Context, patientID uuid.UUID, groupID string) error
	// ListWithLegacyBridgeNotes returns records whose notes carry bridge
	// notation but whose structured bridge fields are still empty.
	ListWithLegacyBridgeNotes(ctx context.Context) ([]*ProcedureRecord, error)
}
