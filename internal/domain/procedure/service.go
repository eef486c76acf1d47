package procedure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arcalife/dental-api/internal/platform/registry"
)

// ActionRecorder receives every mutating ledger action so it can be undone
// later. RecordUpdate and RecordDelete are called with the pre-image, before
// the mutation happens.
type ActionRecorder interface {
	RecordCreate(ctx context.Context, rec *ProcedureRecord) error
	RecordUpdate(ctx context.Context, before *ProcedureRecord) error
	RecordDelete(ctx context.Context, before *ProcedureRecord) error
}

// Service provides the procedure ledger operations and the composite
// procedure builders.
type Service struct {
	repo    Repository
	codes   registry.Registry
	actions ActionRecorder
}

// NewService creates a procedure Service. The ActionRecorder is optional;
// without one, actions are not undoable.
func NewService(repo Repository, codes registry.Registry) *Service {
	return &Service{repo: repo, codes: codes}
}

// SetActionRecorder attaches the undo engine's recorder.
func (s *Service) SetActionRecorder(rec ActionRecorder) {
	s.actions = rec
}

func (s *Service) recordCreate(ctx context.Context, recs ...*ProcedureRecord) error {
	if s.actions == nil {
		return nil
	}
	for _, rec := range recs {
		if err := s.actions.RecordCreate(ctx, rec); err != nil {
			return fmt.Errorf("record create action: %w", err)
		}
	}
	return nil
}

// CreateProcedure appends one single-code procedure record.
func (s *Service) CreateProcedure(ctx context.Context, rec *ProcedureRecord) error {
	if rec.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	code, err := s.codes.Resolve(ctx, rec.CodeID)
	if err != nil {
		return fmt.Errorf("resolve procedure code: %w", err)
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	if !rec.Status.Valid() {
		return fmt.Errorf("invalid status %q", rec.Status)
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now().UTC()
	}
	if rec.Quantity == 0 {
		rec.Quantity = 1
	}
	if code.Category == registry.CategoryFilling && rec.FillingMaterial == "" {
		rec.FillingMaterial = DefaultFillingMaterial
	}
	if err := s.repo.Append(ctx, rec); err != nil {
		return err
	}
	return s.recordCreate(ctx, rec)
}

// GetProcedure fetches one ledger record.
func (s *Service) GetProcedure(ctx context.Context, id uuid.UUID) (*ProcedureRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByPatient returns a page of the patient's ledger in insertion order.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*ProcedureRecord, int, error) {
	return s.repo.ListByPatientPage(ctx, patientID, limit, offset)
}

// UpdateProcedure applies the editable fields of upd onto the stored record,
// capturing the pre-image for undo first.
func (s *Service) UpdateProcedure(ctx context.Context, upd *ProcedureRecord) (*ProcedureRecord, error) {
	existing, err := s.repo.GetByID(ctx, upd.ID)
	if err != nil {
		return nil, fmt.Errorf("load procedure %s: %w", upd.ID, err)
	}
	if upd.Status != "" && !upd.Status.Valid() {
		return nil, fmt.Errorf("invalid status %q", upd.Status)
	}
	if s.actions != nil {
		if err := s.actions.RecordUpdate(ctx, existing); err != nil {
			return nil, fmt.Errorf("record update action: %w", err)
		}
	}
	existing.ApplyEditable(upd)
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteProcedure hard-deletes a record; the pre-image snapshot taken by the
// recorder is the only way to get it back.
func (s *Service) DeleteProcedure(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load procedure %s: %w", id, err)
	}
	if s.actions != nil {
		if err := s.actions.RecordDelete(ctx, existing); err != nil {
			return fmt.Errorf("record delete action: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}

// MigrateLegacyBridgeNotes backfills the structured bridge fields from notes
// text for rows written before the fields existed. Returns the number of
// migrated rows. Rows whose notes cannot be parsed are left untouched.
func (s *Service) MigrateLegacyBridgeNotes(ctx context.Context) (int, error) {
	rows, err := s.repo.ListWithLegacyBridgeNotes(ctx)
	if err != nil {
		return 0, err
	}
	migrated := 0
	for _, rec := range rows {
		info, ok := ParseBridgeNotes(rec.Notes)
		if !ok {
			continue
		}
		rec.BridgeGroup = info.GroupID
		rec.BridgeRole = info.Role
		rec.BridgeMain = info.Main
		if err := s.repo.Update(ctx, rec); err != nil {
			return migrated, fmt.Errorf("migrate record %s: %w", rec.ID, err)
		}
		migrated++
	}
	return migrated, nil
}

// resolveAll resolves the distinct code ids of a record set, so builders can
// branch on categories without hitting the registry per record.
func (s *Service) resolveAll(ctx context.Context, recs []*ProcedureRecord) (map[uuid.UUID]*registry.Code, error) {
	codes := make(map[uuid.UUID]*registry.Code)
	for _, rec := range recs {
		if _, ok := codes[rec.CodeID]; ok {
			continue
		}
		code, err := s.codes.Resolve(ctx, rec.CodeID)
		if err != nil {
			return nil, fmt.Errorf("resolve code %s: %w", rec.CodeID, err)
		}
		codes[rec.CodeID] = code
	}
	return codes, nil
}
