package procedure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arcalife/dental-api/internal/domain/anatomy"
)

// sealingRedoWindow is how close a prior first-tooth sealing record must be
// for a new batch to count as a user-initiated redo of the same run. The
// window is a heuristic; under clock skew it can misclassify, which costs at
// worst one first-tooth billing code.
const sealingRedoWindow = 5 * time.Second

// CreateSealing appends one fissure-sealing record per tooth. The first
// tooth of a batch gets the first-tooth code (S71) only when the patient has
// no S71 from today and the batch is not a redo inside the redo window;
// otherwise every tooth, the first included, gets the additional-tooth code
// (S72) so duplicate "first" records cannot accumulate. All records of a
// batch share one timestamp.
func (s *Service) CreateSealing(ctx context.Context, patientID uuid.UUID, teeth []int) ([]*ProcedureRecord, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if len(teeth) == 0 {
		return nil, nil
	}

	firstCode, err := s.codes.ResolveCode(ctx, "S71")
	if err != nil {
		return nil, fmt.Errorf("resolve sealing code: %w", err)
	}
	nextCode, err := s.codes.ResolveCode(ctx, "S72")
	if err != nil {
		return nil, fmt.Errorf("resolve sealing code: %w", err)
	}

	existing, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list patient ledger: %w", err)
	}

	now := time.Now().UTC()
	useFirst := true
	for _, rec := range existing {
		if rec.CodeID != firstCode.ID {
			continue
		}
		if sameDay(rec.Date, now) {
			useFirst = false
			break
		}
		if delta := now.Sub(rec.Date); delta >= 0 && delta <= sealingRedoWindow {
			useFirst = false
			break
		}
	}

	recs := make([]*ProcedureRecord, 0, len(teeth))
	for i, tooth := range teeth {
		code := nextCode
		if i == 0 && useFirst {
			code = firstCode
		}
		toothCopy := tooth
		recs = append(recs, &ProcedureRecord{
			PatientID:   patientID,
			CodeID:      code.ID,
			ToothNumber: &toothCopy,
			Status:      StatusPending,
			Date:        now,
			SubSurfaces: anatomy.OcclusalZones(anatomy.Classify(tooth)),
			Quantity:    1,
		})
	}

	if err := s.repo.AppendGroup(ctx, recs); err != nil {
		return nil, err
	}
	if err := s.recordCreate(ctx, recs...); err != nil {
		return nil, err
	}
	return recs, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
