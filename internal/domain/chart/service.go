package chart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/arcalife/dental-api/internal/domain/procedure"
	"github.com/arcalife/dental-api/internal/platform/registry"
)

// Service resolves a patient's ledger against the code registry and replays
// it into tooth state.
type Service struct {
	repo  procedure.Repository
	codes registry.Registry
}

// NewService creates a chart Service.
func NewService(repo procedure.Repository, codes registry.Registry) *Service {
	return &Service{repo: repo, codes: codes}
}

// PatientChart reconstructs the current chart for a patient. The result is
// derived on every call; deleting or undoing ledger records is reflected on
// the next read with no cache to invalidate.
func (s *Service) PatientChart(ctx context.Context, patientID uuid.UUID) (map[int]*ToothState, error) {
	ledger, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list patient ledger: %w", err)
	}
	records, err := s.resolve(ctx, ledger)
	if err != nil {
		return nil, err
	}
	return Reconstruct(records), nil
}

func (s *Service) resolve(ctx context.Context, ledger []*procedure.ProcedureRecord) ([]Record, error) {
	codes := make(map[uuid.UUID]*registry.Code)
	records := make([]Record, 0, len(ledger))
	for _, rec := range ledger {
		code, ok := codes[rec.CodeID]
		if !ok {
			var err error
			code, err = s.codes.Resolve(ctx, rec.CodeID)
			if err != nil {
				return nil, fmt.Errorf("resolve code %s: %w", rec.CodeID, err)
			}
			codes[rec.CodeID] = code
		}
		tooth := 0
		if rec.ToothNumber != nil {
			tooth = *rec.ToothNumber
		}
		records = append(records, Record{
			Tooth:        tooth,
			Code:         code.Code,
			Category:     code.Category,
			Status:       rec.Status,
			SubSurfaces:  rec.SubSurfaces,
			Material:     rec.FillingMaterial,
			CodeMaterial: code.Material,
			Notes:        rec.Notes,
			BridgeGroup:  rec.BridgeGroup,
			BridgeRole:   rec.BridgeRole,
			BridgeMain:   rec.BridgeMain,
		})
	}
	return records, nil
}
