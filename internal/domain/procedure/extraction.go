package procedure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arcalife/dental-api/internal/domain/anatomy"
)

// ExtractionKind selects the canonical extraction code.
type ExtractionKind string

const (
	ExtractionSimple      ExtractionKind = "simple"
	ExtractionSurgical    ExtractionKind = "surgical"
	ExtractionHemisection ExtractionKind = "hemisection"
	ExtractionImpacted    ExtractionKind = "impacted"
)

func (k ExtractionKind) code() (string, error) {
	switch k {
	case ExtractionSimple:
		return "E61", nil
	case ExtractionSurgical:
		return "E62", nil
	case ExtractionHemisection:
		return "E63", nil
	case ExtractionImpacted:
		return "E64", nil
	default:
		return "", fmt.Errorf("unknown extraction kind %q", k)
	}
}

// ExtractionOptions selects the auxiliary records appended alongside the
// extraction itself.
type ExtractionOptions struct {
	Anesthesia     bool `json:"anesthesia"`
	Suturing       bool `json:"suturing"`
	SutureMaterial bool `json:"suture_material"`
	Isolation      bool `json:"isolation"`
}

// CreateExtraction appends an extraction covering every zone of the tooth
// (the tooth's identity changes irreversibly, so the whole chart surface is
// involved) plus one independent zero-surface record per selected auxiliary.
// The records carry no explicit grouping; callers must not rely on one.
func (s *Service) CreateExtraction(ctx context.Context, patientID uuid.UUID, tooth int, kind ExtractionKind, opts ExtractionOptions) ([]*ProcedureRecord, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	codeStr, err := kind.code()
	if err != nil {
		return nil, err
	}
	code, err := s.codes.ResolveCode(ctx, codeStr)
	if err != nil {
		return nil, fmt.Errorf("resolve extraction code: %w", err)
	}

	now := time.Now().UTC()
	toothCopy := tooth
	recs := []*ProcedureRecord{{
		PatientID:   patientID,
		CodeID:      code.ID,
		ToothNumber: &toothCopy,
		Status:      StatusPending,
		Date:        now,
		SubSurfaces: anatomy.Zones(anatomy.Classify(tooth)),
		Quantity:    1,
	}}

	aux := []struct {
		selected bool
		code     string
	}{
		{opts.Anesthesia, "A41"},
		{opts.Suturing, "A42"},
		{opts.SutureMaterial, "A43"},
		{opts.Isolation, "A44"},
	}
	for _, a := range aux {
		if !a.selected {
			continue
		}
		auxCode, err := s.codes.ResolveCode(ctx, a.code)
		if err != nil {
			return nil, fmt.Errorf("resolve auxiliary code %s: %w", a.code, err)
		}
		recs = append(recs, &ProcedureRecord{
			PatientID:   patientID,
			CodeID:      auxCode.ID,
			ToothNumber: &toothCopy,
			Status:      StatusPending,
			Date:        now,
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
