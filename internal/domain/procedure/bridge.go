package procedure

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/arcalife/dental-api/internal/platform/registry"
)

// Bridge complexity tiers, derived from cardinality.
const (
	BridgeSimple   = "simple"
	BridgeModerate = "moderate"
	BridgeComplex  = "complex"
)

// BridgeSpec describes one multi-tooth prosthetic bridge.
type BridgeSpec struct {
	PatientID uuid.UUID      `json:"patient_id"`
	Roles     map[int]string `json:"roles"` // tooth number -> abutment|pontic
	Material  string         `json:"material"`
	GroupID   string         `json:"group_id"`
	Adjuncts  []string       `json:"adjuncts,omitempty"` // auxiliary codes noted on the main record
}

// bridgeComplexity classifies a bridge from its cardinality.
func bridgeComplexity(units, abutments, pontics int) string {
	switch {
	case units >= 5 || abutments >= 4:
		return BridgeComplex
	case units == 4 || pontics >= 2:
		return BridgeModerate
	default:
		return BridgeSimple
	}
}

func bridgeCodes(material string) (crown, pontic string) {
	if material == "zirconia" {
		return "V31", "H12"
	}
	return "V30", "H11"
}

// CreateBridge appends the record set for one bridge. Teeth that already
// carry a crown or pontic overlay for this patient are skipped, so retrying
// a fully-succeeded request writes nothing (idempotent by tooth, not by
// call). If every target tooth is already covered the builder returns an
// empty result and no error.
func (s *Service) CreateBridge(ctx context.Context, spec BridgeSpec) ([]*ProcedureRecord, error) {
	if spec.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if len(spec.Roles) == 0 {
		return nil, fmt.Errorf("at least one tooth role is required")
	}
	if spec.GroupID == "" {
		return nil, fmt.Errorf("group_id is required")
	}

	var abutments, pontics []int
	for tooth, role := range spec.Roles {
		switch role {
		case RoleAbutment:
			abutments = append(abutments, tooth)
		case RolePontic:
			pontics = append(pontics, tooth)
		default:
			return nil, fmt.Errorf("tooth %d: unknown bridge role %q", tooth, role)
		}
	}
	sort.Ints(abutments)
	sort.Ints(pontics)

	units := len(abutments) + len(pontics)
	complexity := bridgeComplexity(units, len(abutments), len(pontics))

	crownStr, ponticStr := bridgeCodes(spec.Material)
	crownCode, err := s.codes.ResolveCode(ctx, crownStr)
	if err != nil {
		return nil, fmt.Errorf("resolve crown code: %w", err)
	}
	ponticCode, err := s.codes.ResolveCode(ctx, ponticStr)
	if err != nil {
		return nil, fmt.Errorf("resolve pontic code: %w", err)
	}

	covered, err := s.overlaidTeeth(ctx, spec.PatientID)
	if err != nil {
		return nil, err
	}
	abutments = filterTeeth(abutments, covered)
	pontics = filterTeeth(pontics, covered)
	if len(abutments) == 0 && len(pontics) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	var recs []*ProcedureRecord
	for i, tooth := range abutments {
		toothCopy := tooth
		rec := &ProcedureRecord{
			PatientID:   spec.PatientID,
			CodeID:      crownCode.ID,
			ToothNumber: &toothCopy,
			Status:      StatusPending,
			Date:        now,
			Quantity:    1,
			BridgeGroup: spec.GroupID,
			BridgeRole:  RoleAbutment,
		}
		if i == 0 {
			rec.BridgeMain = true
			rec.Notes = buildBridgeNotes(spec.GroupID, RoleAbutment, true, "", complexity, units, spec.Adjuncts)
		} else {
			position := "middle"
			if i == len(abutments)-1 {
				position = "last"
			}
			rec.Notes = buildBridgeNotes(spec.GroupID, RoleAbutment, false, position, "", 0, nil)
		}
		recs = append(recs, rec)
	}
	for _, tooth := range pontics {
		toothCopy := tooth
		recs = append(recs, &ProcedureRecord{
			PatientID:   spec.PatientID,
			CodeID:      ponticCode.ID,
			ToothNumber: &toothCopy,
			Status:      StatusPending,
			Date:        now,
			Quantity:    1,
			BridgeGroup: spec.GroupID,
			BridgeRole:  RolePontic,
			Notes:       buildBridgeNotes(spec.GroupID, RolePontic, false, "", "", 0, nil),
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

// overlaidTeeth returns the patient's teeth that already carry a crown or
// pontic record.
func (s *Service) overlaidTeeth(ctx context.Context, patientID uuid.UUID) (map[int]bool, error) {
	existing, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list patient ledger: %w", err)
	}
	codes, err := s.resolveAll(ctx, existing)
	if err != nil {
		return nil, err
	}
	covered := make(map[int]bool)
	for _, rec := range existing {
		if rec.ToothNumber == nil {
			continue
		}
		cat := codes[rec.CodeID].Category
		if cat == registry.CategoryCrown || cat == registry.CategoryPontic {
			covered[*rec.ToothNumber] = true
		}
	}
	return covered, nil
}

func filterTeeth(teeth []int, covered map[int]bool) []int {
	var kept []int
	for _, t := range teeth {
		if !covered[t] {
			kept = append(kept, t)
		}
	}
	return kept
}
