package actionlog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arcalife/dental-api/internal/domain/procedure"
	"github.com/arcalife/dental-api/internal/platform/auth"
)

type mockLogRepo struct {
	entries   []*Entry
	snapshots map[uuid.UUID]*Snapshot // keyed by entity id
}

func newMockLogRepo() *mockLogRepo {
	return &mockLogRepo{snapshots: make(map[uuid.UUID]*Snapshot)}
}

func (m *mockLogRepo) AppendEntry(_ context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.entries = append(m.entries, e)
	return nil
}
func (m *mockLogRepo) LatestEntry(_ context.Context, userID, orgID, entityType string, entityID *uuid.UUID) (*Entry, error) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.UserID != userID || e.OrganizationID != orgID || e.EntityType != entityType {
			continue
		}
		if entityID != nil && e.EntityID != *entityID {
			continue
		}
		return e, nil
	}
	return nil, nil
}
func (m *mockLogRepo) DeleteEntry(_ context.Context, id uuid.UUID) error {
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("not found")
}
func (m *mockLogRepo) ListByUser(_ context.Context, userID, orgID string, limit, offset int) ([]*Entry, int, error) {
	var r []*Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.UserID == userID && e.OrganizationID == orgID {
			r = append(r, e)
		}
	}
	return r, len(r), nil
}
func (m *mockLogRepo) PutSnapshot(_ context.Context, s *Snapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.snapshots[s.EntityID] = s
	return nil
}
func (m *mockLogRepo) GetSnapshot(_ context.Context, entityID uuid.UUID) (*Snapshot, error) {
	return m.snapshots[entityID], nil
}
func (m *mockLogRepo) DeleteSnapshot(_ context.Context, id uuid.UUID) error {
	for entityID, s := range m.snapshots {
		if s.ID == id {
			delete(m.snapshots, entityID)
			return nil
		}
	}
	return nil
}

type mockProcRepo struct {
	records []*procedure.ProcedureRecord
}

func (m *mockProcRepo) Append(_ context.Context, rec *procedure.ProcedureRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	m.records = append(m.records, rec)
	return nil
}
func (m *mockProcRepo) AppendGroup(ctx context.Context, recs []*procedure.ProcedureRecord) error {
	for _, rec := range recs {
		if err := m.Append(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
func (m *mockProcRepo) GetByID(_ context.Context, id uuid.UUID) (*procedure.ProcedureRecord, error) {
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockProcRepo) ListByPatient(_ context.Context, pid uuid.UUID) ([]*procedure.ProcedureRecord, error) {
	var r []*procedure.ProcedureRecord
	for _, rec := range m.records {
		if rec.PatientID == pid {
			r = append(r, rec)
		}
	}
	return r, nil
}
func (m *mockProcRepo) ListByPatientPage(ctx context.Context, pid uuid.UUID, limit, offset int) ([]*procedure.ProcedureRecord, int, error) {
	all, _ := m.ListByPatient(ctx, pid)
	return all, len(all), nil
}
func (m *mockProcRepo) Update(_ context.Context, rec *procedure.ProcedureRecord) error {
	for i, r := range m.records {
		if r.ID == rec.ID {
			m.records[i] = rec
			return nil
		}
	}
	return fmt.Errorf("not found")
}
func (m *mockProcRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("not found")
}
func (m *mockProcRepo) ListByBridgeGroup(_ context.Context, pid uuid.UUID, groupID string) ([]*procedure.ProcedureRecord, error) {
	var r []*procedure.ProcedureRecord
	for _, rec := range m.records {
		if rec.PatientID == pid && procedure.BridgeGroupOf(rec) == groupID {
			r = append(r, rec)
		}
	}
	return r, nil
}
func (m *mockProcRepo) DeleteGroup(_ context.Context, pid uuid.UUID, groupID string) error {
	var kept []*procedure.ProcedureRecord
	for _, rec := range m.records {
		if rec.PatientID == pid && procedure.BridgeGroupOf(rec) == groupID {
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return nil
}
func (m *mockProcRepo) ListWithLegacyBridgeNotes(_ context.Context) ([]*procedure.ProcedureRecord, error) {
	return nil, nil
}

type cachePut struct {
	patientID uuid.UUID
	tooth     int
	zones     []string
	material  string
}

type mockCache struct {
	puts []cachePut
	fail bool
}

func (m *mockCache) PutFilling(_ context.Context, patientID uuid.UUID, tooth int, zones []string, material string) error {
	if m.fail {
		return fmt.Errorf("cache down")
	}
	m.puts = append(m.puts, cachePut{patientID, tooth, zones, material})
	return nil
}

func authedContext() context.Context {
	ctx := context.WithValue(context.Background(), auth.UserIDKey, "dr-novak")
	return context.WithValue(ctx, auth.OrgIDKey, "clinic-1")
}

func newUndoFixture() (*Service, *mockLogRepo, *mockProcRepo, *mockCache) {
	logRepo := newMockLogRepo()
	procs := &mockProcRepo{}
	cache := &mockCache{}
	return NewService(logRepo, procs, cache, zerolog.Nop()), logRepo, procs, cache
}

func TestUndo_NothingToUndo(t *testing.T) {
	svc, _, _, _ := newUndoFixture()
	if _, err := svc.Undo(authedContext(), nil); !errors.Is(err, ErrNoActionToUndo) {
		t.Fatalf("expected ErrNoActionToUndo, got %v", err)
	}
}

func TestUndo_Create_RemovesRecord(t *testing.T) {
	svc, logRepo, procs, _ := newUndoFixture()
	ctx := authedContext()

	rec := &procedure.ProcedureRecord{PatientID: uuid.New()}
	procs.Append(ctx, rec)
	if err := svc.RecordCreate(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	undone, err := svc.Undo(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(procs.records) != 0 {
		t.Error("created record must be removed")
	}
	if undone.Action != ActionUndo || undone.UndoOfID == nil {
		t.Errorf("undo entry malformed: %+v", undone)
	}
	// The consumed create entry is gone; only the undo entry remains.
	if len(logRepo.entries) != 1 || logRepo.entries[0].Action != ActionUndo {
		t.Errorf("log must hold only the undo entry, got %d entries", len(logRepo.entries))
	}
}

func TestUndo_Create_BridgeMemberRemovesWholeGroup(t *testing.T) {
	svc, _, procs, _ := newUndoFixture()
	ctx := authedContext()
	pid := uuid.New()

	t14, t15, t16, t21 := 14, 15, 16, 21
	members := []*procedure.ProcedureRecord{
		{PatientID: pid, ToothNumber: &t14, BridgeGroup: "g1", BridgeRole: procedure.RoleAbutment, BridgeMain: true},
		{PatientID: pid, ToothNumber: &t15, BridgeGroup: "g1", BridgeRole: procedure.RolePontic},
		{PatientID: pid, ToothNumber: &t16, BridgeGroup: "g1", BridgeRole: procedure.RoleAbutment},
	}
	unrelated := &procedure.ProcedureRecord{PatientID: pid, ToothNumber: &t21}
	procs.AppendGroup(ctx, members)
	procs.Append(ctx, unrelated)
	for _, rec := range members {
		if err := svc.RecordCreate(ctx, rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if _, err := svc.Undo(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(procs.records) != 1 || procs.records[0].ID != unrelated.ID {
		t.Errorf("expected only the unrelated record to survive, got %d records", len(procs.records))
	}
}

func TestUndo_Create_LegacyNotesBridgeRemovesGroup(t *testing.T) {
	svc, _, procs, _ := newUndoFixture()
	ctx := authedContext()
	pid := uuid.New()

	t14, t15 := 14, 15
	a := &procedure.ProcedureRecord{PatientID: pid, ToothNumber: &t14, Notes: "MAIN: bridge-old1 role=abutment"}
	b := &procedure.ProcedureRecord{PatientID: pid, ToothNumber: &t15, Notes: "bridge-old1 role=pontic"}
	procs.Append(ctx, a)
	procs.Append(ctx, b)
	svc.RecordCreate(ctx, b)

	if _, err := svc.Undo(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(procs.records) != 0 {
		t.Error("legacy-notes bridge must be removed as a whole")
	}
}

func TestUndo_Create_MissingProcedure(t *testing.T) {
	svc, _, _, _ := newUndoFixture()
	ctx := authedContext()

	if err := svc.RecordCreate(ctx, &procedure.ProcedureRecord{ID: uuid.New(), PatientID: uuid.New()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Undo(ctx, nil); !errors.Is(err, ErrProcedureNotFound) {
		t.Fatalf("expected ErrProcedureNotFound, got %v", err)
	}
}

func TestUndo_Delete_RestoresFromSnapshot(t *testing.T) {
	svc, logRepo, procs, cache := newUndoFixture()
	ctx := authedContext()
	pid := uuid.New()

	tooth := 16
	rec := &procedure.ProcedureRecord{
		ID: uuid.New(), PatientID: pid, ToothNumber: &tooth,
		SubSurfaces: []string{"occlusal-1"}, FillingMaterial: "composite",
		Notes: "MO filling", Cost: 120,
	}
	procs.Append(ctx, rec)

	// Service flow: snapshot the pre-image, then delete it.
	if err := svc.RecordDelete(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	procs.Delete(ctx, rec.ID)

	undone, err := svc.Undo(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored, err := procs.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatal("record must be restored under its original id")
	}
	if restored.Notes != "MO filling" || restored.Cost != 120 || restored.FillingMaterial != "composite" {
		t.Errorf("restored record lost fields: %+v", restored)
	}

	// A restored filling is pushed to the chart cache.
	if len(cache.puts) != 1 || cache.puts[0].tooth != 16 || cache.puts[0].material != "composite" {
		t.Errorf("expected one cache push for the filling, got %+v", cache.puts)
	}

	// The snapshot was consumed.
	if len(logRepo.snapshots) != 0 {
		t.Error("snapshot must be deleted after a successful undo")
	}
	if undone.SnapshotID == nil {
		t.Error("undo entry must reference the consumed snapshot")
	}
}

func TestUndo_Delete_CacheFailureDoesNotAbort(t *testing.T) {
	svc, _, procs, cache := newUndoFixture()
	cache.fail = true
	ctx := authedContext()

	tooth := 11
	rec := &procedure.ProcedureRecord{
		ID: uuid.New(), PatientID: uuid.New(), ToothNumber: &tooth,
		SubSurfaces: []string{"buccal"}, FillingMaterial: "composite",
	}
	procs.Append(ctx, rec)
	svc.RecordDelete(ctx, rec)
	procs.Delete(ctx, rec.ID)

	if _, err := svc.Undo(ctx, nil); err != nil {
		t.Fatalf("cache failure must not fail the undo, got %v", err)
	}
	if _, err := procs.GetByID(ctx, rec.ID); err != nil {
		t.Error("record must still be restored")
	}
}

func TestUndo_Delete_NoSnapshot(t *testing.T) {
	svc, logRepo, _, _ := newUndoFixture()
	ctx := authedContext()

	logRepo.AppendEntry(ctx, &Entry{
		Action: ActionDelete, EntityType: EntityDentalProcedure,
		EntityID: uuid.New(), UserID: "dr-novak", OrganizationID: "clinic-1",
	})

	if _, err := svc.Undo(ctx, nil); !errors.Is(err, ErrNoBackupForDelete) {
		t.Fatalf("expected ErrNoBackupForDelete, got %v", err)
	}
}

func TestUndo_Update_RevertsEditableFields(t *testing.T) {
	svc, _, procs, _ := newUndoFixture()
	ctx := authedContext()

	rec := &procedure.ProcedureRecord{
		ID: uuid.New(), PatientID: uuid.New(),
		Notes: "before", Cost: 100, Status: procedure.StatusPending,
	}
	procs.Append(ctx, rec)

	// Snapshot the pre-image, then apply the edit.
	before := *rec
	if err := svc.RecordUpdate(ctx, &before); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec.Notes = "after"
	rec.Cost = 250
	rec.Status = procedure.StatusCompleted

	if _, err := svc.Undo(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	live, _ := procs.GetByID(ctx, rec.ID)
	if live.Notes != "before" || live.Cost != 100 || live.Status != procedure.StatusPending {
		t.Errorf("editable fields not reverted: %+v", live)
	}
	if live.ID != rec.ID || live.PatientID != rec.PatientID {
		t.Error("identity fields must be preserved")
	}
}

func TestUndo_Update_NoSnapshot(t *testing.T) {
	svc, logRepo, procs, _ := newUndoFixture()
	ctx := authedContext()

	rec := &procedure.ProcedureRecord{ID: uuid.New(), PatientID: uuid.New()}
	procs.Append(ctx, rec)
	logRepo.AppendEntry(ctx, &Entry{
		Action: ActionUpdate, EntityType: EntityDentalProcedure,
		EntityID: rec.ID, UserID: "dr-novak", OrganizationID: "clinic-1",
	})

	if _, err := svc.Undo(ctx, nil); !errors.Is(err, ErrNoBackupForEdit) {
		t.Fatalf("expected ErrNoBackupForEdit, got %v", err)
	}
}

func TestUndo_ConsecutiveUndoUnsupported(t *testing.T) {
	svc, _, procs, _ := newUndoFixture()
	ctx := authedContext()

	rec := &procedure.ProcedureRecord{PatientID: uuid.New()}
	procs.Append(ctx, rec)
	svc.RecordCreate(ctx, rec)

	if _, err := svc.Undo(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The latest entry is now the undo itself; one level only.
	if _, err := svc.Undo(ctx, nil); !errors.Is(err, ErrUnsupportedAction) {
		t.Fatalf("expected ErrUnsupportedAction, got %v", err)
	}
}

func TestUndo_ScopedToEntity(t *testing.T) {
	svc, _, procs, _ := newUndoFixture()
	ctx := authedContext()
	pid := uuid.New()

	older := &procedure.ProcedureRecord{PatientID: pid}
	newer := &procedure.ProcedureRecord{PatientID: pid}
	procs.Append(ctx, older)
	procs.Append(ctx, newer)
	svc.RecordCreate(ctx, older)
	svc.RecordCreate(ctx, newer)

	// Narrowing to the older entity undoes it even though a newer action exists.
	undone, err := svc.Undo(ctx, &older.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if undone.EntityID != older.ID {
		t.Errorf("expected undo of %s, got %s", older.ID, undone.EntityID)
	}
	if _, err := procs.GetByID(ctx, newer.ID); err != nil {
		t.Error("newer record must be untouched")
	}
	if _, err := procs.GetByID(ctx, older.ID); err == nil {
		t.Error("older record must be removed")
	}
}

func TestUndo_ScopedToOtherUser(t *testing.T) {
	svc, _, procs, _ := newUndoFixture()
	ctx := authedContext()

	rec := &procedure.ProcedureRecord{PatientID: uuid.New()}
	procs.Append(ctx, rec)
	svc.RecordCreate(ctx, rec)

	otherCtx := context.WithValue(context.Background(), auth.UserIDKey, "dr-other")
	otherCtx = context.WithValue(otherCtx, auth.OrgIDKey, "clinic-1")
	if _, err := svc.Undo(otherCtx, nil); !errors.Is(err, ErrNoActionToUndo) {
		t.Fatalf("another user must not see the action, got %v", err)
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	tooth := 36
	rec := &procedure.ProcedureRecord{
		ID: uuid.New(), PatientID: uuid.New(), ToothNumber: &tooth,
		SubSurfaces: []string{"occlusal-1", "mesial"}, FillingMaterial: "composite",
		Status: procedure.StatusCompleted, Notes: "deep caries", Cost: 95.5, Paid: true,
	}

	snap, err := NewSnapshot(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.EntityID != rec.ID {
		t.Error("snapshot must be keyed by the record id")
	}

	restored, err := snap.Record()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored.ID != rec.ID || restored.Notes != rec.Notes || restored.Cost != rec.Cost ||
		!restored.Paid || *restored.ToothNumber != tooth || len(restored.SubSurfaces) != 2 {
		t.Errorf("round trip lost fields: %+v", restored)
	}
}

func TestRecordUpdate_SnapshotReplacedPerEntity(t *testing.T) {
	svc, logRepo, procs, _ := newUndoFixture()
	ctx := authedContext()

	rec := &procedure.ProcedureRecord{ID: uuid.New(), PatientID: uuid.New(), Notes: "v1"}
	procs.Append(ctx, rec)

	first := *rec
	svc.RecordUpdate(ctx, &first)
	rec.Notes = "v2"
	second := *rec
	svc.RecordUpdate(ctx, &second)

	if len(logRepo.snapshots) != 1 {
		t.Fatalf("expected one snapshot per entity, got %d", len(logRepo.snapshots))
	}
	snap := logRepo.snapshots[rec.ID]
	restored, _ := snap.Record()
	if restored.Notes != "v2" {
		t.Errorf("latest pre-image must win, got %q", restored.Notes)
	}
}
