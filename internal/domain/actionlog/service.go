package actionlog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arcalife/dental-api/internal/domain/procedure"
	"github.com/arcalife/dental-api/internal/platform/auth"
	"github.com/arcalife/dental-api/internal/platform/chartcache"
)

// Service records mutating ledger actions and reverses the most recent one.
// It implements the procedure package's ActionRecorder port.
type Service struct {
	repo   Repository
	procs  procedure.Repository
	cache  chartcache.Cache
	logger zerolog.Logger
}

// NewService creates an action-log Service. A nil cache disables the
// best-effort chart-cache push on restore.
func NewService(repo Repository, procs procedure.Repository, cache chartcache.Cache, logger zerolog.Logger) *Service {
	if cache == nil {
		cache = chartcache.Noop{}
	}
	return &Service{repo: repo, procs: procs, cache: cache, logger: logger}
}

func (s *Service) newEntry(ctx context.Context, action Action, rec *procedure.ProcedureRecord) *Entry {
	return &Entry{
		Action:         action,
		EntityType:     EntityDentalProcedure,
		EntityID:       rec.ID,
		UserID:         auth.UserIDFromContext(ctx),
		OrganizationID: auth.OrgIDFromContext(ctx),
		PatientID:      rec.PatientID,
	}
}

// RecordCreate logs a freshly appended record.
func (s *Service) RecordCreate(ctx context.Context, rec *procedure.ProcedureRecord) error {
	return s.repo.AppendEntry(ctx, s.newEntry(ctx, ActionCreate, rec))
}

// RecordUpdate snapshots the pre-image and logs the edit.
func (s *Service) RecordUpdate(ctx context.Context, before *procedure.ProcedureRecord) error {
	return s.recordWithSnapshot(ctx, ActionUpdate, before)
}

// RecordDelete snapshots the record about to be removed and logs the delete.
func (s *Service) RecordDelete(ctx context.Context, before *procedure.ProcedureRecord) error {
	return s.recordWithSnapshot(ctx, ActionDelete, before)
}

func (s *Service) recordWithSnapshot(ctx context.Context, action Action, before *procedure.ProcedureRecord) error {
	snap, err := NewSnapshot(before)
	if err != nil {
		return err
	}
	if err := s.repo.PutSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	entry := s.newEntry(ctx, action, before)
	entry.SnapshotID = &snap.ID
	return s.repo.AppendEntry(ctx, entry)
}

// ListActions returns the caller's action history, newest first.
func (s *Service) ListActions(ctx context.Context, limit, offset int) ([]*Entry, int, error) {
	return s.repo.ListByUser(ctx, auth.UserIDFromContext(ctx), auth.OrgIDFromContext(ctx), limit, offset)
}

// Undo reverses the caller's most recent ledger action, optionally narrowed
// to one record. Exactly one level of undo exists: the consumed log entry is
// deleted and replaced by an entry recording the undo itself, which cannot
// be undone in turn.
func (s *Service) Undo(ctx context.Context, entityID *uuid.UUID) (*Entry, error) {
	userID := auth.UserIDFromContext(ctx)
	orgID := auth.OrgIDFromContext(ctx)

	entry, err := s.repo.LatestEntry(ctx, userID, orgID, EntityDentalProcedure, entityID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNoActionToUndo
	}

	var consumedSnapshot *uuid.UUID
	switch entry.Action {
	case ActionCreate:
		if err := s.undoCreate(ctx, entry); err != nil {
			return nil, err
		}
	case ActionDelete:
		snap, err := s.undoDelete(ctx, entry)
		if err != nil {
			return nil, err
		}
		consumedSnapshot = &snap.ID
	case ActionUpdate:
		snap, err := s.undoUpdate(ctx, entry)
		if err != nil {
			return nil, err
		}
		consumedSnapshot = &snap.ID
	default:
		return nil, ErrUnsupportedAction
	}

	if err := s.repo.DeleteEntry(ctx, entry.ID); err != nil {
		return nil, fmt.Errorf("delete consumed action: %w", err)
	}

	undone := &Entry{
		Action:         ActionUndo,
		EntityType:     EntityDentalProcedure,
		EntityID:       entry.EntityID,
		UserID:         userID,
		OrganizationID: orgID,
		PatientID:      entry.PatientID,
		UndoOfID:       &entry.ID,
		SnapshotID:     consumedSnapshot,
	}
	if err := s.repo.AppendEntry(ctx, undone); err != nil {
		return nil, fmt.Errorf("log undo: %w", err)
	}
	return undone, nil
}

// undoCreate removes the created record. A record belonging to a bridge
// takes its whole group with it, so an undone bridge never survives half
// deleted.
func (s *Service) undoCreate(ctx context.Context, entry *Entry) error {
	rec, err := s.procs.GetByID(ctx, entry.EntityID)
	if err != nil {
		return ErrProcedureNotFound
	}
	if group := procedure.BridgeGroupOf(rec); group != "" {
		return s.procs.DeleteGroup(ctx, rec.PatientID, group)
	}
	return s.procs.Delete(ctx, rec.ID)
}

// undoDelete re-creates the record from its snapshot's full field set.
func (s *Service) undoDelete(ctx context.Context, entry *Entry) (*Snapshot, error) {
	snap, err := s.repo.GetSnapshot(ctx, entry.EntityID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrNoBackupForDelete
	}
	restored, err := snap.Record()
	if err != nil {
		return nil, err
	}
	if err := s.procs.Append(ctx, restored); err != nil {
		return nil, fmt.Errorf("restore procedure: %w", err)
	}
	s.pushFilling(ctx, restored)
	if err := s.repo.DeleteSnapshot(ctx, snap.ID); err != nil {
		return nil, fmt.Errorf("discard snapshot: %w", err)
	}
	return snap, nil
}

// undoUpdate copies the allow-listed editable fields of the snapshot back
// onto the live record; identity fields are never overwritten.
func (s *Service) undoUpdate(ctx context.Context, entry *Entry) (*Snapshot, error) {
	snap, err := s.repo.GetSnapshot(ctx, entry.EntityID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrNoBackupForEdit
	}
	before, err := snap.Record()
	if err != nil {
		return nil, err
	}
	live, err := s.procs.GetByID(ctx, entry.EntityID)
	if err != nil {
		return nil, ErrProcedureNotFound
	}
	live.ApplyEditable(before)
	if err := s.procs.Update(ctx, live); err != nil {
		return nil, fmt.Errorf("revert procedure: %w", err)
	}
	s.pushFilling(ctx, live)
	if err := s.repo.DeleteSnapshot(ctx, snap.ID); err != nil {
		return nil, fmt.Errorf("discard snapshot: %w", err)
	}
	return snap, nil
}

// pushFilling updates the external chart cache with restored filling zones.
// Cache failures must never abort an undo.
func (s *Service) pushFilling(ctx context.Context, rec *procedure.ProcedureRecord) {
	if !rec.IsFilling() || rec.ToothNumber == nil {
		return
	}
	if err := s.cache.PutFilling(ctx, rec.PatientID, *rec.ToothNumber, rec.SubSurfaces, rec.FillingMaterial); err != nil {
		s.logger.Warn().Err(err).
			Str("patient_id", rec.PatientID.String()).
			Int("tooth", *rec.ToothNumber).
			Msg("chart cache update failed")
	}
}
