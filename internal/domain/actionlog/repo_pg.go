package actionlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcalife/dental-api/internal/platform/db"
)

type actionLogRepoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Repository over the action_log and procedure_snapshots
// tables.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &actionLogRepoPG{pool: pool}
}

func (r *actionLogRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const entryCols = `id, action, entity_type, entity_id, user_id,
	organization_id, patient_id, undo_of_id, snapshot_id, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &e.UserID,
		&e.OrganizationID, &e.PatientID, &e.UndoOfID, &e.SnapshotID, &e.CreatedAt)
	return &e, err
}

func (r *actionLogRepoPG) AppendEntry(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO action_log (id, action, entity_type, entity_id, user_id,
			organization_id, patient_id, undo_of_id, snapshot_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		e.ID, e.Action, e.EntityType, e.EntityID, e.UserID,
		e.OrganizationID, e.PatientID, e.UndoOfID, e.SnapshotID).Scan(&e.CreatedAt)
}

func (r *actionLogRepoPG) LatestEntry(ctx context.Context, userID, orgID, entityType string, entityID *uuid.UUID) (*Entry, error) {
	query := `SELECT ` + entryCols + ` FROM action_log
		WHERE user_id = $1 AND organization_id = $2 AND entity_type = $3`
	args := []interface{}{userID, orgID, entityType}
	if entityID != nil {
		query += ` AND entity_id = $4`
		args = append(args, *entityID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT 1`

	e, err := scanEntry(r.conn(ctx).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest action: %w", err)
	}
	return e, nil
}

func (r *actionLogRepoPG) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM action_log WHERE id = $1`, id)
	return err
}

func (r *actionLogRepoPG) ListByUser(ctx context.Context, userID, orgID string, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM action_log WHERE user_id = $1 AND organization_id = $2`,
		userID, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+entryCols+` FROM action_log
		WHERE user_id = $1 AND organization_id = $2
		ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`,
		userID, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *actionLogRepoPG) PutSnapshot(ctx context.Context, s *Snapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO procedure_snapshots (id, entity_id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (entity_id) DO UPDATE
		SET id = EXCLUDED.id, data = EXCLUDED.data, created_at = NOW()`,
		s.ID, s.EntityID, s.Data)
	return err
}

func (r *actionLogRepoPG) GetSnapshot(ctx context.Context, entityID uuid.UUID) (*Snapshot, error) {
	var s Snapshot
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, entity_id, data, created_at FROM procedure_snapshots WHERE entity_id = $1`,
		entityID).Scan(&s.ID, &s.EntityID, &s.Data, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return &s, nil
}

func (r *actionLogRepoPG) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM procedure_snapshots WHERE id = $1`, id)
	return err
}
