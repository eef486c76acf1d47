package procedure

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcalife/dental-api/internal/platform/db"
)

type procedureRepoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Repository backed by the dental_procedures table.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &procedureRepoPG{pool: pool}
}

func (r *procedureRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const recCols = `id, patient_id, code_id, tooth_number, status, date,
	sub_surfaces, filling_material, quantity, cost, paid, practitioner_id,
	notes, COALESCE(bridge_group_id, ''), COALESCE(bridge_role, ''),
	bridge_main, created_at`

func scanRec(row pgx.Row) (*ProcedureRecord, error) {
	var rec ProcedureRecord
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.CodeID, &rec.ToothNumber,
		&rec.Status, &rec.Date, &rec.SubSurfaces, &rec.FillingMaterial,
		&rec.Quantity, &rec.Cost, &rec.Paid, &rec.PractitionerID,
		&rec.Notes, &rec.BridgeGroup, &rec.BridgeRole, &rec.BridgeMain,
		&rec.CreatedAt)
	return &rec, err
}

func (r *procedureRepoPG) insert(ctx context.Context, q db.Queryable, rec *ProcedureRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := q.Exec(ctx, `
		INSERT INTO dental_procedures (id, patient_id, code_id, tooth_number,
			status, date, sub_surfaces, filling_material, quantity, cost,
			paid, practitioner_id, notes, bridge_group_id, bridge_role, bridge_main)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		rec.ID, rec.PatientID, rec.CodeID, rec.ToothNumber,
		rec.Status, rec.Date, rec.SubSurfaces, rec.FillingMaterial,
		rec.Quantity, rec.Cost, rec.Paid, rec.PractitionerID,
		rec.Notes, nullable(rec.BridgeGroup), nullable(rec.BridgeRole), rec.BridgeMain)
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *procedureRepoPG) Append(ctx context.Context, rec *ProcedureRecord) error {
	return r.insert(ctx, r.conn(ctx), rec)
}

func (r *procedureRepoPG) AppendGroup(ctx context.Context, recs []*ProcedureRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return db.WithTx(ctx, r.pool, func(txCtx context.Context) error {
		for _, rec := range recs {
			if err := r.insert(txCtx, r.conn(txCtx), rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *procedureRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ProcedureRecord, error) {
	return scanRec(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recCols+` FROM dental_procedures WHERE id = $1`, id))
}

func (r *procedureRepoPG) listQuery(ctx context.Context, query string, args ...interface{}) ([]*ProcedureRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ProcedureRecord
	for rows.Next() {
		rec, err := scanRec(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (r *procedureRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ProcedureRecord, error) {
	return r.listQuery(ctx,
		`SELECT `+recCols+` FROM dental_procedures WHERE patient_id = $1 ORDER BY seq`,
		patientID)
}

func (r *procedureRepoPG) ListByPatientPage(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*ProcedureRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM dental_procedures WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.listQuery(ctx,
		`SELECT `+recCols+` FROM dental_procedures WHERE patient_id = $1 ORDER BY seq LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *procedureRepoPG) Update(ctx context.Context, rec *ProcedureRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE dental_procedures SET tooth_number=$2, status=$3, date=$4,
			sub_surfaces=$5, filling_material=$6, quantity=$7, cost=$8,
			paid=$9, practitioner_id=$10, notes=$11,
			bridge_group_id=$12, bridge_role=$13, bridge_main=$14
		WHERE id = $1`,
		rec.ID, rec.ToothNumber, rec.Status, rec.Date,
		rec.SubSurfaces, rec.FillingMaterial, rec.Quantity, rec.Cost,
		rec.Paid, rec.PractitionerID, rec.Notes,
		nullable(rec.BridgeGroup), nullable(rec.BridgeRole), rec.BridgeMain)
	return err
}

func (r *procedureRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM dental_procedures WHERE id = $1`, id)
	return err
}

// bridgeGroupClause matches both the structured column and every historical
// notes notation for a bridge id.
const bridgeGroupClause = `(bridge_group_id = $2
	OR notes LIKE '%bridge-' || $2 || '%'
	OR notes LIKE '%bridge:' || $2 || '%'
	OR notes LIKE '%bridge_id=' || $2 || '%')`

func (r *procedureRepoPG) ListByBridgeGroup(ctx context.Context, patientID uuid.UUID, groupID string) ([]*ProcedureRecord, error) {
	return r.listQuery(ctx,
		`SELECT `+recCols+` FROM dental_procedures
		 WHERE patient_id = $1 AND `+bridgeGroupClause+` ORDER BY seq`,
		patientID, groupID)
}

func (r *procedureRepoPG) DeleteGroup(ctx context.Context, patientID uuid.UUID, groupID string) error {
	return db.WithTx(ctx, r.pool, func(txCtx context.Context) error {
		_, err := r.conn(txCtx).Exec(txCtx,
			`DELETE FROM dental_procedures WHERE patient_id = $1 AND `+bridgeGroupClause,
			patientID, groupID)
		return err
	})
}

func (r *procedureRepoPG) ListWithLegacyBridgeNotes(ctx context.Context) ([]*ProcedureRecord, error) {
	return r.listQuery(ctx, `SELECT `+recCols+` FROM dental_procedures
		WHERE bridge_group_id IS NULL
		  AND (notes LIKE '%bridge-%' OR notes LIKE '%bridge:%' OR notes LIKE '%bridge_id=%')
		ORDER BY seq`)
}
