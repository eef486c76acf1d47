package registry

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcalife/dental-api/internal/platform/db"
)

type registryPG struct{ pool *pgxpool.Pool }

// NewRegistryPG returns a Registry backed by the procedure_codes table.
func NewRegistryPG(pool *pgxpool.Pool) Registry {
	return &registryPG{pool: pool}
}

func (r *registryPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const codeCols = `id, code, category, display, material`

func scanCode(row pgx.Row) (*Code, error) {
	var c Code
	err := row.Scan(&c.ID, &c.Code, &c.Category, &c.Display, &c.Material)
	return &c, err
}

func (r *registryPG) Resolve(ctx context.Context, id uuid.UUID) (*Code, error) {
	return scanCode(r.conn(ctx).QueryRow(ctx,
		`SELECT `+codeCols+` FROM procedure_codes WHERE id = $1`, id))
}

func (r *registryPG) ResolveCode(ctx context.Context, code string) (*Code, error) {
	return scanCode(r.conn(ctx).QueryRow(ctx,
		`SELECT `+codeCols+` FROM procedure_codes WHERE code = $1`, code))
}
