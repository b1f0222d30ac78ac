package hospital

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drmauij/viali/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	var h Hospital
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, created_at FROM hospital WHERE id = $1`, id).
		Scan(&h.ID, &h.Name, &h.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &h, nil
}

const unitCols = `id, hospital_id, name, module_type, created_at`

func scanUnit(row pgx.Row) (*Unit, error) {
	var u Unit
	err := row.Scan(&u.ID, &u.HospitalID, &u.Name, &u.ModuleType, &u.CreatedAt)
	return &u, err
}

func (r *repoPG) GetUnit(ctx context.Context, id uuid.UUID) (*Unit, error) {
	u, err := scanUnit(r.conn(ctx).QueryRow(ctx, `SELECT `+unitCols+` FROM unit WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *repoPG) listUnits(ctx context.Context, query string, args ...interface{}) ([]*Unit, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []*Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (r *repoPG) ListUnits(ctx context.Context, hospitalID uuid.UUID) ([]*Unit, error) {
	return r.listUnits(ctx,
		`SELECT `+unitCols+` FROM unit WHERE hospital_id = $1 ORDER BY name`, hospitalID)
}

func (r *repoPG) ListUnitsByModule(ctx context.Context, hospitalID uuid.UUID, moduleType string) ([]*Unit, error) {
	return r.listUnits(ctx,
		`SELECT `+unitCols+` FROM unit WHERE hospital_id = $1 AND module_type = $2 ORDER BY name`,
		hospitalID, moduleType)
}

const itemCols = `id, hospital_id, name, pack_size, unit_label, controlled, created_at`

func scanItem(row pgx.Row) (*Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.HospitalID, &i.Name, &i.PackSize, &i.UnitLabel, &i.Controlled, &i.CreatedAt)
	return &i, err
}

func (r *repoPG) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	i, err := scanItem(r.conn(ctx).QueryRow(ctx, `SELECT `+itemCols+` FROM item WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return i, nil
}

func (r *repoPG) ListItems(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Item, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM item WHERE hospital_id = $1`, hospitalID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM item WHERE hospital_id = $1 ORDER BY name LIMIT $2 OFFSET $3`,
		hospitalID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, i)
	}
	return items, total, rows.Err()
}

const grantCols = `id, user_id, hospital_id, unit_id, role, created_at`

func scanGrant(row pgx.Row) (*StaffGrant, error) {
	var g StaffGrant
	err := row.Scan(&g.ID, &g.UserID, &g.HospitalID, &g.UnitID, &g.Role, &g.CreatedAt)
	return &g, err
}

func (r *repoPG) listGrants(ctx context.Context, query string, args ...interface{}) ([]*StaffGrant, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []*StaffGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func (r *repoPG) ListGrants(ctx context.Context, userID string, hospitalID uuid.UUID) ([]*StaffGrant, error) {
	return r.listGrants(ctx,
		`SELECT `+grantCols+` FROM staff_grant WHERE user_id = $1 AND hospital_id = $2`,
		userID, hospitalID)
}

func (r *repoPG) ListGrantsForUnit(ctx context.Context, userID string, unitID uuid.UUID) ([]*StaffGrant, error) {
	// A hospital-wide grant (unit_id IS NULL) covers every unit of that hospital.
	return r.listGrants(ctx, `
		SELECT `+grantCols+` FROM staff_grant g
		WHERE g.user_id = $1
		  AND (g.unit_id = $2
		       OR (g.unit_id IS NULL AND g.hospital_id = (SELECT hospital_id FROM unit WHERE id = $2)))`,
		userID, unitID)
}
