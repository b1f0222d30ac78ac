package set

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

func (r *repoPG) GetSet(ctx context.Context, id uuid.UUID) (*Set, error) {
	var s Set
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, hospital_id, name, created_at FROM set_template WHERE id = $1`, id).
		Scan(&s.ID, &s.HospitalID, &s.Name, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) ListSets(ctx context.Context, hospitalID uuid.UUID) ([]*Set, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, hospital_id, name, created_at FROM set_template
		 WHERE hospital_id = $1 ORDER BY name`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []*Set
	for rows.Next() {
		var s Set
		if err := rows.Scan(&s.ID, &s.HospitalID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		sets = append(sets, &s)
	}
	return sets, rows.Err()
}

func (r *repoPG) ListTechniques(ctx context.Context, setID uuid.UUID) ([]*SetTechnique, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, set_id, kind, config, position FROM set_technique
		 WHERE set_id = $1 ORDER BY position`, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var techniques []*SetTechnique
	for rows.Next() {
		var t SetTechnique
		if err := rows.Scan(&t.ID, &t.SetID, &t.Kind, &t.Config, &t.Position); err != nil {
			return nil, err
		}
		techniques = append(techniques, &t)
	}
	return techniques, rows.Err()
}

func (r *repoPG) ListMedications(ctx context.Context, setID uuid.UUID) ([]*SetMedication, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, set_id, medication_id, custom_dose FROM set_medication
		 WHERE set_id = $1`, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []*SetMedication
	for rows.Next() {
		var m SetMedication
		if err := rows.Scan(&m.ID, &m.SetID, &m.MedicationID, &m.CustomDose); err != nil {
			return nil, err
		}
		meds = append(meds, &m)
	}
	return meds, rows.Err()
}

func (r *repoPG) ListInventory(ctx context.Context, setID uuid.UUID) ([]*SetInventory, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, set_id, item_id, quantity FROM set_inventory
		 WHERE set_id = $1`, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inv []*SetInventory
	for rows.Next() {
		var i SetInventory
		if err := rows.Scan(&i.ID, &i.SetID, &i.ItemID, &i.Quantity); err != nil {
			return nil, err
		}
		inv = append(inv, &i)
	}
	return inv, rows.Err()
}
