package record

import (
	"context"
	"errors"
	"time"

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

func (r *repoPG) GetRecord(ctx context.Context, id uuid.UUID) (*AnesthesiaRecord, error) {
	var a AnesthesiaRecord
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, surgery_id, created_at FROM anesthesia_record WHERE id = $1`, id).
		Scan(&a.ID, &a.SurgeryID, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *repoPG) GetSurgery(ctx context.Context, id uuid.UUID) (*Surgery, error) {
	var s Surgery
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, hospital_id, patient_ref, created_at FROM surgery WHERE id = $1`, id).
		Scan(&s.ID, &s.HospitalID, &s.PatientRef, &s.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *repoPG) GetMedicationConfig(ctx context.Context, id uuid.UUID) (*MedicationConfig, error) {
	var m MedicationConfig
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, hospital_id, name, admin_group, rate_unit, default_dose, dose_unit, item_id, created_at
		FROM medication_config WHERE id = $1`, id).
		Scan(&m.ID, &m.HospitalID, &m.Name, &m.AdminGroup, &m.RateUnit,
			&m.DefaultDose, &m.DoseUnit, &m.ItemID, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *repoPG) GetRecordMedication(ctx context.Context, recordID, medicationID uuid.UUID) (*RecordMedication, error) {
	var rm RecordMedication
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, record_id, medication_id, created_at
		FROM record_medication WHERE record_id = $1 AND medication_id = $2`,
		recordID, medicationID).
		Scan(&rm.ID, &rm.RecordID, &rm.MedicationID, &rm.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &rm, nil
}

func (r *repoPG) LinkMedication(ctx context.Context, rm *RecordMedication) error {
	rm.ID = uuid.New()
	rm.CreatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO record_medication (id, record_id, medication_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		rm.ID, rm.RecordID, rm.MedicationID, rm.CreatedAt)
	return err
}

func (r *repoPG) CreateEvent(ctx context.Context, e *MedicationEvent) error {
	e.ID = uuid.New()
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medication_event (id, record_id, record_medication_id, kind, dose, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.RecordID, e.RecordMedicationID, e.Kind, e.Dose, e.OccurredAt)
	return err
}

func (r *repoPG) ListEvents(ctx context.Context, recordID uuid.UUID) ([]*MedicationEvent, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, record_id, record_medication_id, kind, dose, occurred_at
		FROM medication_event WHERE record_id = $1 ORDER BY occurred_at`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*MedicationEvent
	for rows.Next() {
		var e MedicationEvent
		if err := rows.Scan(&e.ID, &e.RecordID, &e.RecordMedicationID, &e.Kind, &e.Dose, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (r *repoPG) ListAdministrations(ctx context.Context, recordID uuid.UUID) ([]*Administration, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT e.id, i.id, e.kind, e.dose, i.pack_size
		FROM medication_event e
		JOIN record_medication rm ON rm.id = e.record_medication_id
		JOIN medication_config mc ON mc.id = rm.medication_id
		JOIN item i ON i.id = mc.item_id
		WHERE e.record_id = $1
		ORDER BY e.occurred_at`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []*Administration
	for rows.Next() {
		var a Administration
		if err := rows.Scan(&a.EventID, &a.ItemID, &a.Kind, &a.Dose, &a.PackSize); err != nil {
			return nil, err
		}
		admins = append(admins, &a)
	}
	return admins, rows.Err()
}

func (r *repoPG) CreateTechnique(ctx context.Context, t *TechniqueEntry) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO technique_entry (id, record_id, kind, config, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.RecordID, t.Kind, t.Config, t.CreatedAt)
	return err
}

func (r *repoPG) ListTechniques(ctx context.Context, recordID uuid.UUID) ([]*TechniqueEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, record_id, kind, config, created_at
		FROM technique_entry WHERE record_id = $1 ORDER BY created_at`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*TechniqueEntry
	for rows.Next() {
		var t TechniqueEntry
		if err := rows.Scan(&t.ID, &t.RecordID, &t.Kind, &t.Config, &t.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &t)
	}
	return entries, rows.Err()
}
