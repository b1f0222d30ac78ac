package record

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Surgery maps to the surgery table. The surgery carries the hospital scope
// for everything hanging off the anesthesia record.
type Surgery struct {
	ID         uuid.UUID `db:"id" json:"id"`
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
	PatientRef string    `db:"patient_ref" json:"patient_ref"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AnesthesiaRecord maps to the anesthesia_record table.
type AnesthesiaRecord struct {
	ID        uuid.UUID `db:"id" json:"id"`
	SurgeryID uuid.UUID `db:"surgery_id" json:"surgery_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MedicationConfig maps to the medication_config table: a hospital-level
// medication definition referenced by records and set templates.
type MedicationConfig struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	HospitalID  uuid.UUID       `db:"hospital_id" json:"hospital_id"`
	Name        string          `db:"name" json:"name"`
	AdminGroup  string          `db:"admin_group" json:"admin_group"`
	RateUnit    string          `db:"rate_unit" json:"rate_unit"`
	DefaultDose decimal.Decimal `db:"default_dose" json:"default_dose"`
	DoseUnit    string          `db:"dose_unit" json:"dose_unit"`
	ItemID      *uuid.UUID      `db:"item_id" json:"item_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// IsInfusion reports whether the medication is dosed as a running infusion
// rather than a bolus, judged from its rate-unit configuration and
// administration-group name.
func (m *MedicationConfig) IsInfusion() bool {
	if m.RateUnit != "" {
		return true
	}
	group := strings.ToLower(m.AdminGroup)
	return strings.Contains(group, "infusion") || strings.Contains(group, "perfusor")
}

// RecordMedication maps to the record_medication table: the link between a
// record and a medication config. At most one link per (record, medication).
type RecordMedication struct {
	ID           uuid.UUID `db:"id" json:"id"`
	RecordID     uuid.UUID `db:"record_id" json:"record_id"`
	MedicationID uuid.UUID `db:"medication_id" json:"medication_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Medication event kinds.
const (
	EventBolus         = "bolus"
	EventInfusionStart = "infusion_start"
	EventInfusionStop  = "infusion_stop"
)

// MedicationEvent maps to the medication_event table: one administration
// action (bolus given, infusion started or stopped) on a record.
type MedicationEvent struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	RecordID           uuid.UUID       `db:"record_id" json:"record_id"`
	RecordMedicationID uuid.UUID       `db:"record_medication_id" json:"record_medication_id"`
	Kind               string          `db:"kind" json:"kind"`
	Dose               decimal.Decimal `db:"dose" json:"dose"`
	OccurredAt         time.Time       `db:"occurred_at" json:"occurred_at"`
}

// TechniqueEntry maps to the technique_entry table: an installation, airway
// or regional technique documented on the record. Config is a schemaless
// blob interpreted by the owning dialog; unknown keys are preserved.
type TechniqueEntry struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	RecordID  uuid.UUID       `db:"record_id" json:"record_id"`
	Kind      string          `db:"kind" json:"kind"`
	Config    json.RawMessage `db:"config" json:"config"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Administration is a flattened view of one consumable-relevant medication
// event: the stock item the medication maps to and the packs it consumes.
// Events whose medication has no linked item are excluded.
type Administration struct {
	EventID  uuid.UUID       `json:"event_id"`
	ItemID   uuid.UUID       `json:"item_id"`
	Kind     string          `json:"kind"`
	Dose     decimal.Decimal `json:"dose"`
	PackSize decimal.Decimal `json:"pack_size"`
}
