package set

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Set maps to the set_template table: a reusable bundle of techniques,
// medications and consumables a clinician applies to a record in one step.
type Set struct {
	ID         uuid.UUID `db:"id" json:"id"`
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SetTechnique maps to the set_technique table.
type SetTechnique struct {
	ID       uuid.UUID       `db:"id" json:"id"`
	SetID    uuid.UUID       `db:"set_id" json:"set_id"`
	Kind     string          `db:"kind" json:"kind"`
	Config   json.RawMessage `db:"config" json:"config"`
	Position int             `db:"position" json:"position"`
}

// SetMedication maps to the set_medication table. CustomDose, when present,
// replaces the medication's default dose for the seeded event.
type SetMedication struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	SetID        uuid.UUID        `db:"set_id" json:"set_id"`
	MedicationID uuid.UUID        `db:"medication_id" json:"medication_id"`
	CustomDose   *decimal.Decimal `db:"custom_dose" json:"custom_dose,omitempty"`
}

// SetInventory maps to the set_inventory table: consumables the set seeds
// directly into the record's usage ledger.
type SetInventory struct {
	ID       uuid.UUID       `db:"id" json:"id"`
	SetID    uuid.UUID       `db:"set_id" json:"set_id"`
	ItemID   uuid.UUID       `db:"item_id" json:"item_id"`
	Quantity decimal.Decimal `db:"quantity" json:"quantity"`
}

// Technique kinds the record dialogs understand.
const (
	KindPeripheralLine    = "peripheral_line"
	KindArterialLine      = "arterial_line"
	KindCentralLine       = "central_line"
	KindBladderCatheter   = "bladder_catheter"
	KindAirway            = "airway"
	KindGeneralAnesthesia = "general_anesthesia"
	KindNeuraxialBlock    = "neuraxial_block"
	KindPeripheralBlock   = "peripheral_block"
)

// TechniqueConfig is the decoded form of a technique's config blob. Exactly
// one concrete type exists per known kind; configs of kinds this build does
// not know decode to UnknownConfig and are skipped on application.
type TechniqueConfig interface {
	techniqueConfig()
}

type PeripheralLineConfig struct {
	Site  string `json:"site"`
	Gauge string `json:"gauge"`
}

type ArterialLineConfig struct {
	Site   string `json:"site"`
	Method string `json:"method"`
}

type CentralLineConfig struct {
	Site   string `json:"site"`
	Lumens int    `json:"lumens"`
}

type BladderCatheterConfig struct {
	Size string `json:"size"`
}

type AirwayConfig struct {
	Device string `json:"device"`
	Size   string `json:"size"`
}

type GeneralAnesthesiaConfig struct {
	Induction string `json:"induction"`
}

type NeuraxialBlockConfig struct {
	Technique string `json:"technique"`
	Level     string `json:"level"`
}

type PeripheralBlockConfig struct {
	Block string `json:"block"`
	Side  string `json:"side"`
}

// UnknownConfig preserves the raw blob of a kind this build does not know.
type UnknownConfig struct {
	Kind string
	Raw  json.RawMessage
}

func (PeripheralLineConfig) techniqueConfig()    {}
func (ArterialLineConfig) techniqueConfig()      {}
func (CentralLineConfig) techniqueConfig()       {}
func (BladderCatheterConfig) techniqueConfig()   {}
func (AirwayConfig) techniqueConfig()            {}
func (GeneralAnesthesiaConfig) techniqueConfig() {}
func (NeuraxialBlockConfig) techniqueConfig()    {}
func (PeripheralBlockConfig) techniqueConfig()   {}
func (UnknownConfig) techniqueConfig()           {}

// ParseConfig decodes a technique config blob by kind. Unknown kinds are not
// an error; they decode to UnknownConfig so a set saved by a newer build
// still applies its remaining entries.
func ParseConfig(kind string, raw json.RawMessage) (TechniqueConfig, error) {
	decode := func(v TechniqueConfig) (TechniqueConfig, error) {
		if len(raw) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, err
		}
		return v, nil
	}
	switch kind {
	case KindPeripheralLine:
		return decode(&PeripheralLineConfig{})
	case KindArterialLine:
		return decode(&ArterialLineConfig{})
	case KindCentralLine:
		return decode(&CentralLineConfig{})
	case KindBladderCatheter:
		return decode(&BladderCatheterConfig{})
	case KindAirway:
		return decode(&AirwayConfig{})
	case KindGeneralAnesthesia:
		return decode(&GeneralAnesthesiaConfig{})
	case KindNeuraxialBlock:
		return decode(&NeuraxialBlockConfig{})
	case KindPeripheralBlock:
		return decode(&PeripheralBlockConfig{})
	default:
		return UnknownConfig{Kind: kind, Raw: raw}, nil
	}
}
