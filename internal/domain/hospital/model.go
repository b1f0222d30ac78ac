package hospital

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Module types a unit can be configured as. Inventory commits target the
// single unit of a hospital configured for the requested module.
const (
	ModuleAnesthesia = "anesthesia"
	ModuleOR         = "or"
)

// Hospital maps to the hospital table.
type Hospital struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Unit maps to the unit table. A unit owns its stock levels and commits.
type Unit struct {
	ID         uuid.UUID `db:"id" json:"id"`
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Name       string    `db:"name" json:"name"`
	ModuleType string    `db:"module_type" json:"module_type"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Item maps to the item table. PackSize is the number of packs consumed per
// administration event of a medication linked to this item.
type Item struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	HospitalID uuid.UUID       `db:"hospital_id" json:"hospital_id"`
	Name       string          `db:"name" json:"name"`
	PackSize   decimal.Decimal `db:"pack_size" json:"pack_size"`
	UnitLabel  string          `db:"unit_label" json:"unit_label"`
	Controlled bool            `db:"controlled" json:"controlled"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// StaffGrant maps to the staff_grant table. A nil UnitID means the grant is
// hospital-wide; a set UnitID scopes the role to that unit only.
type StaffGrant struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"user_id"`
	HospitalID uuid.UUID  `db:"hospital_id" json:"hospital_id"`
	UnitID     *uuid.UUID `db:"unit_id" json:"unit_id,omitempty"`
	Role       string     `db:"role" json:"role"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
