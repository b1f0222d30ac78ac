package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UsageRecord maps to the inventory_usage table: one row per (record, item).
// CalculatedQty is system-derived; an override replaces it for commit
// purposes but never overwrites it. Rows are corrected, never deleted.
type UsageRecord struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	RecordID       uuid.UUID        `db:"record_id" json:"record_id"`
	ItemID         uuid.UUID        `db:"item_id" json:"item_id"`
	CalculatedQty  decimal.Decimal  `db:"calculated_qty" json:"calculated_qty"`
	OverrideQty    *decimal.Decimal `db:"override_qty" json:"override_qty,omitempty"`
	OverrideReason *string          `db:"override_reason" json:"override_reason,omitempty"`
	OverriddenBy   *string          `db:"overridden_by" json:"overridden_by,omitempty"`
	OverriddenAt   *time.Time       `db:"overridden_at" json:"overridden_at,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// EffectiveQty is the quantity a commit applies: the override when present,
// otherwise the calculated quantity.
func (u *UsageRecord) EffectiveQty() decimal.Decimal {
	if u.OverrideQty != nil {
		return *u.OverrideQty
	}
	return u.CalculatedQty
}

// Commit maps to the inventory_commit table. A commit is immutable once
// written; its only transition is to the terminal rolled-back state.
type Commit struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	RecordID       uuid.UUID  `db:"record_id" json:"record_id"`
	UnitID         uuid.UUID  `db:"unit_id" json:"unit_id"`
	CommittedBy    string     `db:"committed_by" json:"committed_by"`
	Signature      string     `db:"signature" json:"signature"`
	CommittedAt    time.Time  `db:"committed_at" json:"committed_at"`
	RolledBackAt   *time.Time `db:"rolled_back_at" json:"rolled_back_at,omitempty"`
	RolledBackBy   *string    `db:"rolled_back_by" json:"rolled_back_by,omitempty"`
	RollbackReason *string    `db:"rollback_reason" json:"rollback_reason,omitempty"`
}

// Active reports whether the commit can still be rolled back.
func (c *Commit) Active() bool { return c.RolledBackAt == nil }

// CommitItem maps to the inventory_commit_item table: the immutable snapshot
// of quantities applied to stock. Rollback restores exactly these amounts,
// never a re-derivation from the usage rows.
type CommitItem struct {
	CommitID uuid.UUID       `db:"commit_id" json:"commit_id"`
	ItemID   uuid.UUID       `db:"item_id" json:"item_id"`
	Quantity decimal.Decimal `db:"quantity" json:"quantity"`
}

// StockLevel maps to the stock_level table, keyed by (item, unit). Only
// commits, rollbacks and order receiving write it.
type StockLevel struct {
	ItemID    uuid.UUID       `db:"item_id" json:"item_id"`
	UnitID    uuid.UUID       `db:"unit_id" json:"unit_id"`
	QtyOnHand decimal.Decimal `db:"qty_on_hand" json:"qty_on_hand"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// CommitLine is one effective usage line read at commit time, joined with
// the item's controlled flag for the signature requirement.
type CommitLine struct {
	ItemID     uuid.UUID
	Quantity   decimal.Decimal
	Controlled bool
}
