package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record types with audit trails.
const (
	TypeUsage  = "inventory_usage"
	TypeCommit = "inventory_commit"
	TypeRecord = "anesthesia_record"
	TypeSet    = "set_template"
)

// ValidType reports whether t names an auditable record type.
func ValidType(t string) bool {
	switch t {
	case TypeUsage, TypeCommit, TypeRecord, TypeSet:
		return true
	}
	return false
}

// Entry maps to the audit_log table. Entries are append-only: nothing in the
// system updates or deletes one.
type Entry struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	RecordType string          `db:"record_type" json:"record_type"`
	RecordID   uuid.UUID       `db:"record_id" json:"record_id"`
	Action     string          `db:"action" json:"action"`
	UserID     string          `db:"user_id" json:"user_id"`
	OldValue   json.RawMessage `db:"old_value" json:"old_value,omitempty"`
	NewValue   json.RawMessage `db:"new_value" json:"new_value,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
