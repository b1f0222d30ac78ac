package record

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record, surgery, medication or link does
// not exist.
var ErrNotFound = errors.New("record: not found")

type Repository interface {
	GetRecord(ctx context.Context, id uuid.UUID) (*AnesthesiaRecord, error)
	GetSurgery(ctx context.Context, id uuid.UUID) (*Surgery, error)

	GetMedicationConfig(ctx context.Context, id uuid.UUID) (*MedicationConfig, error)
	GetRecordMedication(ctx context.Context, recordID, medicationID uuid.UUID) (*RecordMedication, error)
	LinkMedication(ctx context.Context, rm *RecordMedication) error

	CreateEvent(ctx context.Context, e *MedicationEvent) error
	ListEvents(ctx context.Context, recordID uuid.UUID) ([]*MedicationEvent, error)
	// ListAdministrations joins events with their medication's linked stock
	// item; events for medications without an item are omitted.
	ListAdministrations(ctx context.Context, recordID uuid.UUID) ([]*Administration, error)

	CreateTechnique(ctx context.Context, t *TechniqueEntry) error
	ListTechniques(ctx context.Context, recordID uuid.UUID) ([]*TechniqueEntry, error)
}
