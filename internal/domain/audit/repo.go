package audit

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	// ListByRecord returns entries oldest first so the trail reads as a
	// chronological history.
	ListByRecord(ctx context.Context, recordType string, recordID uuid.UUID, limit, offset int) ([]*Entry, int, error)
}
