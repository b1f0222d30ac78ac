package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUnknownType is returned when a query names a record type that has no
// audit trail.
var ErrUnknownType = errors.New("audit: unknown record type")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append writes one trail entry. Values are marshalled here so callers pass
// their domain structs directly; a nil value stays a SQL NULL. Satisfies the
// recorder interface the inventory and set services depend on.
func (s *Service) Append(ctx context.Context, recordType string, recordID uuid.UUID, action, userID string, oldValue, newValue interface{}) error {
	e := &Entry{
		RecordType: recordType,
		RecordID:   recordID,
		Action:     action,
		UserID:     userID,
	}
	var err error
	if oldValue != nil {
		if e.OldValue, err = json.Marshal(oldValue); err != nil {
			return fmt.Errorf("marshal old value: %w", err)
		}
	}
	if newValue != nil {
		if e.NewValue, err = json.Marshal(newValue); err != nil {
			return fmt.Errorf("marshal new value: %w", err)
		}
	}
	return s.repo.Create(ctx, e)
}

// Query returns a record's trail oldest first.
func (s *Service) Query(ctx context.Context, recordType string, recordID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	if !ValidType(recordType) {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownType, recordType)
	}
	return s.repo.ListByRecord(ctx, recordType, recordID, limit, offset)
}
