package record

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

type linkKey struct{ recordID, medicationID uuid.UUID }

type stubRepo struct {
	Repository
	links map[linkKey]*RecordMedication
}

func (s *stubRepo) GetRecordMedication(_ context.Context, recordID, medicationID uuid.UUID) (*RecordMedication, error) {
	if rm, ok := s.links[linkKey{recordID, medicationID}]; ok {
		return rm, nil
	}
	return nil, fmt.Errorf("get record medication: %w", ErrNotFound)
}

func (s *stubRepo) LinkMedication(_ context.Context, rm *RecordMedication) error {
	rm.ID = uuid.New()
	s.links[linkKey{rm.RecordID, rm.MedicationID}] = rm
	return nil
}

func TestEnsureMedicationLink(t *testing.T) {
	svc := NewService(&stubRepo{links: map[linkKey]*RecordMedication{}})
	ctx := context.Background()
	recordID, medicationID := uuid.New(), uuid.New()

	// The repository may wrap its not-found sentinel; a wrapped miss
	// still creates the link.
	link, created, err := svc.EnsureMedicationLink(ctx, recordID, medicationID)
	if err != nil {
		t.Fatalf("first link: %v", err)
	}
	if !created || link.ID == uuid.Nil {
		t.Errorf("expected new link, created=%v id=%v", created, link.ID)
	}

	again, created, err := svc.EnsureMedicationLink(ctx, recordID, medicationID)
	if err != nil {
		t.Fatalf("second link: %v", err)
	}
	if created || again.ID != link.ID {
		t.Errorf("expected existing link back, created=%v id=%v want %v", created, again.ID, link.ID)
	}
}
