package record

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*AnesthesiaRecord, error) {
	return s.repo.GetRecord(ctx, id)
}

// ResolveHospital walks record -> surgery -> hospital. Every mutating caller
// re-validates scope through this, even when ids arrive directly.
func (s *Service) ResolveHospital(ctx context.Context, recordID uuid.UUID) (uuid.UUID, error) {
	rec, err := s.repo.GetRecord(ctx, recordID)
	if err != nil {
		return uuid.Nil, err
	}
	surgery, err := s.repo.GetSurgery(ctx, rec.SurgeryID)
	if err != nil {
		return uuid.Nil, err
	}
	return surgery.HospitalID, nil
}

func (s *Service) GetMedicationConfig(ctx context.Context, id uuid.UUID) (*MedicationConfig, error) {
	return s.repo.GetMedicationConfig(ctx, id)
}

// EnsureMedicationLink links a medication to a record if it is not linked
// yet. Returns the link and whether it was created by this call.
func (s *Service) EnsureMedicationLink(ctx context.Context, recordID, medicationID uuid.UUID) (*RecordMedication, bool, error) {
	existing, err := s.repo.GetRecordMedication(ctx, recordID, medicationID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	rm := &RecordMedication{RecordID: recordID, MedicationID: medicationID}
	if err := s.repo.LinkMedication(ctx, rm); err != nil {
		return nil, false, err
	}
	return rm, true, nil
}

func (s *Service) AddEvent(ctx context.Context, e *MedicationEvent) error {
	return s.repo.CreateEvent(ctx, e)
}

func (s *Service) ListEvents(ctx context.Context, recordID uuid.UUID) ([]*MedicationEvent, error) {
	return s.repo.ListEvents(ctx, recordID)
}

func (s *Service) ListAdministrations(ctx context.Context, recordID uuid.UUID) ([]*Administration, error) {
	return s.repo.ListAdministrations(ctx, recordID)
}

func (s *Service) CreateTechnique(ctx context.Context, t *TechniqueEntry) error {
	return s.repo.CreateTechnique(ctx, t)
}

func (s *Service) ListTechniques(ctx context.Context, recordID uuid.UUID) ([]*TechniqueEntry, error) {
	return s.repo.ListTechniques(ctx, recordID)
}
