package hospital

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.GetHospital(ctx, id)
}

func (s *Service) GetUnit(ctx context.Context, id uuid.UUID) (*Unit, error) {
	return s.repo.GetUnit(ctx, id)
}

func (s *Service) ListUnits(ctx context.Context, hospitalID uuid.UUID) ([]*Unit, error) {
	return s.repo.ListUnits(ctx, hospitalID)
}

func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *Service) ListItems(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Item, int, error) {
	return s.repo.ListItems(ctx, hospitalID, limit, offset)
}

// ResolveModuleUnit returns the unit a commit for the given module targets.
// The hospital must have exactly one unit configured for the module; zero or
// several is a configuration error the caller must surface, not guess around.
func (s *Service) ResolveModuleUnit(ctx context.Context, hospitalID uuid.UUID, moduleType string) (*Unit, error) {
	if moduleType != ModuleAnesthesia && moduleType != ModuleOR {
		return nil, fmt.Errorf("%w: unknown module type %q", ErrModuleNotConfigured, moduleType)
	}
	units, err := s.repo.ListUnitsByModule(ctx, hospitalID, moduleType)
	if err != nil {
		return nil, err
	}
	if len(units) != 1 {
		return nil, fmt.Errorf("%w: hospital %s has %d units of type %q, want exactly 1",
			ErrModuleNotConfigured, hospitalID, len(units), moduleType)
	}
	return units[0], nil
}
