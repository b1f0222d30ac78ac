package hospital

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a hospital, unit or item does not exist.
var ErrNotFound = errors.New("hospital: not found")

// ErrModuleNotConfigured is returned when a hospital does not have exactly
// one unit configured for the requested module type.
var ErrModuleNotConfigured = errors.New("hospital: module not configured")

type Repository interface {
	GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error)
	GetUnit(ctx context.Context, id uuid.UUID) (*Unit, error)
	ListUnits(ctx context.Context, hospitalID uuid.UUID) ([]*Unit, error)
	ListUnitsByModule(ctx context.Context, hospitalID uuid.UUID, moduleType string) ([]*Unit, error)
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Item, int, error)
	ListGrants(ctx context.Context, userID string, hospitalID uuid.UUID) ([]*StaffGrant, error)
	ListGrantsForUnit(ctx context.Context, userID string, unitID uuid.UUID) ([]*StaffGrant, error)
}
