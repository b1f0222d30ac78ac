package hospital

import (
	"context"

	"github.com/google/uuid"
)

// Gate implements auth.Gate over the staff_grant table.
type Gate struct {
	repo Repository
}

func NewGate(repo Repository) *Gate {
	return &Gate{repo: repo}
}

func (g *Gate) HasHospitalAccess(ctx context.Context, userID string, hospitalID uuid.UUID) (bool, error) {
	grants, err := g.repo.ListGrants(ctx, userID, hospitalID)
	if err != nil {
		return false, err
	}
	return len(grants) > 0, nil
}

func (g *Gate) HasUnitRole(ctx context.Context, userID string, unitID uuid.UUID) (bool, error) {
	grants, err := g.repo.ListGrantsForUnit(ctx, userID, unitID)
	if err != nil {
		return false, err
	}
	return len(grants) > 0, nil
}
