package auth

import (
	"context"

	"github.com/google/uuid"
)

// Gate answers scope questions for mutating operations. Hospital access and
// unit-scoped access are distinct grants: holding one does not imply the
// other, and services check the narrowest scope that applies.
type Gate interface {
	// HasHospitalAccess reports whether the user holds any grant in the hospital.
	HasHospitalAccess(ctx context.Context, userID string, hospitalID uuid.UUID) (bool, error)
	// HasUnitRole reports whether the user holds a grant scoped to the unit,
	// either directly or via a hospital-wide grant.
	HasUnitRole(ctx context.Context, userID string, unitID uuid.UUID) (bool, error)
}
