package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	userIDKey     contextKey = "user_id"
	rolesKey      contextKey = "user_roles"
	hospitalIDKey contextKey = "hospital_id"
)

// WithUser returns a context carrying the authenticated user id and roles.
func WithUser(ctx context.Context, userID string, roles []string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, rolesKey, roles)
}

// UserIDFromContext retrieves the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(userIDKey).(string)
	return uid
}

// RolesFromContext retrieves the authenticated user's roles.
func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(rolesKey).([]string)
	return roles
}

// WithHospital returns a context carrying the request's hospital scope.
func WithHospital(ctx context.Context, hospitalID uuid.UUID) context.Context {
	return context.WithValue(ctx, hospitalIDKey, hospitalID)
}

// HospitalIDFromContext retrieves the hospital scope set by the
// X-Hospital-Id header, if any.
func HospitalIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(hospitalIDKey).(uuid.UUID)
	return id, ok
}
