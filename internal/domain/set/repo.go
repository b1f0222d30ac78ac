package set

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a set template does not exist.
var ErrNotFound = errors.New("set: not found")

type Repository interface {
	GetSet(ctx context.Context, id uuid.UUID) (*Set, error)
	ListSets(ctx context.Context, hospitalID uuid.UUID) ([]*Set, error)
	ListTechniques(ctx context.Context, setID uuid.UUID) ([]*SetTechnique, error)
	ListMedications(ctx context.Context, setID uuid.UUID) ([]*SetMedication, error)
	ListInventory(ctx context.Context, setID uuid.UUID) ([]*SetInventory, error)
}
