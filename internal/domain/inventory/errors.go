package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for the usage/commit/rollback ledger. Handlers map these
// onto HTTP statuses; services return them for every expected failure and
// reserve plain errors for storage faults.
var (
	ErrRecordNotFound = errors.New("inventory: record not found")
	ErrUsageNotFound  = errors.New("inventory: usage record not found")
	ErrCommitNotFound = errors.New("inventory: commit not found")
	ErrItemNotFound   = errors.New("inventory: item not found")

	// Access failures at three distinct granularities. A hospital grant does
	// not imply a unit grant, and a unit grant in the wrong module does not
	// allow committing into another module's unit.
	ErrAccessDenied       = errors.New("inventory: no access to hospital")
	ErrUnitAccessDenied   = errors.New("inventory: no access to unit")
	ErrModuleAccessDenied = errors.New("inventory: no access to module unit")

	ErrInvalidQuantity   = errors.New("inventory: quantity must be a non-negative number")
	ErrMissingReason     = errors.New("inventory: reason is required")
	ErrMissingSignature  = errors.New("inventory: signature required for controlled items")
	ErrUnsupportedModule = errors.New("inventory: unsupported module type")

	ErrModuleNotConfigured = errors.New("inventory: hospital has no unit configured for module")

	ErrAlreadyRolledBack = errors.New("inventory: commit already rolled back")
	ErrAlreadyCommitted  = errors.New("inventory: record already has an active commit for unit")
)

// AlreadyCommittedError carries the blocking commit so callers can point the
// user at it.
type AlreadyCommittedError struct {
	RecordID uuid.UUID
	UnitID   uuid.UUID
	CommitID uuid.UUID
}

func (e *AlreadyCommittedError) Error() string {
	return fmt.Sprintf("record %s already has active commit %s for unit %s",
		e.RecordID, e.CommitID, e.UnitID)
}

func (e *AlreadyCommittedError) Unwrap() error { return ErrAlreadyCommitted }

// IsNotFound reports whether err is any of the missing-resource errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrUsageNotFound) ||
		errors.Is(err, ErrCommitNotFound) ||
		errors.Is(err, ErrItemNotFound)
}

// IsAccessDenied reports whether err is an authorization failure at any
// granularity.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrUnitAccessDenied) ||
		errors.Is(err, ErrModuleAccessDenied)
}

// IsValidation reports whether err is a client input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrMissingReason) ||
		errors.Is(err, ErrMissingSignature) ||
		errors.Is(err, ErrUnsupportedModule)
}

// IsConflict reports whether err is a state conflict (terminal commit state
// or duplicate active commit).
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyRolledBack) ||
		errors.Is(err, ErrAlreadyCommitted)
}
