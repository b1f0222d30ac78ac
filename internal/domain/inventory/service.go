package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/drmauij/viali/internal/domain/hospital"
	"github.com/drmauij/viali/internal/domain/record"
	"github.com/drmauij/viali/internal/platform/auth"
	"github.com/drmauij/viali/internal/platform/metrics"
)

// RecordSource is the slice of the record service the ledger needs: hospital
// scope resolution and the administrations feeding the calculator.
type RecordSource interface {
	ResolveHospital(ctx context.Context, recordID uuid.UUID) (uuid.UUID, error)
	ListAdministrations(ctx context.Context, recordID uuid.UUID) ([]*record.Administration, error)
}

// HospitalSource resolves module units and catalog items.
type HospitalSource interface {
	ResolveModuleUnit(ctx context.Context, hospitalID uuid.UUID, moduleType string) (*hospital.Unit, error)
	GetItem(ctx context.Context, id uuid.UUID) (*hospital.Item, error)
}

// AuditRecorder appends to the append-only audit trail.
type AuditRecorder interface {
	Append(ctx context.Context, recordType string, recordID uuid.UUID, action, userID string, oldValue, newValue interface{}) error
}

// TxRunner runs fn inside a storage transaction; repository calls made with
// the context fn receives join it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo      Repository
	records   RecordSource
	hospitals HospitalSource
	gate      auth.Gate
	audit     AuditRecorder
	tx        TxRunner
	calc      *Calculator
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func NewService(repo Repository, records RecordSource, hospitals HospitalSource,
	gate auth.Gate, audit AuditRecorder, tx TxRunner, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		records:   records,
		hospitals: hospitals,
		gate:      gate,
		audit:     audit,
		tx:        tx,
		calc:      NewCalculator(),
		metrics:   m,
		log:       log.With().Str("component", "inventory").Logger(),
	}
}

// requireHospital resolves the record's hospital and checks the caller has a
// grant there. Every ledger operation starts here.
func (s *Service) requireHospital(ctx context.Context, userID string, recordID uuid.UUID) (uuid.UUID, error) {
	hospitalID, err := s.records.ResolveHospital(ctx, recordID)
	if errors.Is(err, record.ErrNotFound) {
		return uuid.Nil, ErrRecordNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	ok, err := s.gate.HasHospitalAccess(ctx, userID, hospitalID)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, ErrAccessDenied
	}
	return hospitalID, nil
}

// ListUsage returns all usage rows on a record.
func (s *Service) ListUsage(ctx context.Context, userID string, recordID uuid.UUID) ([]*UsageRecord, error) {
	if _, err := s.requireHospital(ctx, userID, recordID); err != nil {
		return nil, err
	}
	return s.repo.ListUsageByRecord(ctx, recordID)
}

// Calculate re-derives calculated quantities from the record's current
// administrations. Overrides survive recalculation untouched; items that no
// longer appear in any administration have their calculated quantity zeroed
// rather than their row deleted.
func (s *Service) Calculate(ctx context.Context, userID string, recordID uuid.UUID) ([]*UsageRecord, error) {
	if _, err := s.requireHospital(ctx, userID, recordID); err != nil {
		return nil, err
	}

	admins, err := s.records.ListAdministrations(ctx, recordID)
	if err != nil {
		return nil, err
	}
	totals := s.calc.Calculate(admins)

	for itemID, qty := range totals {
		if _, err := s.repo.UpsertCalculated(ctx, recordID, itemID, qty); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.ListUsageByRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	for _, u := range existing {
		if _, still := totals[u.ItemID]; still {
			continue
		}
		if u.CalculatedQty.IsZero() {
			continue
		}
		if _, err := s.repo.UpsertCalculated(ctx, recordID, u.ItemID, decimal.Zero); err != nil {
			return nil, err
		}
	}

	return s.repo.ListUsageByRecord(ctx, recordID)
}

// AddManual records an item the calculator cannot see (opened sterile packs,
// broken ampoules). The quantity lands as an override so a later
// recalculation cannot erase it. Idempotent per (record, item).
func (s *Service) AddManual(ctx context.Context, userID string, recordID, itemID uuid.UUID, qty decimal.Decimal, reason string) (*UsageRecord, error) {
	if qty.IsNegative() {
		return nil, ErrInvalidQuantity
	}
	if reason == "" {
		return nil, ErrMissingReason
	}
	hospitalID, err := s.requireHospital(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}

	item, err := s.hospitals.GetItem(ctx, itemID)
	if errors.Is(err, hospital.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	if item.HospitalID != hospitalID {
		return nil, ErrItemNotFound
	}

	if existing, err := s.repo.GetUsageByItem(ctx, recordID, itemID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrUsageNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	u := &UsageRecord{
		RecordID:       recordID,
		ItemID:         itemID,
		CalculatedQty:  decimal.Zero,
		OverrideQty:    &qty,
		OverrideReason: &reason,
		OverriddenBy:   &userID,
		OverriddenAt:   &now,
	}
	if err := s.repo.CreateUsage(ctx, u); err != nil {
		return nil, err
	}

	if err := s.audit.Append(ctx, "inventory_usage", u.ID, "manual_add", userID, nil, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetOverride replaces the effective quantity of a usage row. The calculated
// quantity stays intact underneath.
func (s *Service) SetOverride(ctx context.Context, userID string, usageID uuid.UUID, qty decimal.Decimal, reason string) (*UsageRecord, error) {
	if qty.IsNegative() {
		return nil, ErrInvalidQuantity
	}
	if reason == "" {
		return nil, ErrMissingReason
	}

	u, err := s.repo.GetUsage(ctx, usageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireHospital(ctx, userID, u.RecordID); err != nil {
		return nil, err
	}

	before := *u
	now := time.Now().UTC()
	u.OverrideQty = &qty
	u.OverrideReason = &reason
	u.OverriddenBy = &userID
	u.OverriddenAt = &now
	if err := s.repo.UpdateOverride(ctx, u); err != nil {
		return nil, err
	}

	if err := s.audit.Append(ctx, "inventory_usage", u.ID, "override_set", userID, &before, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ClearOverride reverts a usage row to its calculated quantity.
func (s *Service) ClearOverride(ctx context.Context, userID string, usageID uuid.UUID) (*UsageRecord, error) {
	u, err := s.repo.GetUsage(ctx, usageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireHospital(ctx, userID, u.RecordID); err != nil {
		return nil, err
	}

	before := *u
	u.OverrideQty = nil
	u.OverrideReason = nil
	u.OverriddenBy = nil
	u.OverriddenAt = nil
	if err := s.repo.UpdateOverride(ctx, u); err != nil {
		return nil, err
	}

	if err := s.audit.Append(ctx, "inventory_usage", u.ID, "override_cleared", userID, &before, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SeedUsage creates a calculated usage row for a set application. An existing
// row for (record, item) is left untouched; the returned flag reports whether
// a row was created.
func (s *Service) SeedUsage(ctx context.Context, recordID, itemID uuid.UUID, qty decimal.Decimal) (bool, error) {
	_, err := s.repo.GetUsageByItem(ctx, recordID, itemID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrUsageNotFound) {
		return false, err
	}
	u := &UsageRecord{
		RecordID:      recordID,
		ItemID:        itemID,
		CalculatedQty: qty,
	}
	if err := s.repo.CreateUsage(ctx, u); err != nil {
		return false, err
	}
	return true, nil
}

// Commit snapshots the record's effective quantities into an immutable commit
// for the hospital's unit of the given module and decrements stock there. The
// snapshot read, commit write, stock deltas and audit entry are one
// transaction. A second commit for the same (record, unit) is rejected while
// the first is active.
func (s *Service) Commit(ctx context.Context, userID string, recordID uuid.UUID, moduleType, signature string) (*Commit, error) {
	if moduleType != hospital.ModuleAnesthesia && moduleType != hospital.ModuleOR {
		return nil, ErrUnsupportedModule
	}

	hospitalID, err := s.requireHospital(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}

	unit, err := s.hospitals.ResolveModuleUnit(ctx, hospitalID, moduleType)
	if errors.Is(err, hospital.ErrModuleNotConfigured) {
		return nil, ErrModuleNotConfigured
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.gate.HasUnitRole(ctx, userID, unit.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrModuleAccessDenied
	}

	commit := &Commit{
		RecordID:    recordID,
		UnitID:      unit.ID,
		CommittedBy: userID,
		Signature:   signature,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if active, err := s.repo.ActiveCommit(ctx, recordID, unit.ID); err == nil {
			return &AlreadyCommittedError{RecordID: recordID, UnitID: unit.ID, CommitID: active.ID}
		} else if !errors.Is(err, ErrCommitNotFound) {
			return err
		}

		lines, err := s.repo.ListEffectiveForCommit(ctx, recordID)
		if err != nil {
			return err
		}

		var items []*CommitItem
		for _, l := range lines {
			if !l.Quantity.IsPositive() {
				continue
			}
			if l.Controlled && signature == "" {
				return ErrMissingSignature
			}
			items = append(items, &CommitItem{ItemID: l.ItemID, Quantity: l.Quantity})
		}

		if err := s.repo.CreateCommit(ctx, commit, items); err != nil {
			return err
		}

		for _, item := range items {
			remaining, err := s.repo.AdjustStock(ctx, item.ItemID, unit.ID, item.Quantity.Neg())
			if err != nil {
				return err
			}
			if remaining.IsNegative() {
				s.log.Warn().
					Str("item_id", item.ItemID.String()).
					Str("unit_id", unit.ID.String()).
					Str("qty_on_hand", remaining.String()).
					Msg("stock level went negative on commit")
				s.metrics.NegativeStockTotal.Inc()
			}
		}

		return s.audit.Append(ctx, "inventory_commit", commit.ID, "commit", userID, nil, commit)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CommitsTotal.Inc()
	return commit, nil
}

// Rollback inverts an active commit: every snapshotted quantity is restored
// to the unit's stock and the commit enters its terminal rolled-back state.
// A rolled-back commit can never be rolled back again.
func (s *Service) Rollback(ctx context.Context, userID string, commitID uuid.UUID, reason string) (*Commit, error) {
	if reason == "" {
		return nil, ErrMissingReason
	}

	commit, err := s.repo.GetCommit(ctx, commitID)
	if err != nil {
		return nil, err
	}
	if !commit.Active() {
		return nil, ErrAlreadyRolledBack
	}

	if _, err := s.requireHospital(ctx, userID, commit.RecordID); err != nil {
		return nil, err
	}
	ok, err := s.gate.HasUnitRole(ctx, userID, commit.UnitID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnitAccessDenied
	}

	now := time.Now().UTC()
	commit.RolledBackAt = &now
	commit.RolledBackBy = &userID
	commit.RollbackReason = &reason

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		// MarkRolledBack re-checks the active state inside the transaction,
		// closing the race between two concurrent rollback requests.
		if err := s.repo.MarkRolledBack(ctx, commit); err != nil {
			return err
		}

		items, err := s.repo.GetCommitItems(ctx, commit.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if _, err := s.repo.AdjustStock(ctx, item.ItemID, commit.UnitID, item.Quantity); err != nil {
				return err
			}
		}

		return s.audit.Append(ctx, "inventory_commit", commit.ID, "rollback", userID, nil, commit)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RollbacksTotal.Inc()
	return commit, nil
}

// ListCommits returns a record's commits, optionally filtered to one unit,
// newest first.
func (s *Service) ListCommits(ctx context.Context, userID string, recordID uuid.UUID, unitID *uuid.UUID) ([]*Commit, error) {
	if _, err := s.requireHospital(ctx, userID, recordID); err != nil {
		return nil, err
	}
	if unitID != nil {
		ok, err := s.gate.HasUnitRole(ctx, userID, *unitID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUnitAccessDenied
		}
	}
	return s.repo.ListCommitsByRecord(ctx, recordID, unitID)
}

// GetCommitItems returns the snapshot lines of a commit.
func (s *Service) GetCommitItems(ctx context.Context, userID string, commitID uuid.UUID) (*Commit, []*CommitItem, error) {
	commit, err := s.repo.GetCommit(ctx, commitID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.requireHospital(ctx, userID, commit.RecordID); err != nil {
		return nil, nil, err
	}
	items, err := s.repo.GetCommitItems(ctx, commitID)
	if err != nil {
		return nil, nil, err
	}
	return commit, items, nil
}

// GetStock returns the stock level for an item in a unit.
func (s *Service) GetStock(ctx context.Context, userID string, itemID, unitID uuid.UUID) (*StockLevel, error) {
	item, err := s.hospitals.GetItem(ctx, itemID)
	if errors.Is(err, hospital.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	ok, err := s.gate.HasHospitalAccess(ctx, userID, item.HospitalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccessDenied
	}
	return s.repo.GetStock(ctx, itemID, unitID)
}
