package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	GetUsage(ctx context.Context, id uuid.UUID) (*UsageRecord, error)
	GetUsageByItem(ctx context.Context, recordID, itemID uuid.UUID) (*UsageRecord, error)
	ListUsageByRecord(ctx context.Context, recordID uuid.UUID) ([]*UsageRecord, error)
	CreateUsage(ctx context.Context, u *UsageRecord) error
	// UpsertCalculated replaces the calculated quantity for (record, item),
	// creating the row if absent. Override fields are left untouched.
	UpsertCalculated(ctx context.Context, recordID, itemID uuid.UUID, qty decimal.Decimal) (*UsageRecord, error)
	UpdateOverride(ctx context.Context, u *UsageRecord) error

	// ListEffectiveForCommit returns the snapshot a commit applies: effective
	// quantity per item plus the item's controlled flag.
	ListEffectiveForCommit(ctx context.Context, recordID uuid.UUID) ([]*CommitLine, error)

	CreateCommit(ctx context.Context, c *Commit, items []*CommitItem) error
	GetCommit(ctx context.Context, id uuid.UUID) (*Commit, error)
	GetCommitItems(ctx context.Context, commitID uuid.UUID) ([]*CommitItem, error)
	ListCommitsByRecord(ctx context.Context, recordID uuid.UUID, unitID *uuid.UUID) ([]*Commit, error)
	// ActiveCommit returns the active commit for (record, unit), or
	// ErrCommitNotFound when none exists.
	ActiveCommit(ctx context.Context, recordID, unitID uuid.UUID) (*Commit, error)
	MarkRolledBack(ctx context.Context, c *Commit) error

	// AdjustStock applies a signed delta to (item, unit), creating the level
	// at zero first if absent, and returns the resulting quantity on hand.
	AdjustStock(ctx context.Context, itemID, unitID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
	GetStock(ctx context.Context, itemID, unitID uuid.UUID) (*StockLevel, error)
}
