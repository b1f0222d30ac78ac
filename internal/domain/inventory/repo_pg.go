package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/drmauij/viali/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const usageCols = `id, record_id, item_id, calculated_qty, override_qty,
	override_reason, overridden_by, overridden_at, created_at, updated_at`

func scanUsage(row pgx.Row) (*UsageRecord, error) {
	var u UsageRecord
	err := row.Scan(&u.ID, &u.RecordID, &u.ItemID, &u.CalculatedQty, &u.OverrideQty,
		&u.OverrideReason, &u.OverriddenBy, &u.OverriddenAt, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (r *repoPG) GetUsage(ctx context.Context, id uuid.UUID) (*UsageRecord, error) {
	u, err := scanUsage(r.conn(ctx).QueryRow(ctx,
		`SELECT `+usageCols+` FROM inventory_usage WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUsageNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repoPG) GetUsageByItem(ctx context.Context, recordID, itemID uuid.UUID) (*UsageRecord, error) {
	u, err := scanUsage(r.conn(ctx).QueryRow(ctx,
		`SELECT `+usageCols+` FROM inventory_usage WHERE record_id = $1 AND item_id = $2`,
		recordID, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUsageNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repoPG) ListUsageByRecord(ctx context.Context, recordID uuid.UUID) ([]*UsageRecord, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+usageCols+` FROM inventory_usage WHERE record_id = $1 ORDER BY created_at`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usages []*UsageRecord
	for rows.Next() {
		u, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		usages = append(usages, u)
	}
	return usages, rows.Err()
}

func (r *repoPG) CreateUsage(ctx context.Context, u *UsageRecord) error {
	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO inventory_usage (id, record_id, item_id, calculated_qty, override_qty,
			override_reason, overridden_by, overridden_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.RecordID, u.ItemID, u.CalculatedQty, u.OverrideQty,
		u.OverrideReason, u.OverriddenBy, u.OverriddenAt, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *repoPG) UpsertCalculated(ctx context.Context, recordID, itemID uuid.UUID, qty decimal.Decimal) (*UsageRecord, error) {
	u, err := scanUsage(r.conn(ctx).QueryRow(ctx, `
		INSERT INTO inventory_usage (id, record_id, item_id, calculated_qty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (record_id, item_id)
		DO UPDATE SET calculated_qty = EXCLUDED.calculated_qty, updated_at = NOW()
		RETURNING `+usageCols, uuid.New(), recordID, itemID, qty))
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repoPG) UpdateOverride(ctx context.Context, u *UsageRecord) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE inventory_usage
		SET override_qty = $2, override_reason = $3, overridden_by = $4, overridden_at = $5,
			updated_at = NOW()
		WHERE id = $1`,
		u.ID, u.OverrideQty, u.OverrideReason, u.OverriddenBy, u.OverriddenAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUsageNotFound
	}
	return nil
}

func (r *repoPG) ListEffectiveForCommit(ctx context.Context, recordID uuid.UUID) ([]*CommitLine, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT u.item_id, COALESCE(u.override_qty, u.calculated_qty), i.controlled
		FROM inventory_usage u
		JOIN item i ON i.id = u.item_id
		WHERE u.record_id = $1
		ORDER BY u.created_at`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*CommitLine
	for rows.Next() {
		var l CommitLine
		if err := rows.Scan(&l.ItemID, &l.Quantity, &l.Controlled); err != nil {
			return nil, err
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

const commitCols = `id, record_id, unit_id, committed_by, signature, committed_at,
	rolled_back_at, rolled_back_by, rollback_reason`

func scanCommit(row pgx.Row) (*Commit, error) {
	var c Commit
	err := row.Scan(&c.ID, &c.RecordID, &c.UnitID, &c.CommittedBy, &c.Signature, &c.CommittedAt,
		&c.RolledBackAt, &c.RolledBackBy, &c.RollbackReason)
	return &c, err
}

func (r *repoPG) CreateCommit(ctx context.Context, c *Commit, items []*CommitItem) error {
	c.ID = uuid.New()
	c.CommittedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO inventory_commit (id, record_id, unit_id, committed_by, signature, committed_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.RecordID, c.UnitID, c.CommittedBy, c.Signature, c.CommittedAt)
	if err != nil {
		return err
	}
	for _, item := range items {
		item.CommitID = c.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO inventory_commit_item (commit_id, item_id, quantity)
			VALUES ($1, $2, $3)`,
			item.CommitID, item.ItemID, item.Quantity)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetCommit(ctx context.Context, id uuid.UUID) (*Commit, error) {
	c, err := scanCommit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+commitCols+` FROM inventory_commit WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCommitNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repoPG) GetCommitItems(ctx context.Context, commitID uuid.UUID) ([]*CommitItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT commit_id, item_id, quantity
		FROM inventory_commit_item WHERE commit_id = $1`, commitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*CommitItem
	for rows.Next() {
		var i CommitItem
		if err := rows.Scan(&i.CommitID, &i.ItemID, &i.Quantity); err != nil {
			return nil, err
		}
		items = append(items, &i)
	}
	return items, rows.Err()
}

func (r *repoPG) ListCommitsByRecord(ctx context.Context, recordID uuid.UUID, unitID *uuid.UUID) ([]*Commit, error) {
	query := `SELECT ` + commitCols + ` FROM inventory_commit WHERE record_id = $1`
	args := []interface{}{recordID}
	if unitID != nil {
		query += ` AND unit_id = $2`
		args = append(args, *unitID)
	}
	query += ` ORDER BY committed_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commits []*Commit
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

func (r *repoPG) ActiveCommit(ctx context.Context, recordID, unitID uuid.UUID) (*Commit, error) {
	c, err := scanCommit(r.conn(ctx).QueryRow(ctx, `
		SELECT `+commitCols+` FROM inventory_commit
		WHERE record_id = $1 AND unit_id = $2 AND rolled_back_at IS NULL
		ORDER BY committed_at DESC LIMIT 1`, recordID, unitID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCommitNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repoPG) MarkRolledBack(ctx context.Context, c *Commit) error {
	// The rolled_back_at IS NULL guard makes the terminal transition
	// single-shot even under concurrent rollback attempts.
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE inventory_commit
		SET rolled_back_at = $2, rolled_back_by = $3, rollback_reason = $4
		WHERE id = $1 AND rolled_back_at IS NULL`,
		c.ID, c.RolledBackAt, c.RolledBackBy, c.RollbackReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyRolledBack
	}
	return nil
}

func (r *repoPG) AdjustStock(ctx context.Context, itemID, unitID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO stock_level (item_id, unit_id, qty_on_hand, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (item_id, unit_id)
		DO UPDATE SET qty_on_hand = stock_level.qty_on_hand + EXCLUDED.qty_on_hand, updated_at = NOW()
		RETURNING qty_on_hand`,
		itemID, unitID, delta).Scan(&qty)
	if err != nil {
		return decimal.Zero, err
	}
	return qty, nil
}

func (r *repoPG) GetStock(ctx context.Context, itemID, unitID uuid.UUID) (*StockLevel, error) {
	var s StockLevel
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT item_id, unit_id, qty_on_hand, updated_at
		FROM stock_level WHERE item_id = $1 AND unit_id = $2`, itemID, unitID).
		Scan(&s.ItemID, &s.UnitID, &s.QtyOnHand, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
