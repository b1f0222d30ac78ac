package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Runner adapts a pool to the transaction-runner shape services depend on,
// so service tests can swap in a passthrough fake.
type Runner struct {
	pool *pgxpool.Pool
}

func NewRunner(pool *pgxpool.Pool) *Runner {
	return &Runner{pool: pool}
}

func (r *Runner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, r.pool, fn)
}
