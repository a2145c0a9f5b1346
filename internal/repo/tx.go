package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TxManager runs a function inside a database transaction. Each public store
// operation acquires its own transaction scope through WithTx, so commit or
// rollback is guaranteed on every exit path, including early error returns.
type TxManager interface {
	// WithTx begins a transaction, calls fn with it, and commits if fn
	// returns nil. Any error from fn (or from commit) rolls the
	// transaction back and is returned to the caller.
	WithTx(ctx context.Context, fn func(ctx context.Context, db DB) error) error
}

// pgTxManager is the pgx pool implementation of TxManager.
type pgTxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager constructs a TxManager on top of the given connection pool.
func NewTxManager(pool *pgxpool.Pool) TxManager {
	return &pgTxManager{pool: pool}
}

func (m *pgTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, db DB) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.TxManager.WithTx: begin: %w", err)
	}
	// Rollback after a successful commit is a no-op; deferring it makes the
	// release unconditional on every exit path.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.TxManager.WithTx: commit: %w", err)
	}
	return nil
}
