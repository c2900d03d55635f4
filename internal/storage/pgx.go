package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx operations shared by pools and transactions,
// letting repositories run the same statements in and out of a unit of work.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxManager begins PostgreSQL-backed units of work from a connection pool.
type PgxManager struct {
	pool *pgxpool.Pool
}

// NewPgxManager constructs a PostgreSQL transaction manager.
func NewPgxManager(pool *pgxpool.Pool) *PgxManager {
	return &PgxManager{pool: pool}
}

// Begin opens a database transaction wrapped as a unit of work.
func (m *PgxManager) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &pgxUnitOfWork{tx: tx}, nil
}

type pgxUnitOfWork struct {
	tx pgx.Tx
}

func (u *pgxUnitOfWork) Commit(ctx context.Context) error {
	return u.tx.Commit(ctx)
}

func (u *pgxUnitOfWork) Rollback(ctx context.Context) error {
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// PgxQuerier resolves the querier for an optional unit of work: the enclosed
// transaction when uow is set, otherwise the fallback pool.
func PgxQuerier(uow UnitOfWork, pool *pgxpool.Pool) (Querier, error) {
	if uow == nil {
		return pool, nil
	}
	p, ok := uow.(*pgxUnitOfWork)
	if !ok {
		return nil, fmt.Errorf("unit of work is not postgres-backed: %T", uow)
	}
	return p.tx, nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
