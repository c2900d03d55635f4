package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/demo-credit/demo_credit/internal/storage"
)

// Repository persists wallets. The ForUpdate variants take an exclusive row
// lock that is held until the enclosing unit of work completes; they are used
// only by the ledger engine before mutating a balance.
type Repository interface {
	Create(ctx context.Context, uow storage.UnitOfWork, w Wallet) error
	GetByUserID(ctx context.Context, userID string) (Wallet, error)
	GetByID(ctx context.Context, id string) (Wallet, error)
	GetByUserIDForUpdate(ctx context.Context, uow storage.UnitOfWork, userID string) (Wallet, error)
	GetByIDForUpdate(ctx context.Context, uow storage.UnitOfWork, id string) (Wallet, error)
	UpdateBalance(ctx context.Context, uow storage.UnitOfWork, id string, balance decimal.Decimal) error
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const walletColumns = `id, user_id, balance, currency, is_active, created_at, updated_at`

// Create inserts a wallet with a zero balance. A second wallet for the same
// owner violates the unique constraint and surfaces as storage.ErrDuplicate.
func (r *PostgresRepository) Create(ctx context.Context, uow storage.UnitOfWork, w Wallet) error {
	q, err := storage.PgxQuerier(uow, r.db)
	if err != nil {
		return err
	}
	walletID, err := uuid.Parse(w.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(w.UserID)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `INSERT INTO wallets (id, user_id) VALUES ($1, $2)`, walletID, userID)
	if storage.IsUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

// GetByUserID fetches the wallet owned by userID without locking.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (Wallet, error) {
	return r.get(ctx, nil, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
}

// GetByID fetches a wallet by identifier without locking.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Wallet, error) {
	return r.get(ctx, nil, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)
}

// GetByUserIDForUpdate locks and returns the wallet owned by userID.
func (r *PostgresRepository) GetByUserIDForUpdate(ctx context.Context, uow storage.UnitOfWork, userID string) (Wallet, error) {
	return r.get(ctx, uow, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
}

// GetByIDForUpdate locks and returns the wallet with the given id.
func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, uow storage.UnitOfWork, id string) (Wallet, error) {
	return r.get(ctx, uow, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id)
}

// UpdateBalance writes the new balance unconditionally. Callers must hold the
// row lock for the wallet inside the same unit of work.
func (r *PostgresRepository) UpdateBalance(ctx context.Context, uow storage.UnitOfWork, id string, balance decimal.Decimal) error {
	q, err := storage.PgxQuerier(uow, r.db)
	if err != nil {
		return err
	}
	walletID, err := uuid.Parse(id)
	if err != nil {
		return err
	}

	cmd, err := q.Exec(ctx, `UPDATE wallets SET balance = $1, updated_at = now() WHERE id = $2`, balance, walletID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) get(ctx context.Context, uow storage.UnitOfWork, query, arg string) (Wallet, error) {
	q, err := storage.PgxQuerier(uow, r.db)
	if err != nil {
		return Wallet{}, err
	}
	argID, err := uuid.Parse(arg)
	if err != nil {
		return Wallet{}, storage.ErrNotFound
	}

	var (
		w         Wallet
		id        uuid.UUID
		userID    uuid.UUID
		createdAt time.Time
		updatedAt time.Time
	)
	row := q.QueryRow(ctx, query, argID)
	if err := row.Scan(&id, &userID, &w.Balance, &w.Currency, &w.IsActive, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, storage.ErrNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.UserID = userID.String()
	w.CreatedAt = createdAt.UTC()
	w.UpdatedAt = updatedAt.UTC()
	return w, nil
}
