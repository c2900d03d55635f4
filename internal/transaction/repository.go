package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/demo-credit/demo_credit/internal/storage"
)

// Repository persists the append-only transaction log. Rows are never updated
// or deleted.
type Repository interface {
	Append(ctx context.Context, uow storage.UnitOfWork, tx Transaction) (Transaction, error)
	ListByWallet(ctx context.Context, walletID string, page, pageSize int) ([]Transaction, int64, error)
	FindByReference(ctx context.Context, reference string) (Transaction, error)
}

// PostgresRepository stores transactions in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a transaction log backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const txColumns = `id, reference, wallet_id, counterpart_wallet_id, type, category,
	amount, balance_before, balance_after, description, status, created_at, updated_at`

// Append inserts one ledger entry and returns it with generated timestamps.
// A reused reference violates the unique constraint and surfaces as
// storage.ErrDuplicate; the engine does not retry it.
func (r *PostgresRepository) Append(ctx context.Context, uow storage.UnitOfWork, tx Transaction) (Transaction, error) {
	q, err := storage.PgxQuerier(uow, r.db)
	if err != nil {
		return Transaction{}, err
	}
	txID, err := uuid.Parse(tx.ID)
	if err != nil {
		return Transaction{}, err
	}
	walletID, err := uuid.Parse(tx.WalletID)
	if err != nil {
		return Transaction{}, err
	}
	var counterpartID *uuid.UUID
	if tx.CounterpartWalletID != nil {
		parsed, err := uuid.Parse(*tx.CounterpartWalletID)
		if err != nil {
			return Transaction{}, err
		}
		counterpartID = &parsed
	}

	row := q.QueryRow(ctx, `
		INSERT INTO transactions
			(id, reference, wallet_id, counterpart_wallet_id, type, category,
			 amount, balance_before, balance_after, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		txID, tx.Reference, walletID, counterpartID, string(tx.Type), string(tx.Category),
		tx.Amount, tx.BalanceBefore, tx.BalanceAfter, tx.Description, string(tx.Status))

	var createdAt, updatedAt time.Time
	if err := row.Scan(&createdAt, &updatedAt); err != nil {
		if storage.IsUniqueViolation(err) {
			return Transaction{}, storage.ErrDuplicate
		}
		return Transaction{}, err
	}
	tx.CreatedAt = createdAt.UTC()
	tx.UpdatedAt = updatedAt.UTC()
	return tx, nil
}

// ListByWallet returns one page of a wallet's history, newest first, along
// with the total entry count for that wallet.
func (r *PostgresRepository) ListByWallet(ctx context.Context, walletID string, page, pageSize int) ([]Transaction, int64, error) {
	wid, err := uuid.Parse(walletID)
	if err != nil {
		return nil, 0, storage.ErrNotFound
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := r.db.Query(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, wid, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(id) FROM transactions WHERE wallet_id = $1`, wid).Scan(&total); err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// FindByReference looks up a single entry by its unique reference.
func (r *PostgresRepository) FindByReference(ctx context.Context, reference string) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE reference = $1`, reference)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, storage.ErrNotFound
		}
		return Transaction{}, err
	}
	return tx, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		tx            Transaction
		id            uuid.UUID
		walletID      uuid.UUID
		counterpartID *uuid.UUID
		txType        string
		category      string
		status        string
		createdAt     time.Time
		updatedAt     time.Time
	)
	err := row.Scan(&id, &tx.Reference, &walletID, &counterpartID, &txType, &category,
		&tx.Amount, &tx.BalanceBefore, &tx.BalanceAfter, &tx.Description, &status, &createdAt, &updatedAt)
	if err != nil {
		return Transaction{}, err
	}
	tx.ID = id.String()
	tx.WalletID = walletID.String()
	if counterpartID != nil {
		s := counterpartID.String()
		tx.CounterpartWalletID = &s
	}
	tx.Type = Type(txType)
	tx.Category = Category(category)
	tx.Status = Status(status)
	tx.CreatedAt = createdAt.UTC()
	tx.UpdatedAt = updatedAt.UTC()
	return tx, nil
}
