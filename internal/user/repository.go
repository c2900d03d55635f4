package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/demo-credit/demo_credit/internal/storage"
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, uow storage.UnitOfWork, u User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, phone_number, password_hash, is_blacklisted, created_at, updated_at`

// Create inserts a new user. A reused email or phone number surfaces as
// storage.ErrDuplicate.
func (r *PostgresRepository) Create(ctx context.Context, uow storage.UnitOfWork, u User) error {
	q, err := storage.PgxQuerier(uow, r.db)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(u.ID)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO users (id, first_name, last_name, email, phone_number, password_hash, is_blacklisted)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, u.FirstName, u.LastName, u.Email, u.PhoneNumber, u.PasswordHash, u.IsBlacklisted)
	if storage.IsUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, storage.ErrNotFound
	}
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

// FindByEmail fetches a user by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *PostgresRepository) scanOne(row pgx.Row) (User, error) {
	var (
		u         User
		id        uuid.UUID
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&id, &u.FirstName, &u.LastName, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.IsBlacklisted, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, storage.ErrNotFound
		}
		return User{}, err
	}
	u.ID = id.String()
	u.CreatedAt = createdAt.UTC()
	u.UpdatedAt = updatedAt.UTC()
	return u, nil
}
