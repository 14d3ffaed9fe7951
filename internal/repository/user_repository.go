package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/auth-service/internal/domain"
)

var (
	// ErrDuplicateEmail is returned when the users.email unique constraint
	// rejects an insert. Uniqueness lives in the database, never in an
	// application pre-check, so concurrent signups race safely.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
)

// DB is the subset of pgxpool.Pool the repositories need. pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type userRepository struct {
	db DB
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO users (fullname, email, password_hash, role)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		account.FullName,
		account.Email,
		account.PasswordHash,
		account.Role,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `
        SELECT id, fullname, email, password_hash, role, created_at
        FROM users WHERE email=$1`

	var account domain.Account
	if err := r.db.QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&account.ID,
		&account.FullName,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}
