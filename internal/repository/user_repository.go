package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/auth-token-service/internal/domain"
)

// UserRepository defines persistence access for user accounts.
//
// RotateRefreshTokenID is a compare-and-swap: it only overwrites the
// stored refresh token id when the current value still matches
// currentID (case-insensitively), returning pgx.ErrNoRows otherwise.
// That makes the read-check-write of a refresh exchange a single
// serialized operation against the store, preserving the
// one-active-refresh-token-per-user invariant under concurrent
// exchanges.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetRefreshTokenID(ctx context.Context, userID, tokenID string) error
	RotateRefreshTokenID(ctx context.Context, userID, currentID, newID string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, password_hash, roles, refresh_token_id, email_status, registration_status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Roles,
		user.RefreshTokenID,
		user.EmailStatus,
		user.RegistrationStatus,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, email, password_hash, roles, refresh_token_id, email_status, registration_status, created_at, updated_at
        FROM users WHERE id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, password_hash, roles, refresh_token_id, email_status, registration_status, created_at, updated_at
        FROM users WHERE lower(email)=lower($1)`

	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) SetRefreshTokenID(ctx context.Context, userID, tokenID string) error {
	const query = `
        UPDATE users SET refresh_token_id=$1, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, tokenID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) RotateRefreshTokenID(ctx context.Context, userID, currentID, newID string) error {
	const query = `
        UPDATE users SET refresh_token_id=$1, updated_at=NOW()
        WHERE id=$2 AND lower(refresh_token_id)=lower($3)`

	cmd, err := r.pool.Exec(ctx, query, newID, userID, currentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Roles,
		&user.RefreshTokenID,
		&user.EmailStatus,
		&user.RegistrationStatus,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
