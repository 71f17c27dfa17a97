package postgres

import (
	"context"
	"errors"
	"fmt"

	"splitledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, name, email, password_hash, mobile, avatar, push_token, created_at, updated_at`

// Create inserts a new user. The mobile_key column holds the digits-only
// lookup form so differently formatted numbers resolve to one account.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, name, email, password_hash, mobile, mobile_key, avatar, push_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash,
		u.Mobile, nullableKey(u.Mobile), u.Avatar, u.PushToken,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a user by its UUID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, domain.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetByMobileKey fetches a user by its digits-only phone key.
func (r *UserRepo) GetByMobileKey(ctx context.Context, mobileKey string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE mobile_key = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, mobileKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by mobile_key: %w", err)
	}
	return u, nil
}

// Update updates a user record.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users
		SET name=$1, email=$2, password_hash=$3, mobile=$4, mobile_key=$5, avatar=$6, push_token=$7, updated_at=NOW()
		WHERE id=$8`

	_, err := r.pool.Exec(ctx, query,
		u.Name, u.Email, u.PasswordHash,
		u.Mobile, nullableKey(u.Mobile), u.Avatar, u.PushToken,
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Mobile, &u.Avatar, &u.PushToken,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// nullableKey keeps the unique mobile_key index happy: accounts without a
// mobile number store NULL instead of colliding on the empty string.
func nullableKey(mobile string) *string {
	key := domain.PhoneLookupKey(mobile)
	if key == "" {
		return nil
	}
	return &key
}
