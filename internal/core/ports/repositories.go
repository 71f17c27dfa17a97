package ports

import (
	"context"

	"splitledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ExpenseRepository defines persistence operations for expenses.
// Getters return (nil, nil) when the record is absent.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *domain.Expense) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error)
	// ListForUser returns expenses the user paid for or participates in,
	// deduplicated. Result order is unspecified.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Expense, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]domain.Expense, error)
	Update(ctx context.Context, expense *domain.Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByGroup removes all expenses scoped to a group and returns the
	// count. Runs inside the caller's transaction so the group cascade is
	// atomic.
	DeleteByGroup(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) (int64, error)
}

// SettlementRepository defines persistence operations for settlements.
// Settlements are immutable: insert and read only.
type SettlementRepository interface {
	Create(ctx context.Context, settlement *domain.Settlement) error
	// ListForUser returns settlements where the user is source or
	// destination, deduplicated.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Settlement, error)
}

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error)
	// ListForUser returns groups the user created or belongs to.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Group, error)
	Update(ctx context.Context, group *domain.Group) error
	// Delete removes the group row inside the caller's transaction,
	// alongside ExpenseRepository.DeleteByGroup.
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetByEmail looks up by normalized (lowercased, trimmed) email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByMobileKey looks up by digits-only phone key (domain.PhoneLookupKey).
	GetByMobileKey(ctx context.Context, mobileKey string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
