package postgres

import (
	"context"
	"errors"
	"fmt"

	"splitledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GroupRepo implements ports.GroupRepository.
type GroupRepo struct {
	pool Pool
}

// NewGroupRepo creates a new GroupRepo.
func NewGroupRepo(pool Pool) *GroupRepo {
	return &GroupRepo{pool: pool}
}

// Create inserts a new group.
func (r *GroupRepo) Create(ctx context.Context, g *domain.Group) error {
	query := `INSERT INTO groups (id, name, created_by, members, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		g.ID, g.Name, g.CreatedBy, g.Members, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

// GetByID fetches a group by its UUID.
func (r *GroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	query := `SELECT id, name, created_by, members, created_at, updated_at
		FROM groups WHERE id = $1`

	g := &domain.Group{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.CreatedBy, &g.Members, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get group by id: %w", err)
	}
	return g, nil
}

// ListForUser returns groups the user created or belongs to, newest first.
func (r *GroupRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Group, error) {
	query := `SELECT id, name, created_by, members, created_at, updated_at
		FROM groups WHERE created_by = $1 OR $1 = ANY(members)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups for user: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.Members, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return groups, nil
}

// Update updates a group record.
func (r *GroupRepo) Update(ctx context.Context, g *domain.Group) error {
	query := `UPDATE groups SET name=$1, members=$2, updated_at=NOW() WHERE id=$3`

	_, err := r.pool.Exec(ctx, query, g.Name, g.Members, g.ID)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

// Delete removes the group row inside the caller's transaction so the
// expense cascade and the group removal commit together.
func (r *GroupRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}
