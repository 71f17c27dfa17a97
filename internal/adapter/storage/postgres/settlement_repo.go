package postgres

import (
	"context"
	"fmt"

	"splitledger/internal/core/domain"

	"github.com/google/uuid"
)

// SettlementRepo implements ports.SettlementRepository. Settlements are
// immutable, so only insert and read exist.
type SettlementRepo struct {
	pool Pool
}

// NewSettlementRepo creates a new SettlementRepo.
func NewSettlementRepo(pool Pool) *SettlementRepo {
	return &SettlementRepo{pool: pool}
}

// Create inserts a new settlement.
func (r *SettlementRepo) Create(ctx context.Context, s *domain.Settlement) error {
	query := `INSERT INTO settlements (id, from_user_id, to_user_id, amount, settled_at, created_at, created_by, group_id, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.FromUserID, s.ToUserID, s.Amount,
		s.SettledAt, s.CreatedAt, s.CreatedBy, s.GroupID, s.Note,
	)
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

// ListForUser returns settlements where the user is either party, newest
// first by settlement date.
func (r *SettlementRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Settlement, error) {
	query := `SELECT id, from_user_id, to_user_id, amount, settled_at, created_at, created_by, group_id, note
		FROM settlements
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY settled_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list settlements for user: %w", err)
	}
	defer rows.Close()

	var settlements []domain.Settlement
	for rows.Next() {
		var s domain.Settlement
		err := rows.Scan(
			&s.ID, &s.FromUserID, &s.ToUserID, &s.Amount,
			&s.SettledAt, &s.CreatedAt, &s.CreatedBy, &s.GroupID, &s.Note,
		)
		if err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlements: %w", err)
	}
	return settlements, nil
}
