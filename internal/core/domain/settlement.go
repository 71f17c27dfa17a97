package domain

import (
	"time"

	"github.com/google/uuid"
)

// Settlement is a recorded payment between two users that reduces an
// outstanding balance. Settlements are immutable once created.
type Settlement struct {
	ID         uuid.UUID  `json:"id"`
	FromUserID uuid.UUID  `json:"from_user_id"`
	ToUserID   uuid.UUID  `json:"to_user_id"`
	Amount     float64    `json:"amount"`
	SettledAt  time.Time  `json:"settled_at"`
	CreatedAt  time.Time  `json:"created_at"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	GroupID    *uuid.UUID `json:"group_id,omitempty"`
	Note       *string    `json:"note,omitempty"`
}

// Involves reports whether userID is either party of the settlement.
func (s *Settlement) Involves(userID uuid.UUID) bool {
	return s.FromUserID == userID || s.ToUserID == userID
}
