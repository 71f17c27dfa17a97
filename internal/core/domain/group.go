package domain

import (
	"time"

	"github.com/google/uuid"
)

// Group is a named member set scoping expenses and settlements.
// The creator is always a member.
type Group struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	CreatedBy uuid.UUID   `json:"created_by"`
	Members   []uuid.UUID `json:"members"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// HasMember reports whether userID is in the member set.
func (g *Group) HasMember(userID uuid.UUID) bool {
	for _, id := range g.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// HasMembers reports whether every given user is in the member set.
func (g *Group) HasMembers(userIDs []uuid.UUID) bool {
	for _, id := range userIDs {
		if !g.HasMember(id) {
			return false
		}
	}
	return true
}
