package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a ledger participant. Invited users are provisioned with only a
// name and mobile number; they gain credentials when they register.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash *string   `json:"-"`
	Mobile       string    `json:"mobile,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	PushToken    *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsInvited reports whether this is a provisional record without credentials.
func (u *User) IsInvited() bool {
	return u.Email == nil && u.PasswordHash == nil
}

// NormalizeEmail lowercases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips everything except digits, keeping a single leading +.
func NormalizePhone(phone string) string {
	cleaned := strings.TrimSpace(phone)
	if cleaned == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range cleaned {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneLookupKey returns the digits-only form used for idempotent mobile
// lookups, so "+91 98765-43210" and "919876543210" match.
func PhoneLookupKey(phone string) string {
	normalized := NormalizePhone(phone)
	return strings.TrimPrefix(normalized, "+")
}
