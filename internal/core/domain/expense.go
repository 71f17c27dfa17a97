package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// SplitType is the rule dividing an expense among its participants.
type SplitType string

const (
	SplitTypeEqual   SplitType = "EQUAL"
	SplitTypeUnequal SplitType = "UNEQUAL"
)

// SplitSumTolerance is the absolute tolerance used when comparing the sum of
// unequal split details against the expense amount. Never compare exactly.
const SplitSumTolerance = 0.01

// SplitDetail is one participant's explicit share of an UNEQUAL expense.
type SplitDetail struct {
	UserID uuid.UUID `json:"user_id"`
	Amount float64   `json:"amount"`
}

// Expense is a single ledger entry: one payer fronting an amount that is
// split across a set of participants.
type Expense struct {
	ID           uuid.UUID     `json:"id"`
	Title        string        `json:"title"`
	Amount       float64       `json:"amount"`
	Date         time.Time     `json:"date"`
	Category     string        `json:"category"`
	ReceiptURL   *string       `json:"receipt_url,omitempty"`
	GroupID      *uuid.UUID    `json:"group_id,omitempty"`
	PaidBy       uuid.UUID     `json:"paid_by"`
	SplitType    SplitType     `json:"split_type"`
	SplitBetween []uuid.UUID   `json:"split_between"`
	SplitDetails []SplitDetail `json:"split_details,omitempty"` // UNEQUAL only
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IsParticipant reports whether userID appears in the split.
func (e *Expense) IsParticipant(userID uuid.UUID) bool {
	for _, id := range e.SplitBetween {
		if id == userID {
			return true
		}
	}
	return false
}

// ShareFor returns the amount userID owes on this expense.
// EQUAL splits divide the amount evenly across participants; shares are
// computed on read, never stored. Non-participants owe zero.
func (e *Expense) ShareFor(userID uuid.UUID) float64 {
	if e.SplitType == SplitTypeEqual {
		n := len(e.SplitBetween)
		if n == 0 || !e.IsParticipant(userID) {
			return 0
		}
		return e.Amount / float64(n)
	}
	for _, d := range e.SplitDetails {
		if d.UserID == userID {
			return d.Amount
		}
	}
	return 0
}

// FrontedAmount returns the portion of this expense the payer fronted for
// others: the full amount when the payer is not in the split, otherwise the
// amount minus the payer's own share.
func (e *Expense) FrontedAmount() float64 {
	if e.SplitType == SplitTypeEqual {
		n := len(e.SplitBetween)
		if n == 0 {
			return 0
		}
		if !e.IsParticipant(e.PaidBy) {
			return e.Amount
		}
		return e.Amount / float64(n) * float64(n-1)
	}
	var others float64
	for _, d := range e.SplitDetails {
		if d.UserID != e.PaidBy {
			others += d.Amount
		}
	}
	return others
}

// ValidAmount reports whether f is positive with at most two fractional digits.
func ValidAmount(f float64) bool {
	if !(f > 0) || math.IsInf(f, 0) || math.IsNaN(f) {
		return false
	}
	cents := f * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

// ValidShare reports whether f is a usable per-person share: zero is allowed,
// a participant can owe nothing on an unequal split.
func ValidShare(f float64) bool {
	return f == 0 || ValidAmount(f)
}

// Round2 rounds to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
