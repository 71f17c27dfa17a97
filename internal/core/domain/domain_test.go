package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestExpense_ShareFor_Equal(t *testing.T) {
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	e := &Expense{
		Amount:       300,
		PaidBy:       u1,
		SplitType:    SplitTypeEqual,
		SplitBetween: []uuid.UUID{u1, u2, u3},
	}

	assert.InDelta(t, 100, e.ShareFor(u1), 1e-9)
	assert.InDelta(t, 100, e.ShareFor(u2), 1e-9)
	assert.Zero(t, e.ShareFor(uuid.New()), "non-participant owes nothing")

	// Shares sum back to the amount.
	sum := 0.0
	for _, id := range e.SplitBetween {
		sum += e.ShareFor(id)
	}
	assert.InDelta(t, e.Amount, sum, 1e-9)
}

func TestExpense_ShareFor_Unequal(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	e := &Expense{
		Amount:       90,
		PaidBy:       u1,
		SplitType:    SplitTypeUnequal,
		SplitBetween: []uuid.UUID{u1, u2},
		SplitDetails: []SplitDetail{{UserID: u1, Amount: 30}, {UserID: u2, Amount: 60}},
	}

	assert.InDelta(t, 30, e.ShareFor(u1), 1e-9)
	assert.InDelta(t, 60, e.ShareFor(u2), 1e-9)
	assert.Zero(t, e.ShareFor(uuid.New()))
}

func TestExpense_FrontedAmount(t *testing.T) {
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()

	t.Run("equal with payer in split", func(t *testing.T) {
		e := &Expense{Amount: 300, PaidBy: u1, SplitType: SplitTypeEqual, SplitBetween: []uuid.UUID{u1, u2, u3}}
		assert.InDelta(t, 200, e.FrontedAmount(), 1e-9)
	})

	t.Run("equal with payer outside split", func(t *testing.T) {
		e := &Expense{Amount: 300, PaidBy: u1, SplitType: SplitTypeEqual, SplitBetween: []uuid.UUID{u2, u3}}
		assert.InDelta(t, 300, e.FrontedAmount(), 1e-9)
	})

	t.Run("sole payer and sole participant fronts nothing", func(t *testing.T) {
		e := &Expense{Amount: 120, PaidBy: u1, SplitType: SplitTypeEqual, SplitBetween: []uuid.UUID{u1}}
		assert.Zero(t, e.FrontedAmount())
	})

	t.Run("unequal sums other participants' details", func(t *testing.T) {
		e := &Expense{
			Amount: 90, PaidBy: u1, SplitType: SplitTypeUnequal,
			SplitBetween: []uuid.UUID{u1, u2},
			SplitDetails: []SplitDetail{{UserID: u1, Amount: 30}, {UserID: u2, Amount: 60}},
		}
		assert.InDelta(t, 60, e.FrontedAmount(), 1e-9)
	})
}

func TestValidAmount(t *testing.T) {
	assert.True(t, ValidAmount(10))
	assert.True(t, ValidAmount(0.01))
	assert.True(t, ValidAmount(123.45))
	assert.False(t, ValidAmount(0))
	assert.False(t, ValidAmount(-5))
	assert.False(t, ValidAmount(1.005))
	assert.False(t, ValidAmount(10.123))
}

func TestValidShare(t *testing.T) {
	assert.True(t, ValidShare(0))
	assert.True(t, ValidShare(0.01))
	assert.True(t, ValidShare(60))
	assert.False(t, ValidShare(-5))
	assert.False(t, ValidShare(1.005))
}

func TestRound2(t *testing.T) {
	assert.InDelta(t, 33.33, Round2(100.0/3.0), 1e-9)
	assert.InDelta(t, 0.1, Round2(0.1), 1e-9)
}

func TestGroup_HasMember(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	g := &Group{CreatedBy: u1, Members: []uuid.UUID{u1, u2}}

	assert.True(t, g.HasMember(u1))
	assert.True(t, g.HasMember(u2))
	assert.False(t, g.HasMember(uuid.New()))
	assert.True(t, g.HasMembers([]uuid.UUID{u1, u2}))
	assert.False(t, g.HasMembers([]uuid.UUID{u1, uuid.New()}))
}

func TestSettlement_Involves(t *testing.T) {
	from, to := uuid.New(), uuid.New()
	s := &Settlement{FromUserID: from, ToUserID: to}

	assert.True(t, s.Involves(from))
	assert.True(t, s.Involves(to))
	assert.False(t, s.Involves(uuid.New()))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+919876543210", NormalizePhone("+91 98765-43210"))
	assert.Equal(t, "919876543210", NormalizePhone("91 98765 43210"))
	assert.Equal(t, "", NormalizePhone("   "))
}

func TestPhoneLookupKey_MatchesAcrossFormats(t *testing.T) {
	assert.Equal(t, PhoneLookupKey("+91 98765-43210"), PhoneLookupKey("919876543210"))
}

func TestUser_IsInvited(t *testing.T) {
	email := "a@b.c"
	hash := "argon2id$..."
	assert.True(t, (&User{Name: "Invited"}).IsInvited())
	assert.False(t, (&User{Email: &email}).IsInvited())
	assert.False(t, (&User{PasswordHash: &hash}).IsInvited())
}
