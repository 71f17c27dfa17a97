package service

import (
	"context"
	"fmt"
	"time"

	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Group labels used when an expense has no group or the group row is gone.
const (
	personalGroupLabel = "Personal"
	unnamedGroupLabel  = "Unnamed Group"
)

// AnalyticsServiceImpl implements ports.AnalyticsService.
type AnalyticsServiceImpl struct {
	expenseRepo    ports.ExpenseRepository
	settlementRepo ports.SettlementRepository
	groupRepo      ports.GroupRepository
	log            zerolog.Logger
}

// NewAnalyticsService creates a new AnalyticsServiceImpl.
func NewAnalyticsService(
	expenseRepo ports.ExpenseRepository,
	settlementRepo ports.SettlementRepository,
	groupRepo ports.GroupRepository,
	log zerolog.Logger,
) *AnalyticsServiceImpl {
	return &AnalyticsServiceImpl{
		expenseRepo:    expenseRepo,
		settlementRepo: settlementRepo,
		groupRepo:      groupRepo,
		log:            log,
	}
}

// Summary folds the user's visible expenses and settlements into a balance
// summary. A group filter restricts the fold to that group and requires
// membership before anything is computed.
func (s *AnalyticsServiceImpl) Summary(ctx context.Context, userID uuid.UUID, opts ports.AnalyticsOptions) (*ports.BalanceSummary, error) {
	var expenses []domain.Expense
	var err error

	if opts.GroupID != nil {
		grp, gerr := s.groupRepo.GetByID(ctx, *opts.GroupID)
		if gerr != nil {
			return nil, apperror.InternalError(fmt.Errorf("get group: %w", gerr))
		}
		if grp == nil {
			return nil, apperror.ErrNotFound("group")
		}
		if !grp.HasMember(userID) {
			return nil, apperror.ErrNotGroupMember()
		}
		expenses, err = s.expenseRepo.ListByGroup(ctx, *opts.GroupID)
	} else {
		expenses, err = s.expenseRepo.ListForUser(ctx, userID)
	}
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list expenses: %w", err))
	}

	cutoff := windowCutoff(opts.Window, time.Now().UTC())

	summary := &ports.BalanceSummary{
		CategoryTotals: map[string]float64{},
		GroupTotals:    map[string]float64{},
		DailyTotals:    map[string]float64{},
		MonthlyTotals:  map[string]float64{},
	}

	groupNames := map[uuid.UUID]string{}

	for i := range expenses {
		e := &expenses[i]
		if !cutoff.IsZero() && e.Date.Before(cutoff) {
			continue
		}
		// The group listing returns every group expense; only the ones the
		// viewer paid or shares in belong in their summary.
		if e.PaidBy != userID && !e.IsParticipant(userID) {
			continue
		}

		summary.TransactionCount++

		if e.PaidBy == userID {
			summary.TotalSpent += e.Amount
			summary.OwesYou += e.FrontedAmount()
		} else if e.IsParticipant(userID) {
			summary.YouOwe += e.ShareFor(userID)
		}

		summary.CategoryTotals[e.Category] += e.Amount
		summary.GroupTotals[s.groupLabel(ctx, groupNames, e.GroupID)] += e.Amount
		summary.DailyTotals[e.Date.Format("2006-01-02")] += e.Amount
		summary.MonthlyTotals[e.Date.Format("2006-01")] += e.Amount
	}

	settlements, err := s.settlementRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list settlements: %w", err))
	}

	for i := range settlements {
		st := &settlements[i]
		if opts.GroupID != nil && (st.GroupID == nil || *st.GroupID != *opts.GroupID) {
			continue
		}
		if !cutoff.IsZero() && st.SettledAt.Before(cutoff) {
			continue
		}

		if st.FromUserID == userID {
			summary.SettlementTotals.Paid += st.Amount
			summary.YouOwe -= st.Amount
		} else {
			summary.SettlementTotals.Received += st.Amount
			summary.OwesYou -= st.Amount
		}
	}

	// Settlements can overshoot the open balance; the position floors at 0.
	if summary.YouOwe < 0 {
		summary.YouOwe = 0
	}
	if summary.OwesYou < 0 {
		summary.OwesYou = 0
	}

	summary.YouOwe = domain.Round2(summary.YouOwe)
	summary.OwesYou = domain.Round2(summary.OwesYou)
	summary.TotalSpent = domain.Round2(summary.TotalSpent)
	summary.SettlementTotals.Paid = domain.Round2(summary.SettlementTotals.Paid)
	summary.SettlementTotals.Received = domain.Round2(summary.SettlementTotals.Received)
	summary.SettlementTotals.Net = domain.Round2(summary.SettlementTotals.Received - summary.SettlementTotals.Paid)

	for k, v := range summary.CategoryTotals {
		summary.CategoryTotals[k] = domain.Round2(v)
	}
	for k, v := range summary.GroupTotals {
		summary.GroupTotals[k] = domain.Round2(v)
	}
	for k, v := range summary.DailyTotals {
		summary.DailyTotals[k] = domain.Round2(v)
	}
	for k, v := range summary.MonthlyTotals {
		summary.MonthlyTotals[k] = domain.Round2(v)
	}

	return summary, nil
}

// groupLabel resolves the display label for a group total, memoizing lookups
// across one summary computation.
func (s *AnalyticsServiceImpl) groupLabel(ctx context.Context, cache map[uuid.UUID]string, groupID *uuid.UUID) string {
	if groupID == nil {
		return personalGroupLabel
	}
	if name, ok := cache[*groupID]; ok {
		return name
	}

	name := unnamedGroupLabel
	grp, err := s.groupRepo.GetByID(ctx, *groupID)
	if err != nil {
		s.log.Warn().Err(err).Str("group_id", groupID.String()).Msg("group lookup failed during analytics")
	} else if grp != nil && grp.Name != "" {
		name = grp.Name
	}

	cache[*groupID] = name
	return name
}

// windowCutoff maps a time window to its inclusive lower bound. The zero
// time means no bound.
func windowCutoff(w ports.TimeWindow, now time.Time) time.Time {
	switch w {
	case ports.Window30D:
		return now.AddDate(0, 0, -30)
	case ports.Window90D:
		return now.AddDate(0, 0, -90)
	default:
		return time.Time{}
	}
}
