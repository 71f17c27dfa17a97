package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// acceptedDateLayouts are tried in order when parsing expense dates.
var acceptedDateLayouts = []string{time.RFC3339, "2006-01-02"}

// SplitNormalizerImpl implements ports.SplitNormalizer.
type SplitNormalizerImpl struct {
	users  ports.UserDirectory
	groups ports.MembershipOracle
	log    zerolog.Logger
}

// NewSplitNormalizer creates a new SplitNormalizerImpl.
func NewSplitNormalizer(users ports.UserDirectory, groups ports.MembershipOracle, log zerolog.Logger) *SplitNormalizerImpl {
	return &SplitNormalizerImpl{
		users:  users,
		groups: groups,
		log:    log,
	}
}

// Normalize validates a merged expense candidate and returns a canonical
// expense record. Invited users are provisioned first so their IDs can join
// the split; validation failures after that point leave the provisioned
// users in place, which is acceptable because provisioning is idempotent.
func (s *SplitNormalizerImpl) Normalize(ctx context.Context, actorID uuid.UUID, in ports.ExpenseInput) (*domain.Expense, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.Validation("title is required")
	}
	if !domain.ValidAmount(in.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}

	date, err := parseExpenseDate(in.Date)
	if err != nil {
		return nil, apperror.ErrInvalidDate()
	}

	if in.SplitType != domain.SplitTypeEqual && in.SplitType != domain.SplitTypeUnequal {
		return nil, apperror.Validation("split_type must be EQUAL or UNEQUAL")
	}

	splitBetween := dedupeIDs(in.SplitBetween)

	// Provision invited participants and fold them into the split.
	for _, inv := range in.InvitedUsers {
		invited, err := s.users.ProvisionInvitedUser(ctx, inv.Name, inv.Mobile)
		if err != nil {
			return nil, err
		}
		if !containsID(splitBetween, invited.ID) {
			splitBetween = append(splitBetween, invited.ID)
		}
	}

	if len(splitBetween) == 0 {
		return nil, apperror.ErrEmptySplit()
	}

	splitDetails, err := s.normalizeDetails(in, splitBetween)
	if err != nil {
		return nil, err
	}

	if err := s.checkParticipants(ctx, actorID, in.PaidBy, splitBetween, in.GroupID); err != nil {
		return nil, err
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		return nil, apperror.Validation("category must not be empty")
	}

	return &domain.Expense{
		Title:        title,
		Amount:       in.Amount,
		Date:         date.UTC(),
		Category:     category,
		ReceiptURL:   in.ReceiptURL,
		GroupID:      in.GroupID,
		PaidBy:       in.PaidBy,
		SplitType:    in.SplitType,
		SplitBetween: splitBetween,
		SplitDetails: splitDetails,
	}, nil
}

// normalizeDetails enforces the split-detail invariants. For EQUAL splits any
// submitted details are discarded; shares are derived from the amount.
func (s *SplitNormalizerImpl) normalizeDetails(in ports.ExpenseInput, splitBetween []uuid.UUID) ([]domain.SplitDetail, error) {
	if in.SplitType == domain.SplitTypeEqual {
		return nil, nil
	}

	if len(in.SplitDetails) == 0 {
		return nil, apperror.ErrSplitDetail("UNEQUAL split requires split_details")
	}

	seen := make(map[uuid.UUID]bool, len(in.SplitDetails))
	sum := 0.0
	for _, d := range in.SplitDetails {
		if !containsID(splitBetween, d.UserID) {
			return nil, apperror.ErrSplitDetail(fmt.Sprintf("split detail references non-participant %s", d.UserID))
		}
		if seen[d.UserID] {
			return nil, apperror.ErrSplitDetail(fmt.Sprintf("duplicate split detail for %s", d.UserID))
		}
		seen[d.UserID] = true

		if !domain.ValidShare(d.Amount) {
			return nil, apperror.ErrSplitDetail(fmt.Sprintf("invalid share amount for %s", d.UserID))
		}
		sum += d.Amount
	}

	for _, id := range splitBetween {
		if !seen[id] {
			return nil, apperror.ErrSplitDetail(fmt.Sprintf("missing split detail for participant %s", id))
		}
	}

	if math.Abs(sum-in.Amount) > domain.SplitSumTolerance {
		return nil, apperror.ErrSplitSumMismatch()
	}

	details := make([]domain.SplitDetail, len(in.SplitDetails))
	copy(details, in.SplitDetails)
	return details, nil
}

// checkParticipants verifies membership for group expenses, or plain user
// existence for personal ones. Group membership is checked against a single
// snapshot so one answer covers actor, payer and participants.
func (s *SplitNormalizerImpl) checkParticipants(ctx context.Context, actorID, paidBy uuid.UUID, splitBetween []uuid.UUID, groupID *uuid.UUID) error {
	if groupID != nil {
		grp, err := s.groups.GetGroup(ctx, *groupID)
		if err != nil {
			return err
		}
		if grp == nil {
			return apperror.ErrNotFound("group")
		}
		if !grp.HasMember(actorID) {
			return apperror.ErrNotGroupMember()
		}
		if !grp.HasMember(paidBy) {
			return apperror.ErrPayerNotMember()
		}
		if !grp.HasMembers(splitBetween) {
			return apperror.ErrParticipantsNotMembers()
		}
		return nil
	}

	// Personal expense: payer and every participant must exist.
	if err := s.requireUser(ctx, paidBy); err != nil {
		return err
	}
	for _, id := range splitBetween {
		if id == paidBy {
			continue
		}
		if err := s.requireUser(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *SplitNormalizerImpl) requireUser(ctx context.Context, id uuid.UUID) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return apperror.ErrUserNotFound(id.String())
	}
	return nil
}

// parseExpenseDate accepts RFC3339 timestamps and bare ISO dates.
func parseExpenseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !containsID(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
