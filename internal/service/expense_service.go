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

// notifyTimeout bounds the background push delivery per recipient.
const notifyTimeout = 10 * time.Second

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	expenseRepo    ports.ExpenseRepository
	settlementRepo ports.SettlementRepository
	normalizer     ports.SplitNormalizer
	groups         ports.MembershipOracle
	users          ports.UserDirectory
	receipts       ports.ReceiptService
	notifier       ports.NotificationSink
	log            zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	expenseRepo ports.ExpenseRepository,
	settlementRepo ports.SettlementRepository,
	normalizer ports.SplitNormalizer,
	groups ports.MembershipOracle,
	users ports.UserDirectory,
	receipts ports.ReceiptService,
	notifier ports.NotificationSink,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		expenseRepo:    expenseRepo,
		settlementRepo: settlementRepo,
		normalizer:     normalizer,
		groups:         groups,
		users:          users,
		receipts:       receipts,
		notifier:       notifier,
		log:            log,
	}
}

// ListExpenses returns every expense the user paid for or participates in.
func (s *LedgerServiceImpl) ListExpenses(ctx context.Context, userID uuid.UUID) ([]domain.Expense, error) {
	expenses, err := s.expenseRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list expenses: %w", err))
	}
	return expenses, nil
}

// ListGroupExpenses returns a group's expenses, visible to members only.
func (s *LedgerServiceImpl) ListGroupExpenses(ctx context.Context, groupID, userID uuid.UUID) ([]domain.Expense, error) {
	grp, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if grp == nil {
		return nil, apperror.ErrNotFound("group")
	}
	if !grp.HasMember(userID) {
		return nil, apperror.ErrNotGroupMember()
	}

	expenses, err := s.expenseRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list group expenses: %w", err))
	}
	return expenses, nil
}

// CreateExpense normalizes, stores and fans out a new expense.
func (s *LedgerServiceImpl) CreateExpense(ctx context.Context, req ports.CreateExpenseRequest) (*domain.Expense, error) {
	paidBy := req.ActorID
	if req.PaidBy != nil {
		paidBy = *req.PaidBy
	}

	expense, err := s.normalizer.Normalize(ctx, req.ActorID, ports.ExpenseInput{
		Title:        req.Title,
		Amount:       req.Amount,
		Date:         req.Date,
		Category:     req.Category,
		GroupID:      req.GroupID,
		PaidBy:       paidBy,
		SplitType:    req.SplitType,
		SplitBetween: req.SplitBetween,
		SplitDetails: req.SplitDetails,
		InvitedUsers: req.InvitedUsers,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expense.ID = uuid.New()
	expense.CreatedAt = now
	expense.UpdatedAt = now

	if req.ReceiptData != nil {
		url, err := s.receipts.StoreReceipt(ctx, expense.ID, req.ActorID, *req.ReceiptData)
		if err != nil {
			return nil, err
		}
		expense.ReceiptURL = url
	}

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create expense: %w", err))
	}

	s.log.Info().
		Str("expense_id", expense.ID.String()).
		Str("paid_by", expense.PaidBy.String()).
		Float64("amount", expense.Amount).
		Str("split_type", string(expense.SplitType)).
		Msg("expense created")

	s.fanOutExpense(ctx, expense, req.ActorID)

	return expense, nil
}

// UpdateExpense merges a tagged partial update into the stored expense and
// re-normalizes the result. Only the payer may update.
func (s *LedgerServiceImpl) UpdateExpense(ctx context.Context, id uuid.UUID, req ports.UpdateExpenseRequest) (*domain.Expense, error) {
	existing, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get expense: %w", err))
	}
	if existing == nil {
		return nil, apperror.ErrNotFound("expense")
	}
	if existing.PaidBy != req.ActorID {
		return nil, apperror.ErrNotPayer("update")
	}

	in := ports.ExpenseInput{
		Title:        existing.Title,
		Amount:       existing.Amount,
		Date:         existing.Date.Format(time.RFC3339),
		Category:     existing.Category,
		ReceiptURL:   existing.ReceiptURL,
		GroupID:      existing.GroupID,
		PaidBy:       existing.PaidBy,
		SplitType:    existing.SplitType,
		SplitBetween: existing.SplitBetween,
		SplitDetails: existing.SplitDetails,
		InvitedUsers: req.InvitedUsers,
	}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Amount != nil {
		in.Amount = *req.Amount
	}
	if req.Date != nil {
		in.Date = *req.Date
	}
	if req.Category != nil {
		in.Category = *req.Category
	}
	if req.GroupID != nil {
		in.GroupID = req.GroupID
	}
	if req.PaidBy != nil {
		in.PaidBy = *req.PaidBy
	}
	if req.SplitType != nil {
		in.SplitType = *req.SplitType
	}
	if req.SplitBetween != nil {
		in.SplitBetween = req.SplitBetween
	}
	if req.SplitDetails != nil {
		in.SplitDetails = req.SplitDetails
	}

	updated, err := s.normalizer.Normalize(ctx, req.ActorID, in)
	if err != nil {
		return nil, err
	}

	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if req.ReceiptData != nil {
		url, err := s.receipts.StoreReceipt(ctx, updated.ID, req.ActorID, *req.ReceiptData)
		if err != nil {
			return nil, err
		}
		updated.ReceiptURL = url
	}

	if err := s.expenseRepo.Update(ctx, updated); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update expense: %w", err))
	}

	s.log.Info().Str("expense_id", updated.ID.String()).Msg("expense updated")

	return updated, nil
}

// DeleteExpense removes an expense. Only the payer may delete.
func (s *LedgerServiceImpl) DeleteExpense(ctx context.Context, id, actorID uuid.UUID) error {
	existing, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get expense: %w", err))
	}
	if existing == nil {
		return apperror.ErrNotFound("expense")
	}
	if existing.PaidBy != actorID {
		return apperror.ErrNotPayer("delete")
	}

	if err := s.expenseRepo.Delete(ctx, id); err != nil {
		return apperror.InternalError(fmt.Errorf("delete expense: %w", err))
	}

	s.log.Info().Str("expense_id", id.String()).Msg("expense deleted")
	return nil
}

// CreateSettlement records an immutable settlement between two users.
// Personal settlements may only be recorded by one of the two parties;
// group-scoped settlements may be recorded by any member of the group,
// as long as both parties are members too.
func (s *LedgerServiceImpl) CreateSettlement(ctx context.Context, req ports.CreateSettlementRequest) (*domain.Settlement, error) {
	if req.FromUserID == req.ToUserID {
		return nil, apperror.ErrSelfSettlement()
	}
	if !domain.ValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}

	for _, id := range []uuid.UUID{req.FromUserID, req.ToUserID} {
		u, err := s.users.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, apperror.ErrUserNotFound(id.String())
		}
	}

	if req.GroupID != nil {
		grp, err := s.groups.GetGroup(ctx, *req.GroupID)
		if err != nil {
			return nil, err
		}
		if grp == nil {
			return nil, apperror.ErrNotFound("group")
		}
		if !grp.HasMember(req.ActorID) {
			return nil, apperror.ErrNotGroupMember()
		}
		if !grp.HasMember(req.FromUserID) || !grp.HasMember(req.ToUserID) {
			return nil, apperror.ErrSettlementUsersNotMembers()
		}
	} else if req.ActorID != req.FromUserID && req.ActorID != req.ToUserID {
		return nil, apperror.ErrNotSettlementParticipant()
	}

	now := time.Now().UTC()
	settledAt := now
	if req.SettledAt != nil {
		settledAt = req.SettledAt.UTC()
	}

	settlement := &domain.Settlement{
		ID:         uuid.New(),
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Amount:     req.Amount,
		SettledAt:  settledAt,
		CreatedAt:  now,
		CreatedBy:  req.ActorID,
		GroupID:    req.GroupID,
		Note:       req.Note,
	}

	if err := s.settlementRepo.Create(ctx, settlement); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create settlement: %w", err))
	}

	s.log.Info().
		Str("settlement_id", settlement.ID.String()).
		Str("from", settlement.FromUserID.String()).
		Str("to", settlement.ToUserID.String()).
		Float64("amount", settlement.Amount).
		Msg("settlement recorded")

	// The counterparty gets a push; the actor already knows.
	counterparty := settlement.ToUserID
	if req.ActorID == settlement.ToUserID {
		counterparty = settlement.FromUserID
	}
	s.notifyUser(ctx, counterparty, "Settlement recorded",
		fmt.Sprintf("A settlement of %.2f involving you was recorded", settlement.Amount),
		map[string]string{"type": "settlement", "settlement_id": settlement.ID.String()})

	return settlement, nil
}

// ListSettlements returns settlements involving the user, optionally scoped
// to a group the user belongs to.
func (s *LedgerServiceImpl) ListSettlements(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) ([]domain.Settlement, error) {
	if groupID != nil {
		grp, err := s.groups.GetGroup(ctx, *groupID)
		if err != nil {
			return nil, err
		}
		if grp == nil {
			return nil, apperror.ErrNotFound("group")
		}
		if !grp.HasMember(userID) {
			return nil, apperror.ErrNotGroupMember()
		}
	}

	settlements, err := s.settlementRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list settlements: %w", err))
	}

	if groupID == nil {
		return settlements, nil
	}

	filtered := make([]domain.Settlement, 0, len(settlements))
	for _, st := range settlements {
		if st.GroupID != nil && *st.GroupID == *groupID {
			filtered = append(filtered, st)
		}
	}
	return filtered, nil
}

// fanOutExpense pushes "added you to an expense" notifications to every
// participant except the actor. Each recipient sees their own share.
// Best effort, never fails the request.
func (s *LedgerServiceImpl) fanOutExpense(ctx context.Context, expense *domain.Expense, actorID uuid.UUID) {
	data := map[string]string{"type": "expense", "expense_id": expense.ID.String()}
	for _, id := range expense.SplitBetween {
		if id == actorID {
			continue
		}
		body := fmt.Sprintf("%s (%.2f). Pay %.2f.", expense.Title, expense.Amount, expense.ShareFor(id))
		s.notifyUser(ctx, id, "New shared expense", body, data)
	}
}

// notifyUser looks up the recipient's push token and delivers in the
// background. Users without a token are skipped silently.
func (s *LedgerServiceImpl) notifyUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user == nil || user.PushToken == nil || *user.PushToken == "" {
		return
	}

	token := *user.PushToken
	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(nctx, token, title, body, data); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("push notification failed")
		}
	}()
}
