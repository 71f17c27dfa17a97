package handler

import (
	"splitledger/internal/adapter/http/dto"
	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"
	"splitledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler handles expense endpoints.
type ExpenseHandler struct {
	ledgerSvc ports.LedgerService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(ledgerSvc ports.LedgerService) *ExpenseHandler {
	return &ExpenseHandler{ledgerSvc: ledgerSvc}
}

// List handles GET /api/v1/expenses. Returns expenses the caller paid for
// or participates in.
func (h *ExpenseHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	expenses, err := h.ledgerSvc.ListExpenses(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, expenses)
}

// ListByGroup handles GET /api/v1/expenses/group/:groupId.
func (h *ExpenseHandler) ListByGroup(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := pathUUID(c, "groupId")
	if !ok {
		return
	}

	expenses, err := h.ledgerSvc.ListGroupExpenses(c.Request.Context(), groupID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, expenses)
}

// Create handles POST /api/v1/expenses.
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	groupID, err := parseUUIDPtr(req.GroupID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid group_id"))
		return
	}
	paidBy, err := parseUUIDPtr(req.PaidBy)
	if err != nil {
		response.Error(c, apperror.Validation("invalid paid_by"))
		return
	}
	splitBetween, err := parseUUIDs(req.SplitBetween)
	if err != nil {
		response.Error(c, apperror.Validation("invalid split_between"))
		return
	}
	splitDetails, err := toSplitDetails(req.SplitDetails)
	if err != nil {
		response.Error(c, apperror.Validation("invalid split_details"))
		return
	}

	expense, err := h.ledgerSvc.CreateExpense(c.Request.Context(), ports.CreateExpenseRequest{
		ActorID:      userID,
		Title:        req.Title,
		Amount:       req.Amount,
		Date:         req.Date,
		Category:     req.Category,
		ReceiptData:  req.Receipt,
		GroupID:      groupID,
		PaidBy:       paidBy,
		SplitType:    domain.SplitType(req.SplitType),
		SplitBetween: splitBetween,
		SplitDetails: splitDetails,
		InvitedUsers: toInvitedUsers(req.InvitedUsers),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, expense)
}

// Update handles PUT /api/v1/expenses/:id. Only the payer may update.
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	expenseID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	groupID, err := parseUUIDPtr(req.GroupID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid group_id"))
		return
	}
	paidBy, err := parseUUIDPtr(req.PaidBy)
	if err != nil {
		response.Error(c, apperror.Validation("invalid paid_by"))
		return
	}
	splitBetween, err := parseUUIDs(req.SplitBetween)
	if err != nil {
		response.Error(c, apperror.Validation("invalid split_between"))
		return
	}
	splitDetails, err := toSplitDetails(req.SplitDetails)
	if err != nil {
		response.Error(c, apperror.Validation("invalid split_details"))
		return
	}

	var splitType *domain.SplitType
	if req.SplitType != nil {
		st := domain.SplitType(*req.SplitType)
		splitType = &st
	}

	expense, err := h.ledgerSvc.UpdateExpense(c.Request.Context(), expenseID, ports.UpdateExpenseRequest{
		ActorID:      userID,
		Title:        req.Title,
		Amount:       req.Amount,
		Date:         req.Date,
		Category:     req.Category,
		ReceiptData:  req.Receipt,
		GroupID:      groupID,
		PaidBy:       paidBy,
		SplitType:    splitType,
		SplitBetween: splitBetween,
		SplitDetails: splitDetails,
		InvitedUsers: toInvitedUsers(req.InvitedUsers),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, expense)
}

// Delete handles DELETE /api/v1/expenses/:id. Only the payer may delete.
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	expenseID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.ledgerSvc.DeleteExpense(c.Request.Context(), expenseID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"deleted": true})
}
