package handler

import (
	"splitledger/internal/adapter/http/dto"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"
	"splitledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SettlementHandler handles settlement endpoints.
type SettlementHandler struct {
	ledgerSvc ports.LedgerService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(ledgerSvc ports.LedgerService) *SettlementHandler {
	return &SettlementHandler{ledgerSvc: ledgerSvc}
}

// Create handles POST /api/v1/settlements.
func (h *SettlementHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	toUserID, err := uuid.Parse(req.ToUserID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid to_user_id"))
		return
	}
	fromPtr, err := parseUUIDPtr(req.FromUserID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid from_user_id"))
		return
	}
	fromUserID := userID
	if fromPtr != nil {
		fromUserID = *fromPtr
	}
	groupID, err := parseUUIDPtr(req.GroupID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid group_id"))
		return
	}
	settledAt, err := settledAtFromRequest(req.SettledAt)
	if err != nil {
		response.Error(c, apperror.ErrInvalidDate())
		return
	}

	settlement, err := h.ledgerSvc.CreateSettlement(c.Request.Context(), ports.CreateSettlementRequest{
		ActorID:    userID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Amount:     req.Amount,
		SettledAt:  settledAt,
		GroupID:    groupID,
		Note:       req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, settlement)
}

// List handles GET /api/v1/settlements with an optional groupId filter.
func (h *SettlementHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var groupID *uuid.UUID
	if raw := c.Query("groupId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, apperror.Validation("invalid groupId"))
			return
		}
		groupID = &id
	}

	settlements, err := h.ledgerSvc.ListSettlements(c.Request.Context(), userID, groupID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, settlements)
}
