package handler

import (
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"
	"splitledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AnalyticsHandler handles balance and analytics endpoints.
type AnalyticsHandler struct {
	analyticsSvc ports.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsSvc ports.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc}
}

// Summary handles GET /api/v1/analytics/summary?groupId=&window=30D|90D|ALL.
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	window, ok := windowFromQuery(c)
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

	summary, err := h.analyticsSvc.Summary(c.Request.Context(), userID, ports.AnalyticsOptions{
		GroupID: groupID,
		Window:  window,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, summary)
}
