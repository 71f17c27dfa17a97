package handler

import (
	"splitledger/internal/adapter/http/dto"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"
	"splitledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// GroupHandler handles group endpoints.
type GroupHandler struct {
	groupSvc ports.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupSvc ports.GroupService) *GroupHandler {
	return &GroupHandler{groupSvc: groupSvc}
}

// List handles GET /api/v1/groups.
func (h *GroupHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	groups, err := h.groupSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, groups)
}

// Create handles POST /api/v1/groups.
func (h *GroupHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	members, err := parseUUIDs(req.Members)
	if err != nil {
		response.Error(c, apperror.Validation("invalid members"))
		return
	}

	group, err := h.groupSvc.Create(c.Request.Context(), ports.CreateGroupRequest{
		ActorID:      userID,
		Name:         req.Name,
		Members:      members,
		InvitedUsers: toInvitedUsers(req.InvitedUsers),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, group)
}

// Update handles PUT /api/v1/groups/:id. Creator-only;
// members are append-only.
func (h *GroupHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	addMembers, err := parseUUIDs(req.AddMembers)
	if err != nil {
		response.Error(c, apperror.Validation("invalid add_members"))
		return
	}

	group, err := h.groupSvc.Update(c.Request.Context(), groupID, ports.UpdateGroupRequest{
		ActorID:      userID,
		Name:         req.Name,
		AddMembers:   addMembers,
		InvitedUsers: toInvitedUsers(req.InvitedUsers),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, group)
}

// Delete handles DELETE /api/v1/groups/:id. Creator-only; cascades the
// group's expenses and reports the deleted count.
func (h *GroupHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.groupSvc.Delete(c.Request.Context(), groupID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}
