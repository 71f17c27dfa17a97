package handler

import (
	"splitledger/internal/adapter/http/dto"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"
	"splitledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler handles profile endpoints.
type UserHandler struct {
	userSvc ports.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userSvc ports.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// Me handles GET /api/v1/users/me.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.FindByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if user == nil {
		response.Error(c, apperror.ErrUserNotFound(userID.String()))
		return
	}

	response.OK(c, toUserResponse(user))
}

// UpdateMe handles PUT /api/v1/users/me.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	user, err := h.userSvc.UpdateProfile(c.Request.Context(), userID, ports.UpdateUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Mobile:   req.Mobile,
		Avatar:   req.Avatar,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toUserResponse(user))
}

// SetPushToken handles PUT /api/v1/users/me/push-token. An empty token
// clears the stored one.
func (h *UserHandler) SetPushToken(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	user, err := h.userSvc.SetPushToken(c.Request.Context(), userID, req.PushToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toUserResponse(user))
}

// Lookup handles GET /api/v1/users?mobile=. Used when adding participants
// by phone number.
func (h *UserHandler) Lookup(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	mobile := c.Query("mobile")
	if mobile == "" {
		response.Error(c, apperror.Validation("mobile query parameter is required"))
		return
	}

	user, err := h.userSvc.FindByMobile(c.Request.Context(), mobile)
	if err != nil {
		response.Error(c, err)
		return
	}
	if user == nil {
		response.Error(c, apperror.ErrNotFound("User"))
		return
	}

	response.OK(c, toUserResponse(user))
}
