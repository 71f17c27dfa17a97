package handler

import (
	"time"

	"splitledger/internal/adapter/http/dto"
	"splitledger/internal/adapter/http/middleware"
	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"
	"splitledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUserID pulls the authenticated user's UUID set by JWTAuth.
// Returns false after writing the error response when the context is bare,
// which only happens on middleware misconfiguration.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses a :param path segment as a UUID.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, apperror.Validation("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseUUIDPtr(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func toInvitedUsers(in []dto.InvitedUserRequest) []ports.InvitedUser {
	if len(in) == 0 {
		return nil
	}
	out := make([]ports.InvitedUser, 0, len(in))
	for _, u := range in {
		out = append(out, ports.InvitedUser{Name: u.Name, Mobile: u.Mobile})
	}
	return out
}

func toSplitDetails(in []dto.SplitDetailRequest) ([]domain.SplitDetail, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]domain.SplitDetail, 0, len(in))
	for _, d := range in {
		id, err := uuid.Parse(d.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.SplitDetail{UserID: id, Amount: d.Amount})
	}
	return out, nil
}

func toUserResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:     u.ID.String(),
		Name:   u.Name,
		Email:  u.Email,
		Mobile: u.Mobile,
		Avatar: u.Avatar,
	}
}

func toAuthResponse(res *ports.AuthResult) dto.AuthResponse {
	out := dto.AuthResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.Unix(),
	}
	if res.User != nil {
		out.User = toUserResponse(res.User)
	}
	return out
}

// windowFromQuery maps the window query parameter, defaulting to ALL.
func windowFromQuery(c *gin.Context) (ports.TimeWindow, bool) {
	switch c.DefaultQuery("window", string(ports.WindowAll)) {
	case string(ports.Window30D):
		return ports.Window30D, true
	case string(ports.Window90D):
		return ports.Window90D, true
	case string(ports.WindowAll):
		return ports.WindowAll, true
	default:
		response.Error(c, apperror.Validation("window must be one of 30D, 90D, ALL"))
		return "", false
	}
}

// settledAtFromRequest parses the optional settlement timestamp.
func settledAtFromRequest(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
