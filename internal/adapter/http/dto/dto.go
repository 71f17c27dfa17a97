package dto

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Mobile   string `json:"mobile,omitempty" binding:"omitempty,mobile"`
}

// LoginRequest is the request body for email/password login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SendOTPRequest asks for a one-time code to be texted to a mobile number.
type SendOTPRequest struct {
	Mobile string `json:"mobile" binding:"required,mobile"`
}

// VerifyOTPRequest exchanges a one-time code for a session token.
type VerifyOTPRequest struct {
	Mobile string `json:"mobile" binding:"required,mobile"`
	Code   string `json:"code" binding:"required,len=6"`
}

// AuthResponse is the body for successful authentication.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"` // Unix timestamp
	User      UserResponse `json:"user"`
}

// UserResponse is the public view of a user record.
type UserResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  *string `json:"email,omitempty"`
	Mobile string  `json:"mobile,omitempty"`
	Avatar string  `json:"avatar,omitempty"`
}

// InvitedUserRequest names a participant to provision by mobile number.
type InvitedUserRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=100"`
	Mobile string `json:"mobile" binding:"required,mobile"`
}

// SplitDetailRequest is one participant's explicit share.
type SplitDetailRequest struct {
	UserID string  `json:"user_id" binding:"required,uuid"`
	Amount float64 `json:"amount" binding:"gte=0"`
}

// CreateExpenseRequest is the request body for expense creation.
type CreateExpenseRequest struct {
	Title        string               `json:"title" binding:"required,min=1,max=200"`
	Amount       float64              `json:"amount" binding:"required,gt=0"`
	Date         string               `json:"date,omitempty"`
	Category     string               `json:"category,omitempty" binding:"max=80"`
	Receipt      *string              `json:"receipt,omitempty"` // URL or base64 data URL
	GroupID      *string              `json:"group_id,omitempty" binding:"omitempty,uuid"`
	PaidBy       *string              `json:"paid_by,omitempty" binding:"omitempty,uuid"`
	SplitType    string               `json:"split_type" binding:"required,oneof=EQUAL UNEQUAL"`
	SplitBetween []string             `json:"split_between" binding:"dive,uuid"`
	SplitDetails []SplitDetailRequest `json:"split_details,omitempty" binding:"dive"`
	InvitedUsers []InvitedUserRequest `json:"invited_users,omitempty" binding:"dive"`
}

// UpdateExpenseRequest is a tagged partial update; absent fields are left
// unchanged.
type UpdateExpenseRequest struct {
	Title        *string              `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Amount       *float64             `json:"amount,omitempty" binding:"omitempty,gt=0"`
	Date         *string              `json:"date,omitempty"`
	Category     *string              `json:"category,omitempty" binding:"omitempty,max=80"`
	Receipt      *string              `json:"receipt,omitempty"`
	GroupID      *string              `json:"group_id,omitempty" binding:"omitempty,uuid"`
	PaidBy       *string              `json:"paid_by,omitempty" binding:"omitempty,uuid"`
	SplitType    *string              `json:"split_type,omitempty" binding:"omitempty,oneof=EQUAL UNEQUAL"`
	SplitBetween []string             `json:"split_between,omitempty" binding:"dive,uuid"`
	SplitDetails []SplitDetailRequest `json:"split_details,omitempty" binding:"dive"`
	InvitedUsers []InvitedUserRequest `json:"invited_users,omitempty" binding:"dive"`
}

// CreateSettlementRequest is the request body for recording a settlement.
type CreateSettlementRequest struct {
	FromUserID *string `json:"from_user_id,omitempty" binding:"omitempty,uuid"` // default: caller
	ToUserID   string  `json:"to_user_id" binding:"required,uuid"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	SettledAt  *string `json:"settled_at,omitempty"` // RFC3339, default: now
	GroupID    *string `json:"group_id,omitempty" binding:"omitempty,uuid"`
	Note       *string `json:"note,omitempty" binding:"omitempty,max=200"`
}

// CreateGroupRequest is the request body for group creation.
type CreateGroupRequest struct {
	Name         string               `json:"name" binding:"required,min=1,max=120"`
	Members      []string             `json:"members,omitempty" binding:"dive,uuid"`
	InvitedUsers []InvitedUserRequest `json:"invited_users,omitempty" binding:"dive"`
}

// UpdateGroupRequest renames a group and/or adds members.
type UpdateGroupRequest struct {
	Name         *string              `json:"name,omitempty" binding:"omitempty,min=1,max=120"`
	AddMembers   []string             `json:"add_members,omitempty" binding:"dive,uuid"`
	InvitedUsers []InvitedUserRequest `json:"invited_users,omitempty" binding:"dive"`
}

// UpdateProfileRequest is a tagged partial profile update.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
	Mobile   *string `json:"mobile,omitempty" binding:"omitempty,mobile"`
	Avatar   *string `json:"avatar,omitempty"`
	Password *string `json:"password,omitempty" binding:"omitempty,min=8,max=128"`
}

// PushTokenRequest stores or clears the caller's device push token.
type PushTokenRequest struct {
	PushToken string `json:"push_token"`
}
