package ports

import (
	"context"
	"time"

	"splitledger/internal/core/domain"

	"github.com/google/uuid"
)

// --- Infrastructure ports ---

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// NotificationSink delivers push notifications. Best effort: callers log
// failures and never propagate them.
type NotificationSink interface {
	Notify(ctx context.Context, pushToken, title, body string, data map[string]string) error
}

// SMSSender delivers one-time codes over SMS.
type SMSSender interface {
	Send(ctx context.Context, mobile, message string) error
}

// ObjectStore uploads binary objects and returns their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, req UploadRequest) (string, error)
}

// UploadRequest describes one object upload.
type UploadRequest struct {
	Bucket      string
	ObjectPath  string
	ContentType string
	Data        []byte
	Upsert      bool
}

// OTPStore keeps one-time codes with a TTL and a verify-attempt counter.
// Backed by Redis so multiple instances share one view.
type OTPStore interface {
	Set(ctx context.Context, mobile, code string, ttl time.Duration) error
	// Get returns the stored code, or "" if absent/expired.
	Get(ctx context.Context, mobile string) (string, error)
	// IncrementAttempts bumps and returns the verify-attempt counter.
	IncrementAttempts(ctx context.Context, mobile string) (int64, error)
	Delete(ctx context.Context, mobile string) error
}

// RateLimitStore implements fixed-window counters shared across instances.
type RateLimitStore interface {
	// Allow consumes one unit from the window and reports the outcome.
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
	// Status reports the current window without consuming anything.
	Status(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// --- Ledger collaborators ---

// UserDirectory is the narrow user-lookup contract the ledger core consumes.
type UserDirectory interface {
	// FindByID returns (nil, nil) when the user does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// ProvisionInvitedUser creates a provisional user, idempotent by mobile
	// number: re-inviting the same number updates the display name instead
	// of creating a duplicate.
	ProvisionInvitedUser(ctx context.Context, name, mobile string) (*domain.User, error)
}

// MembershipOracle answers group-membership questions.
type MembershipOracle interface {
	// GetGroup returns (nil, nil) when the group does not exist.
	GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error)
}

// InvitedUser names a participant to provision by display name and mobile.
type InvitedUser struct {
	Name   string
	Mobile string
}

// ExpenseInput is a fully merged expense candidate handed to the normalizer.
type ExpenseInput struct {
	Title        string
	Amount       float64
	Date         string // ISO date or RFC3339
	Category     string
	ReceiptURL   *string
	GroupID      *uuid.UUID
	PaidBy       uuid.UUID
	SplitType    domain.SplitType
	SplitBetween []uuid.UUID
	SplitDetails []domain.SplitDetail
	InvitedUsers []InvitedUser
}

// SplitNormalizer validates and canonicalizes an expense submission.
type SplitNormalizer interface {
	// Normalize resolves invited users, enforces membership and existence
	// invariants, validates fields and split consistency, and returns an
	// expense record ready for storage (without ID or timestamps).
	Normalize(ctx context.Context, actorID uuid.UUID, in ExpenseInput) (*domain.Expense, error)
}

// ReceiptService resolves a submitted receipt value to a stored URL.
// Plain URLs pass through; data URLs are uploaded to the object store.
type ReceiptService interface {
	StoreReceipt(ctx context.Context, expenseID, ownerID uuid.UUID, value string) (*string, error)
}

// --- Ledger service ---

// CreateExpenseRequest holds validated input for expense creation.
type CreateExpenseRequest struct {
	ActorID      uuid.UUID
	Title        string
	Amount       float64
	Date         string
	Category     string
	ReceiptData  *string // plain URL or base64 data URL
	GroupID      *uuid.UUID
	PaidBy       *uuid.UUID // nil = actor pays
	SplitType    domain.SplitType
	SplitBetween []uuid.UUID
	SplitDetails []domain.SplitDetail
	InvitedUsers []InvitedUser
}

// UpdateExpenseRequest is a tagged partial update: one optional field per
// mutable attribute, nil meaning "leave unchanged".
type UpdateExpenseRequest struct {
	ActorID      uuid.UUID
	Title        *string
	Amount       *float64
	Date         *string
	Category     *string
	ReceiptData  *string
	GroupID      *uuid.UUID
	PaidBy       *uuid.UUID
	SplitType    *domain.SplitType
	SplitBetween []uuid.UUID
	SplitDetails []domain.SplitDetail
	InvitedUsers []InvitedUser
}

// CreateSettlementRequest holds validated input for settlement creation.
type CreateSettlementRequest struct {
	ActorID    uuid.UUID
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Amount     float64
	SettledAt  *time.Time // nil = now
	GroupID    *uuid.UUID
	Note       *string
}

// LedgerService orchestrates expense and settlement lifecycles.
type LedgerService interface {
	ListExpenses(ctx context.Context, userID uuid.UUID) ([]domain.Expense, error)
	ListGroupExpenses(ctx context.Context, groupID, userID uuid.UUID) ([]domain.Expense, error)
	CreateExpense(ctx context.Context, req CreateExpenseRequest) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, id uuid.UUID, req UpdateExpenseRequest) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id, actorID uuid.UUID) error
	CreateSettlement(ctx context.Context, req CreateSettlementRequest) (*domain.Settlement, error)
	ListSettlements(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) ([]domain.Settlement, error)
}

// --- Analytics ---

// TimeWindow filters analytics to a trailing period measured at query time.
type TimeWindow string

const (
	Window30D TimeWindow = "30D"
	Window90D TimeWindow = "90D"
	WindowAll TimeWindow = "ALL"
)

// AnalyticsOptions scope a balance/analytics query.
type AnalyticsOptions struct {
	GroupID *uuid.UUID
	Window  TimeWindow
}

// SettlementFlow totals money moved through settlements in the window.
type SettlementFlow struct {
	Paid     float64 `json:"paid"`
	Received float64 `json:"received"`
	Net      float64 `json:"net"` // received - paid
}

// BalanceSummary is a user's net position plus windowed aggregations.
// Grouping map key order is unspecified.
type BalanceSummary struct {
	YouOwe           float64            `json:"you_owe"`
	OwesYou          float64            `json:"owes_you"`
	TotalSpent       float64            `json:"total_spent"`
	TransactionCount int                `json:"transaction_count"`
	CategoryTotals   map[string]float64 `json:"category_totals"`
	GroupTotals      map[string]float64 `json:"group_totals"`
	DailyTotals      map[string]float64 `json:"daily_totals"`
	MonthlyTotals    map[string]float64 `json:"monthly_totals"`
	SettlementTotals SettlementFlow     `json:"settlement_totals"`
}

// AnalyticsService folds the user's visible ledger into a balance summary.
type AnalyticsService interface {
	Summary(ctx context.Context, userID uuid.UUID, opts AnalyticsOptions) (*BalanceSummary, error)
}

// --- Groups ---

// CreateGroupRequest holds input for group creation.
type CreateGroupRequest struct {
	ActorID      uuid.UUID
	Name         string
	Members      []uuid.UUID
	InvitedUsers []InvitedUser
}

// UpdateGroupRequest renames a group and/or adds members. Members are only
// ever added; the creator is always retained.
type UpdateGroupRequest struct {
	ActorID      uuid.UUID
	Name         *string
	AddMembers   []uuid.UUID
	InvitedUsers []InvitedUser
}

// DeleteGroupResult reports the cascade outcome of a group deletion.
type DeleteGroupResult struct {
	DeletedGroupID       uuid.UUID `json:"deleted_group_id"`
	DeletedExpensesCount int64     `json:"deleted_expenses_count"`
}

// GroupService manages groups and answers membership questions.
type GroupService interface {
	MembershipOracle
	List(ctx context.Context, userID uuid.UUID) ([]domain.Group, error)
	Create(ctx context.Context, req CreateGroupRequest) (*domain.Group, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateGroupRequest) (*domain.Group, error)
	// Delete cascades expense deletion and returns the deleted count.
	Delete(ctx context.Context, id, actorID uuid.UUID) (*DeleteGroupResult, error)
}

// --- Users ---

// RegisterUserRequest holds input for credentialed registration.
type RegisterUserRequest struct {
	Name     string
	Email    string
	Password string
	Mobile   string
}

// UpdateUserRequest is a tagged partial profile update.
type UpdateUserRequest struct {
	Name     *string
	Email    *string
	Mobile   *string
	Avatar   *string
	Password *string
}

// UserService manages user records and credential checks.
type UserService interface {
	UserDirectory
	FindByMobile(ctx context.Context, mobile string) (*domain.User, error)
	Register(ctx context.Context, req RegisterUserRequest) (*domain.User, error)
	// ValidateCredentials returns (nil, nil) on bad email or password.
	ValidateCredentials(ctx context.Context, email, password string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*domain.User, error)
	SetPushToken(ctx context.Context, id uuid.UUID, pushToken string) (*domain.User, error)
}

// --- Auth ---

// AuthResult is a successful authentication outcome. OTP codes are never
// part of any response.
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// AuthService defines authentication flows. Lockout and OTP throttle state
// lives in the shared RateLimitStore, not in process memory.
type AuthService interface {
	Register(ctx context.Context, req RegisterUserRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	SendOTP(ctx context.Context, mobile string) error
	VerifyOTP(ctx context.Context, mobile, code string) (*AuthResult, error)
}
