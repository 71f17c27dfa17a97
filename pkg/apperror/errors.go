package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a generic 400 validation error with a custom message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "Amount must be greater than zero with at most two decimal places", http.StatusBadRequest)
}

func ErrEmptySplit() *AppError {
	return New("VAL_003", "splitBetween must contain at least one user", http.StatusBadRequest)
}

func ErrSplitSumMismatch() *AppError {
	return New("VAL_004", "Sum of splitDetails must equal expense amount", http.StatusBadRequest)
}

func ErrSplitDetail(message string) *AppError {
	return New("VAL_005", message, http.StatusBadRequest)
}

func ErrInvalidDate() *AppError {
	return New("VAL_006", "Date must be a valid calendar date", http.StatusBadRequest)
}

func ErrSelfSettlement() *AppError {
	return New("VAL_007", "fromUserId and toUserId must be different", http.StatusBadRequest)
}

func ErrInvalidReceipt(message string) *AppError {
	return New("VAL_008", message, http.StatusBadRequest)
}

// ---- Not found (NF) ----

func ErrNotFound(entity string) *AppError {
	return New("NF_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrUserNotFound(userID string) *AppError {
	return New("NF_002", fmt.Sprintf("User %s not found", userID), http.StatusNotFound)
}

// ---- Forbidden (FBD) ----

func ErrNotGroupMember() *AppError {
	return New("FBD_001", "You are not a member of this group", http.StatusForbidden)
}

func ErrPayerNotMember() *AppError {
	return New("FBD_002", "Payer must be a member of this group", http.StatusForbidden)
}

func ErrParticipantsNotMembers() *AppError {
	return New("FBD_003", "All splitBetween users must be members of the group", http.StatusForbidden)
}

func ErrNotPayer(action string) *AppError {
	return New("FBD_004", fmt.Sprintf("Only the payer can %s this expense", action), http.StatusForbidden)
}

func ErrNotGroupCreator(action string) *AppError {
	return New("FBD_005", fmt.Sprintf("Only group creator can %s this group", action), http.StatusForbidden)
}

func ErrNotSettlementParticipant() *AppError {
	return New("FBD_006", "Only settlement participants can create personal settlements", http.StatusForbidden)
}

func ErrSettlementUsersNotMembers() *AppError {
	return New("FBD_007", "Settlement users must be group members", http.StatusForbidden)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid email or password", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrInvalidOTP() *AppError {
	return New("AUTH_003", "Invalid or expired verification code", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_004", "User with this email already exists", http.StatusConflict)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

func ErrTooManyLoginAttempts() *AppError {
	return New("RATE_002", "Too many failed login attempts. Try again later.", http.StatusTooManyRequests)
}

func ErrTooManyOTPRequests() *AppError {
	return New("RATE_003", "Too many verification code requests. Try again later.", http.StatusTooManyRequests)
}

// ---- System & upstream (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrUpstream wraps a collaborator failure without forwarding its error text.
func ErrUpstream(collaborator string, err error) *AppError {
	return Wrap("SYS_002", fmt.Sprintf("%s request failed", collaborator), http.StatusInternalServerError, err)
}
