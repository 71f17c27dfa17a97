package service

import (
	"context"
	"testing"
	"time"

	"splitledger/config"
	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authTestDeps struct {
	svc      *AuthServiceImpl
	users    *mocks.MockUserService
	tokenSvc *mocks.MockTokenService
	sms      *mocks.MockSMSSender
	otpStore *mocks.MockOTPStore
	limiter  *mocks.MockRateLimitStore
	ctrl     *gomock.Controller
}

func authTestConfig() config.AuthConfig {
	return config.AuthConfig{
		OTPExpiry:        5 * time.Minute,
		OTPMaxAttempts:   5,
		OTPSendLimit:     3,
		OTPSendWindow:    10 * time.Minute,
		LoginMaxFailures: 5,
		LoginFailWindow:  15 * time.Minute,
	}
}

func setupAuthService(t *testing.T) *authTestDeps {
	ctrl := gomock.NewController(t)
	d := &authTestDeps{
		users:    mocks.NewMockUserService(ctrl),
		tokenSvc: mocks.NewMockTokenService(ctrl),
		sms:      mocks.NewMockSMSSender(ctrl),
		otpStore: mocks.NewMockOTPStore(ctrl),
		limiter:  mocks.NewMockRateLimitStore(ctrl),
		ctrl:     ctrl,
	}
	d.svc = NewAuthService(d.users, d.tokenSvc, d.sms, d.otpStore, d.limiter, authTestConfig(), zerolog.Nop())
	return d
}

func allowed() *ports.RateLimitResult {
	return &ports.RateLimitResult{Allowed: true, Limit: 5, Remaining: 4}
}

func denied() *ports.RateLimitResult {
	return &ports.RateLimitResult{Allowed: false, Limit: 5, Remaining: 0}
}

func TestAuthService_Login_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := &domain.User{ID: uuid.New()}
	expiry := time.Now().Add(time.Hour)

	d.limiter.EXPECT().
		Status(ctx, "login_fail:sam@example.com", int64(5), 15*time.Minute).
		Return(allowed(), nil)
	d.users.EXPECT().ValidateCredentials(ctx, "Sam@Example.com", "pw123456").Return(user, nil)
	d.tokenSvc.EXPECT().Generate(user.ID).Return("jwt", expiry, nil)

	res, err := d.svc.Login(ctx, "Sam@Example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
	assert.Equal(t, user, res.User)
}

func TestAuthService_Login_BadPasswordConsumesBudget(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.limiter.EXPECT().
		Status(ctx, "login_fail:sam@example.com", int64(5), 15*time.Minute).
		Return(allowed(), nil)
	d.users.EXPECT().ValidateCredentials(ctx, "sam@example.com", "wrong").Return(nil, nil)
	d.limiter.EXPECT().
		Allow(ctx, "login_fail:sam@example.com", int64(5), 15*time.Minute).
		Return(allowed(), nil)

	_, err := d.svc.Login(ctx, "sam@example.com", "wrong")
	appErr := requireAppError(t, err)
	assert.Equal(t, "AUTH_001", appErr.Code)
}

func TestAuthService_Login_LockedOutEvenWithCorrectPassword(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	// Budget already spent; credentials are never checked.
	d.limiter.EXPECT().
		Status(ctx, "login_fail:sam@example.com", int64(5), 15*time.Minute).
		Return(denied(), nil)

	_, err := d.svc.Login(ctx, "sam@example.com", "correct-password")
	appErr := requireAppError(t, err)
	assert.Equal(t, "RATE_002", appErr.Code)
}

func TestAuthService_SendOTP_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Mobile: "+919876543210"}

	d.users.EXPECT().FindByMobile(ctx, "+91 98765 43210").Return(user, nil)
	d.limiter.EXPECT().
		Allow(ctx, "otp_send:919876543210", int64(3), 10*time.Minute).
		Return(allowed(), nil)
	d.otpStore.EXPECT().
		Set(ctx, "919876543210", gomock.Any(), 5*time.Minute).
		DoAndReturn(func(_ context.Context, _ string, code string, _ time.Duration) error {
			assert.Len(t, code, 6)
			return nil
		})
	d.sms.EXPECT().Send(ctx, "+919876543210", gomock.Any()).Return(nil)

	require.NoError(t, d.svc.SendOTP(ctx, "+91 98765 43210"))
}

func TestAuthService_SendOTP_Throttled(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.users.EXPECT().FindByMobile(ctx, "9876543210").Return(&domain.User{ID: uuid.New()}, nil)
	d.limiter.EXPECT().
		Allow(ctx, "otp_send:9876543210", int64(3), 10*time.Minute).
		Return(denied(), nil)

	err := d.svc.SendOTP(ctx, "9876543210")
	appErr := requireAppError(t, err)
	assert.Equal(t, "RATE_003", appErr.Code)
}

func TestAuthService_SendOTP_UnknownUser(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.users.EXPECT().FindByMobile(ctx, "9876543210").Return(nil, nil)

	err := d.svc.SendOTP(ctx, "9876543210")
	appErr := requireAppError(t, err)
	assert.Equal(t, "NF_001", appErr.Code)
}

func TestAuthService_VerifyOTP_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Mobile: "+919876543210"}
	expiry := time.Now().Add(time.Hour)

	d.otpStore.EXPECT().Get(ctx, "919876543210").Return("123456", nil)
	d.otpStore.EXPECT().IncrementAttempts(ctx, "919876543210").Return(int64(1), nil)
	d.otpStore.EXPECT().Delete(ctx, "919876543210").Return(nil)
	d.users.EXPECT().FindByMobile(ctx, "9876543210").Return(user, nil)
	d.tokenSvc.EXPECT().Generate(user.ID).Return("jwt", expiry, nil)

	res, err := d.svc.VerifyOTP(ctx, "9876543210", "123456")
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
}

func TestAuthService_VerifyOTP_WrongCode(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.otpStore.EXPECT().Get(ctx, "919876543210").Return("123456", nil)
	d.otpStore.EXPECT().IncrementAttempts(ctx, "919876543210").Return(int64(2), nil)

	_, err := d.svc.VerifyOTP(ctx, "9876543210", "000000")
	appErr := requireAppError(t, err)
	assert.Equal(t, "AUTH_003", appErr.Code)
}

func TestAuthService_VerifyOTP_AttemptsExhausted(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	// Sixth attempt with the right code still fails; the stored code is
	// discarded so a fresh one must be requested.
	d.otpStore.EXPECT().Get(ctx, "919876543210").Return("123456", nil)
	d.otpStore.EXPECT().IncrementAttempts(ctx, "919876543210").Return(int64(6), nil)
	d.otpStore.EXPECT().Delete(ctx, "919876543210").Return(nil)

	_, err := d.svc.VerifyOTP(ctx, "9876543210", "123456")
	appErr := requireAppError(t, err)
	assert.Equal(t, "AUTH_003", appErr.Code)
}

func TestAuthService_VerifyOTP_ExpiredCode(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.otpStore.EXPECT().Get(ctx, "919876543210").Return("", nil)

	_, err := d.svc.VerifyOTP(ctx, "9876543210", "123456")
	appErr := requireAppError(t, err)
	assert.Equal(t, "AUTH_003", appErr.Code)
}

func TestAuthService_Register_IssuesToken(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := &domain.User{ID: uuid.New()}
	expiry := time.Now().Add(time.Hour)
	req := ports.RegisterUserRequest{Name: "Sam", Email: "sam@example.com", Password: "pw123456"}

	d.users.EXPECT().Register(ctx, req).Return(user, nil)
	d.tokenSvc.EXPECT().Generate(user.ID).Return("jwt", expiry, nil)

	res, err := d.svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
	assert.Equal(t, expiry, res.ExpiresAt)
}
