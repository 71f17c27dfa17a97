package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"splitledger/config"
	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	users    ports.UserService
	tokenSvc ports.TokenService
	sms      ports.SMSSender
	otpStore ports.OTPStore
	limiter  ports.RateLimitStore
	cfg      config.AuthConfig
	log      zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	users ports.UserService,
	tokenSvc ports.TokenService,
	sms ports.SMSSender,
	otpStore ports.OTPStore,
	limiter ports.RateLimitStore,
	cfg config.AuthConfig,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		users:    users,
		tokenSvc: tokenSvc,
		sms:      sms,
		otpStore: otpStore,
		limiter:  limiter,
		cfg:      cfg,
		log:      log,
	}
}

// Register creates an account and signs the new user in.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterUserRequest) (*ports.AuthResult, error) {
	user, err := s.users.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issueToken(user)
}

// Login validates credentials under a failure lockout. Only failed attempts
// consume the budget; once it is spent the account stays locked for the rest
// of the window even for the correct password.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	failKey := "login_fail:" + domain.NormalizeEmail(email)

	st, err := s.limiter.Status(ctx, failKey, s.cfg.LoginMaxFailures, s.cfg.LoginFailWindow)
	if err != nil {
		s.log.Warn().Err(err).Msg("login lockout check failed, proceeding")
	} else if !st.Allowed {
		return nil, apperror.ErrTooManyLoginAttempts()
	}

	user, err := s.users.ValidateCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		if res, rerr := s.limiter.Allow(ctx, failKey, s.cfg.LoginMaxFailures, s.cfg.LoginFailWindow); rerr != nil {
			s.log.Warn().Err(rerr).Msg("recording login failure failed")
		} else if !res.Allowed {
			return nil, apperror.ErrTooManyLoginAttempts()
		}
		return nil, apperror.ErrInvalidCredentials()
	}

	return s.issueToken(user)
}

// SendOTP generates a one-time code and delivers it over SMS. The code is
// never part of any response or log line.
func (s *AuthServiceImpl) SendOTP(ctx context.Context, mobile string) error {
	user, err := s.users.FindByMobile(ctx, mobile)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.ErrNotFound("user")
	}

	key := domain.PhoneLookupKey(mobile)
	res, err := s.limiter.Allow(ctx, "otp_send:"+key, s.cfg.OTPSendLimit, s.cfg.OTPSendWindow)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("otp send throttle: %w", err))
	}
	if !res.Allowed {
		return apperror.ErrTooManyOTPRequests()
	}

	code, err := generateOTPCode()
	if err != nil {
		return apperror.InternalError(fmt.Errorf("generate otp: %w", err))
	}

	if err := s.otpStore.Set(ctx, key, code, s.cfg.OTPExpiry); err != nil {
		return apperror.InternalError(fmt.Errorf("store otp: %w", err))
	}

	msg := fmt.Sprintf("Your SplitLedger verification code is %s. It expires in %d minutes.", code, int(s.cfg.OTPExpiry.Minutes()))
	if err := s.sms.Send(ctx, user.Mobile, msg); err != nil {
		return apperror.ErrUpstream("sms", err)
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("otp sent")
	return nil
}

// VerifyOTP checks the submitted code and signs the user in. After the
// attempt budget is spent the stored code is discarded, so every later
// attempt fails until a fresh code is requested.
func (s *AuthServiceImpl) VerifyOTP(ctx context.Context, mobile, code string) (*ports.AuthResult, error) {
	key := domain.PhoneLookupKey(mobile)

	stored, err := s.otpStore.Get(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get otp: %w", err))
	}
	if stored == "" {
		return nil, apperror.ErrInvalidOTP()
	}

	attempts, err := s.otpStore.IncrementAttempts(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count otp attempt: %w", err))
	}
	if attempts > int64(s.cfg.OTPMaxAttempts) {
		if derr := s.otpStore.Delete(ctx, key); derr != nil {
			s.log.Warn().Err(derr).Msg("discarding exhausted otp failed")
		}
		return nil, apperror.ErrInvalidOTP()
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return nil, apperror.ErrInvalidOTP()
	}

	if err := s.otpStore.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("deleting consumed otp failed")
	}

	user, err := s.users.FindByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}

	return s.issueToken(user)
}

func (s *AuthServiceImpl) issueToken(user *domain.User) (*ports.AuthResult, error) {
	token, expiresAt, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	return &ports.AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// generateOTPCode returns a random 6-digit code.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
