package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const minPasswordLength = 8

// UserServiceImpl implements ports.UserService.
type UserServiceImpl struct {
	userRepo ports.UserRepository
	hashSvc  ports.HashService
	log      zerolog.Logger
}

// NewUserService creates a new UserServiceImpl.
func NewUserService(userRepo ports.UserRepository, hashSvc ports.HashService, log zerolog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo: userRepo,
		hashSvc:  hashSvc,
		log:      log,
	}
}

// FindByID returns a user by ID, or (nil, nil) when absent.
func (s *UserServiceImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	return user, nil
}

// FindByMobile looks a user up by phone number in any common format.
func (s *UserServiceImpl) FindByMobile(ctx context.Context, mobile string) (*domain.User, error) {
	key := domain.PhoneLookupKey(mobile)
	if key == "" {
		return nil, apperror.Validation("mobile is required")
	}
	user, err := s.userRepo.GetByMobileKey(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user by mobile: %w", err))
	}
	return user, nil
}

// ProvisionInvitedUser creates a provisional account for someone who is not
// registered yet. Idempotent by phone number: re-inviting the same number
// refreshes the display name instead of duplicating the account.
func (s *UserServiceImpl) ProvisionInvitedUser(ctx context.Context, name, mobile string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("invited user name is required")
	}
	key := domain.PhoneLookupKey(mobile)
	if key == "" {
		return nil, apperror.Validation("invited user mobile is required")
	}

	existing, err := s.userRepo.GetByMobileKey(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user by mobile: %w", err))
	}
	if existing != nil {
		if existing.IsInvited() && existing.Name != name {
			existing.Name = name
			existing.UpdatedAt = time.Now().UTC()
			if err := s.userRepo.Update(ctx, existing); err != nil {
				return nil, apperror.InternalError(fmt.Errorf("update invited user: %w", err))
			}
		}
		return existing, nil
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.New(),
		Name:      name,
		Mobile:    domain.NormalizePhone(mobile),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create invited user: %w", err))
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("invited user provisioned")
	return user, nil
}

// Register creates a credentialed account. When the mobile number belongs to
// a provisional invited account, that account is claimed instead of creating
// a duplicate, so the new user keeps their invitation history.
func (s *UserServiceImpl) Register(ctx context.Context, req ports.RegisterUserRequest) (*domain.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	email := domain.NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.Validation("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	hash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()

	if key := domain.PhoneLookupKey(req.Mobile); key != "" {
		invited, err := s.userRepo.GetByMobileKey(ctx, key)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("check mobile: %w", err))
		}
		if invited != nil {
			if !invited.IsInvited() {
				return nil, apperror.Validation("mobile number already in use")
			}
			invited.Name = name
			invited.Email = &email
			invited.PasswordHash = &hash
			invited.Mobile = domain.NormalizePhone(req.Mobile)
			invited.UpdatedAt = now
			if err := s.userRepo.Update(ctx, invited); err != nil {
				return nil, apperror.InternalError(fmt.Errorf("claim invited user: %w", err))
			}
			s.log.Info().Str("user_id", invited.ID.String()).Msg("invited account claimed on registration")
			return invited, nil
		}
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        &email,
		PasswordHash: &hash,
		Mobile:       domain.NormalizePhone(req.Mobile),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, nil
}

// ValidateCredentials returns the user on success and (nil, nil) on a bad
// email or password, so callers cannot tell the two failure modes apart.
func (s *UserServiceImpl) ValidateCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user by email: %w", err))
	}
	if user == nil || user.PasswordHash == nil {
		return nil, nil
	}

	valid, err := s.hashSvc.Verify(password, *user.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return nil, nil
	}
	return user, nil
}

// UpdateProfile applies a tagged partial update to the user's profile.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, id uuid.UUID, req ports.UpdateUserRequest) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("name cannot be empty")
		}
		user.Name = name
	}

	if req.Email != nil {
		email := domain.NormalizeEmail(*req.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, apperror.Validation("a valid email is required")
		}
		if user.Email == nil || *user.Email != email {
			other, err := s.userRepo.GetByEmail(ctx, email)
			if err != nil {
				return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
			}
			if other != nil && other.ID != user.ID {
				return nil, apperror.ErrEmailExists()
			}
		}
		user.Email = &email
	}

	if req.Mobile != nil {
		key := domain.PhoneLookupKey(*req.Mobile)
		if key == "" {
			return nil, apperror.Validation("a valid mobile number is required")
		}
		other, err := s.userRepo.GetByMobileKey(ctx, key)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("check mobile: %w", err))
		}
		if other != nil && other.ID != user.ID {
			return nil, apperror.Validation("mobile number already in use")
		}
		user.Mobile = domain.NormalizePhone(*req.Mobile)
	}

	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}

	if req.Password != nil {
		if len(*req.Password) < minPasswordLength {
			return nil, apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
		hash, err := s.hashSvc.Hash(*req.Password)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
		}
		user.PasswordHash = &hash
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update user: %w", err))
	}
	return user, nil
}

// SetPushToken stores the device push token for later notifications.
func (s *UserServiceImpl) SetPushToken(ctx context.Context, id uuid.UUID, pushToken string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}

	pushToken = strings.TrimSpace(pushToken)
	if pushToken == "" {
		user.PushToken = nil
	} else {
		user.PushToken = &pushToken
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update user: %w", err))
	}
	return user, nil
}
