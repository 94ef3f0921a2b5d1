package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/internal/otp"
	"github.com/vavipcommerce/vavip-backend/internal/users"
	pkgAuth "github.com/vavipcommerce/vavip-backend/pkg/auth"
	"github.com/vavipcommerce/vavip-backend/pkg/config"
	"github.com/vavipcommerce/vavip-backend/pkg/db"
	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	pkgerrors "github.com/vavipcommerce/vavip-backend/pkg/errors"
	"github.com/vavipcommerce/vavip-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*users.UserDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPairResponse, error)
	Logout(ctx context.Context, rawAccessToken string, req LogoutRequest) error
	SendOTP(ctx context.Context, req OTPSendRequest) (*OTPSendResponse, error)
	VerifyOTP(ctx context.Context, req OTPVerifyRequest) (*OTPVerifyResponse, error)
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time, now time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type service struct {
	users       userRepository
	otp         otp.Service
	denylist    revoker
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	appCfg      config.AppConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	OTPService     otp.Service
	Denylist       revoker
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	AppConfig      config.AppConfig
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.OTPService == nil {
		return nil, fmt.Errorf("otp service is required")
	}
	if params.Denylist == nil {
		return nil, fmt.Errorf("denylist is required")
	}
	return &service{
		users:       params.UserRepo,
		otp:         params.OTPService,
		denylist:    params.Denylist,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		appCfg:      params.AppConfig,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeEmailExists, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup email")
	}

	var phone *string
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		normalized, err := otp.NormalizePhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		if _, err := s.users.FindByPhone(ctx, normalized); err == nil {
			return nil, pkgerrors.New(pkgerrors.CodePhoneExists, "phone already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup phone")
		}
		phone = &normalized
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        phone,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") || db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeEmailExists, "email already registered")
		}
		if db.IsUniqueViolation(err, "users_phone_key") || db.IsUniqueViolation(err, "idx_users_phone") {
			return nil, pkgerrors.New(pkgerrors.CodePhoneExists, "phone already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	return s.sessionResponse(user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.lookupForLogin(ctx, req)
	if err != nil {
		return nil, err
	}

	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeAccountDisabled, "account is disabled")
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	return s.sessionResponse(user)
}

func (s *service) lookupForLogin(ctx context.Context, req LoginRequest) (*models.User, error) {
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
		return user, nil
	}

	if strings.TrimSpace(req.Phone) != "" {
		normalized, err := otp.NormalizePhone(req.Phone)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
		}
		user, err := s.users.FindByPhone(ctx, normalized)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
		return user, nil
	}

	return nil, pkgerrors.New(pkgerrors.CodeValidation, "email or phone is required")
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return users.FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	updates := map[string]any{}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			if _, err := s.users.FindByEmail(ctx, email); err == nil {
				return nil, pkgerrors.New(pkgerrors.CodeEmailExists, "email already registered")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup email")
			}
			updates["email"] = email
		}
	}
	if req.Phone != nil {
		normalized, err := otp.NormalizePhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		if user.Phone == nil || *user.Phone != normalized {
			if _, err := s.users.FindByPhone(ctx, normalized); err == nil {
				return nil, pkgerrors.New(pkgerrors.CodePhoneExists, "phone already registered")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup phone")
			}
			updates["phone"] = normalized
		}
	}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}

	if len(updates) > 0 {
		if err := s.users.UpdateProfile(ctx, userID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
		}
		user, err = s.users.FindByID(ctx, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
		}
	}

	return users.FromModel(user), nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	valid, err := security.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeInvalidCredentials, "current password is incorrect")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store password")
	}
	return nil
}

// Refresh consumes the presented refresh token and mints a fresh pair. The
// consumed jti goes on the denylist first so the token cannot be replayed.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPairResponse, error) {
	claims, err := pkgAuth.ParseRefreshToken(s.jwtCfg, req.RefreshToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTokenExpired, err, "invalid refresh token")
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check revocation")
	}
	if revoked {
		return nil, pkgerrors.New(pkgerrors.CodeTokenRevoked, "token revoked")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeAccountDisabled, "account is disabled")
	}

	now := time.Now().UTC()
	if claims.ExpiresAt != nil {
		if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke refresh token")
		}
	}

	pair, err := pkgAuth.MintPair(s.jwtCfg, now, pkgAuth.TokenPayload{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint tokens")
	}
	return &TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Logout revokes the presented access token and, when supplied, the refresh
// token. Expired tokens are accepted so a client can always log out.
func (s *service) Logout(ctx context.Context, rawAccessToken string, req LogoutRequest) error {
	now := time.Now().UTC()

	claims, err := pkgAuth.ParseTokenAllowExpired(s.jwtCfg, rawAccessToken)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID != "" && claims.ExpiresAt != nil {
		if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke access token")
		}
	}

	if req.RefreshToken != "" {
		refreshClaims, err := pkgAuth.ParseTokenAllowExpired(s.jwtCfg, req.RefreshToken)
		if err == nil && refreshClaims.ID != "" && refreshClaims.ExpiresAt != nil {
			if err := s.denylist.Revoke(ctx, refreshClaims.ID, refreshClaims.ExpiresAt.Time, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke refresh token")
			}
		}
	}

	return nil
}

func (s *service) SendOTP(ctx context.Context, req OTPSendRequest) (*OTPSendResponse, error) {
	result, err := s.otp.Send(ctx, req.Phone)
	if err != nil {
		return nil, err
	}

	resp := &OTPSendResponse{
		Message:   "confirmation code sent",
		ExpiresIn: int(time.Until(result.ExpiresAt).Seconds()),
	}
	if s.appCfg.IsDev() {
		resp.DevCode = result.Code
	}
	return resp, nil
}

func (s *service) VerifyOTP(ctx context.Context, req OTPVerifyRequest) (*OTPVerifyResponse, error) {
	result, err := s.otp.Verify(ctx, otp.VerifyRequest{
		Phone:     req.Phone,
		Code:      req.Code,
		FirstName: req.FirstName,
	})
	if err != nil {
		return nil, err
	}

	session, err := s.sessionResponse(result.User)
	if err != nil {
		return nil, err
	}

	resp := &OTPVerifyResponse{
		AuthResponse:   *session,
		AccountCreated: result.Created,
	}
	if result.Created && s.appCfg.IsDev() {
		resp.DevPassword = result.TempPassword
	}
	return resp, nil
}

func (s *service) sessionResponse(user *models.User) (*AuthResponse, error) {
	pair, err := pkgAuth.MintPair(s.jwtCfg, time.Now().UTC(), pkgAuth.TokenPayload{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint tokens")
	}
	return &AuthResponse{
		User:         users.FromModel(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}
