package otp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/internal/users"
	"github.com/vavipcommerce/vavip-backend/pkg/config"
	"github.com/vavipcommerce/vavip-backend/pkg/db"
	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
	pkgerrors "github.com/vavipcommerce/vavip-backend/pkg/errors"
	"github.com/vavipcommerce/vavip-backend/pkg/logger"
	"github.com/vavipcommerce/vavip-backend/pkg/security"
)

// Sender delivers a confirmation code to a phone number.
type Sender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// Service manages the phone confirmation code lifecycle.
type Service interface {
	Send(ctx context.Context, phone string) (*SendResult, error)
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error)
}

// SendResult reports the outcome of issuing a code. Code is the plaintext so
// callers can expose it in development environments; it must never reach a
// production response.
type SendResult struct {
	Phone     string
	Code      string
	ExpiresAt time.Time
}

// VerifyRequest carries the code check input. FirstName is only used when a
// new account has to be provisioned.
type VerifyRequest struct {
	Phone     string
	Code      string
	FirstName string
}

// VerifyResult is the outcome of a successful code check. TempPassword is set
// only when the account was provisioned during this call.
type VerifyResult struct {
	User         *models.User
	Created      bool
	TempPassword string
}

type service struct {
	client      *db.Client
	codes       *Repository
	users       *users.Repository
	sender      Sender
	cfg         config.OTPConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// ServiceParams bundles the dependencies required to build an otp service.
type ServiceParams struct {
	Client         *db.Client
	CodeRepo       *Repository
	UserRepo       *users.Repository
	Sender         Sender
	Config         config.OTPConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// NewService constructs a phone code service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.CodeRepo == nil {
		return nil, fmt.Errorf("code repository is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{
		client:      params.Client,
		codes:       params.CodeRepo,
		users:       params.UserRepo,
		sender:      params.Sender,
		cfg:         params.Config,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

func (s *service) Send(ctx context.Context, phone string) (*SendResult, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	code, err := security.GenerateNumericCode(s.cfg.CodeLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}
	hash, err := security.HashPassword(code, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash code")
	}

	expiresAt := time.Now().UTC().Add(s.cfg.TTL)
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		codes := s.codes.WithTx(tx)
		if err := codes.DeleteUnused(ctx, normalized); err != nil {
			return fmt.Errorf("drop stale codes: %w", err)
		}
		return codes.Create(ctx, &models.PhoneOTP{
			Phone:     normalized,
			CodeHash:  hash,
			ExpiresAt: expiresAt,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store code")
	}

	if s.sender != nil {
		if err := s.sender.SendCode(ctx, normalized, code); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver code")
		}
	}

	return &SendResult{Phone: normalized, Code: code, ExpiresAt: expiresAt}, nil
}

// Verify checks the code against the newest unused row for the phone and, on a
// match, consumes it and resolves the account. Accounts are provisioned on the
// fly for numbers seen for the first time; the second return reports whether
// that happened. The attempt counter is persisted even when the transaction
// that wraps the happy path is never entered, so throwaway guesses still burn
// attempts.
func (s *service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	normalized, err := NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	row, err := s.codes.FindLatestUnused(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeOTPExpired, "confirmation code expired, request a new one")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load code")
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeOTPExpired, "confirmation code expired, request a new one")
	}
	if row.Attempts >= s.cfg.MaxAttempts {
		return nil, pkgerrors.New(pkgerrors.CodeOTPTooManyAttempts, "too many attempts, request a new code")
	}

	if err := s.codes.IncrementAttempts(ctx, row.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count attempt")
	}

	match, err := security.VerifyPassword(req.Code, row.CodeHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify code")
	}
	if !match {
		return nil, pkgerrors.New(pkgerrors.CodeOTPInvalid, "invalid confirmation code")
	}

	result := &VerifyResult{}
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		codes := s.codes.WithTx(tx)
		userRepo := s.users.WithTx(tx)

		now := time.Now().UTC()
		if err := codes.MarkUsed(ctx, row.ID, now); err != nil {
			return fmt.Errorf("consume code: %w", err)
		}

		existing, err := userRepo.FindByPhone(ctx, normalized)
		switch {
		case err == nil:
			if !existing.IsActive {
				return pkgerrors.New(pkgerrors.CodeAccountDisabled, "account is disabled")
			}
			if err := userRepo.UpdateLastLogin(ctx, existing.ID, now); err != nil {
				return fmt.Errorf("update last login: %w", err)
			}
			existing.LastLoginAt = &now
			result.User = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			provisioned, tempPassword, err := s.provision(ctx, userRepo, normalized, req.FirstName)
			if err != nil {
				return err
			}
			result.User = provisioned
			result.Created = true
			result.TempPassword = tempPassword
			return nil
		default:
			return fmt.Errorf("lookup user: %w", err)
		}
	})
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify code")
	}

	if s.logg != nil && result.Created {
		s.logg.Info(s.logg.WithField(ctx, "user_id", result.User.ID.String()), "otp.user_provisioned")
	}
	return result, nil
}

func (s *service) provision(ctx context.Context, repo *users.Repository, phone, firstName string) (*models.User, string, error) {
	tempPassword, err := security.GenerateTempPassword(10)
	if err != nil {
		return nil, "", fmt.Errorf("temp password: %w", err)
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, "", fmt.Errorf("hash temp password: %w", err)
	}

	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return nil, "", fmt.Errorf("email suffix: %w", err)
	}
	digits := strings.TrimPrefix(phone, "+")
	email := fmt.Sprintf("auto_%s_%s@auto.vavip", digits, hex.EncodeToString(suffix))

	user, err := repo.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(firstName),
		Phone:        &phone,
		Role:         enums.UserRoleCustomer,
	})
	if err != nil {
		return nil, "", err
	}
	return user, tempPassword, nil
}
