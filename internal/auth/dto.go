package auth

import (
	"github.com/vavipcommerce/vavip-backend/internal/users"
)

// RegisterRequest is the payload for password registration.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName string  `json:"first_name" validate:"omitempty,max=100"`
	LastName  string  `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// LoginRequest carries either an email or a phone plus the password.
type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest holds the editable profile fields. Nil means leave
// the field untouched.
type UpdateProfileRequest struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// ChangePasswordRequest carries the credential rotation payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// RefreshRequest carries the refresh token to exchange.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest optionally includes the refresh token so both halves of the
// pair get revoked.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"omitempty"`
}

// OTPSendRequest asks for a confirmation code.
type OTPSendRequest struct {
	Phone string `json:"phone" validate:"required,max=32"`
}

// OTPVerifyRequest exchanges a confirmation code for a session.
type OTPVerifyRequest struct {
	Phone     string `json:"phone" validate:"required,max=32"`
	Code      string `json:"code" validate:"required,min=4,max=10"`
	FirstName string `json:"first_name" validate:"omitempty,max=100"`
}

// AuthResponse is the standard session payload.
type AuthResponse struct {
	User         *users.UserDTO `json:"user"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
}

// OTPVerifyResponse extends the session payload with provisioning info.
type OTPVerifyResponse struct {
	AuthResponse
	AccountCreated bool   `json:"account_created"`
	DevPassword    string `json:"dev_password,omitempty"`
}

// OTPSendResponse acknowledges code delivery. DevCode is only populated in
// development environments.
type OTPSendResponse struct {
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in_seconds"`
	DevCode   string `json:"dev_code,omitempty"`
}

// TokenPairResponse is returned by refresh.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
