package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vavipcommerce/vavip-backend/pkg/enums"
)

// TokenUse discriminates access tokens from refresh tokens.
type TokenUse string

const (
	TokenUseAccess  TokenUse = "access"
	TokenUseRefresh TokenUse = "refresh"
)

// TokenPayload captures the data available when minting a JWT.
type TokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	JTI    string
}

// Claims represents the typed JWT issued to clients.
type Claims struct {
	UserID   uuid.UUID      `json:"user_id"`
	Role     enums.UserRole `json:"role"`
	TokenUse TokenUse       `json:"token_use"`
	jwt.RegisteredClaims
}

// TokenPair bundles the credentials returned by login, register and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
