package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SigninRequest holds credentials forwarded to the backend sign-in endpoint.
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SigninResponse returns the portal session token and the signed-in profile.
type SigninResponse struct {
	Token     string  `json:"token"`
	ExpiresIn int64   `json:"expires_in"`
	Profile   Profile `json:"profile"`
}

// JWTClaims is the payload of portal session tokens. The backend bearer token
// never leaves the server; it is kept in the session's application context.
type JWTClaims struct {
	SessionID string   `json:"sid"`
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	App       App      `json:"app"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	jwt.RegisteredClaims
}
