package auth

import (
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTokenPayload captures the identity snapshot embedded at sign-in.
type SessionTokenPayload struct {
	UserID uuid.UUID
	Email  string
	Role   enums.Role
	JTI    string
}

// SessionClaims represents the typed JWT issued to clients. Role is the role held at
// issue time; it is only refreshed when a new token is minted.
type SessionClaims struct {
	UserID uuid.UUID  `json:"uid"`
	Email  string     `json:"email"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}
