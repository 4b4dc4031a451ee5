package auth

import (
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.AdminRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to dashboard users.
type AccessTokenClaims struct {
	UserID uuid.UUID       `json:"user_id"`
	Role   enums.AdminRole `json:"role"`
	jwt.RegisteredClaims
}
