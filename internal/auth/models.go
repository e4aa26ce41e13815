package auth

import (
	"github.com/golang-jwt/jwt/v4"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

// Claims carried by operator tokens. CompanyID is empty for network-wide admins.
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
