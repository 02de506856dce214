// Package auth issues dashboard access tokens. The API validates them in
// middleware.JWTValidator.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/logiflow/dispatch-backend/types"
)

const minSecretLength = 32

// DashboardClaims carries the user ID in sub and the dashboard role.
type DashboardClaims struct {
	Role types.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for userID valid for ttl.
func IssueToken(secret, userID string, role types.Role, ttl time.Duration) (string, error) {
	if len(secret) < minSecretLength {
		return "", fmt.Errorf("JWT secret key is too short (should be at least %d characters)", minSecretLength)
	}
	if userID == "" {
		return "", errors.New("user ID is required")
	}
	if !role.IsValid() {
		return "", fmt.Errorf("unknown role %q", role)
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}

	now := time.Now()
	claims := DashboardClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies a token issued by IssueToken.
func ParseToken(tokenString, secret string) (*DashboardClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DashboardClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*DashboardClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token structure")
	}
	return claims, nil
}
