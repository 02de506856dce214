package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/logiflow/dispatch-backend/config"
	"github.com/logiflow/dispatch-backend/types"
)

var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrTokenMissingClaim = errors.New("token missing required claim")
)

// Claims is what the API needs from a token.
type Claims struct {
	UserID string
	Role   types.Role
}

type Validator interface {
	Validate(tokenString string) (*Claims, error)
}

// JWTValidator validates HS256 tokens signed with the server secret. The
// subject is the user ID and the private "role" claim the dashboard role.
type JWTValidator struct {
	secret []byte
	skew   time.Duration
}

var _ Validator = (*JWTValidator)(nil)

func NewJWTValidator(cfg *config.ServerConfig) (*JWTValidator, error) {
	if cfg.JwtSecretKey == "" {
		return nil, fmt.Errorf("JWT validator configuration error: JWT secret key is not set")
	}
	return &JWTValidator{
		secret: []byte(cfg.JwtSecretKey),
		skew:   30 * time.Second,
	}, nil
}

func (v *JWTValidator) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, v.secret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(v.skew),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if token.Subject() == "" {
		return nil, fmt.Errorf("%w: sub", ErrTokenMissingClaim)
	}

	// Tokens without a role get the least privileged one.
	role := types.RoleViewer
	if raw, ok := token.Get("role"); ok {
		s, isString := raw.(string)
		if !isString || !types.Role(s).IsValid() {
			return nil, fmt.Errorf("%w: unknown role %v", ErrTokenInvalid, raw)
		}
		role = types.Role(s)
	}

	return &Claims{UserID: token.Subject(), Role: role}, nil
}
