package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"accounts-api/internal/entities"
)

// ErrInvalidToken is returned when a token is malformed, expired, or signed
// with a different key.
var ErrInvalidToken = errors.New("invalid or expired token")

// Leeway tolerated when checking token expiry, to absorb small clock skew
// between the issuing and verifying processes.
const clockSkewLeeway = 30 * time.Second

// Claims carries the authenticated identity inside a signed token.
type Claims struct {
	UserID int64         `json:"uid"`
	Role   entities.Role `json:"role"`
	jwtlib.RegisteredClaims
}

// JWTService issues and verifies HS256-signed bearer tokens. The signing
// key is process-wide configuration loaded once at startup.
type JWTService struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// GenerateToken issues a signed, time-bounded token for the given identity.
func (s *JWTService) GenerateToken(userID int64, role entities.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string, returning its claims.
// Tokens signed with a different key, malformed tokens, and tokens past
// their expiry (beyond the skew leeway) all fail with ErrInvalidToken.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwtlib.ParseWithClaims(tokenString, claims, func(t *jwtlib.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithLeeway(clockSkewLeeway),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
