package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the "role" claim.
const (
	RoleCandidate = "candidate"
	RoleHR        = "hr"
)

const defaultTTL = 24 * time.Hour

// Claims represents the identity contained in a JWT.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// SignJWT signs the given claims with HS256.
func SignJWT(secret []byte, claims Claims) (string, error) {
	if len(secret) == 0 {
		return "", ErrMissingSecret
	}
	if claims.Subject == "" {
		return "", errors.New("sub is required")
	}
	now := time.Now().UTC()
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(defaultTTL))
	}
	if claims.Role == "" {
		claims.Role = RoleCandidate
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyJWT verifies an HS256 token and returns its claims.
func VerifyJWT(secret []byte, token string) (Claims, error) {
	if len(secret) == 0 {
		return Claims{}, ErrMissingSecret
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	if claims.Role == "" {
		claims.Role = RoleCandidate
	}
	return claims, nil
}
