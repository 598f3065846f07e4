package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access from refresh tokens. It travels in the
// registered "sub" claim.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// ErrInvalidToken covers every decode failure: bad signature, malformed
// payload, wrong algorithm and expiry all collapse into it.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload carried by access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

// Type returns the subject type of the token.
func (c Claims) Type() TokenType {
	return TokenType(c.Subject)
}

// TokenCodec issues and decodes HMAC-signed JWTs.
type TokenCodec struct {
	method *jwt.SigningMethodHMAC
	secret []byte
	now    func() time.Time
}

// NewTokenCodec builds a codec for the named HMAC algorithm (HS256, HS384, HS512).
func NewTokenCodec(secret, algorithm string) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	method, ok := jwt.GetSigningMethod(strings.ToUpper(strings.TrimSpace(algorithm))).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &TokenCodec{
		method: method,
		secret: []byte(secret),
		now:    time.Now,
	}, nil
}

// WithClock returns a copy of the codec that reads time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	clone := *c
	clone.now = now
	return &clone
}

// Issue signs claims as a token of the given type expiring ttl from now.
// The subject, issue time, expiry and token id of claims are overwritten.
func (c *TokenCodec) Issue(tokenType TokenType, claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	now := c.now()
	claims.Subject = string(tokenType)
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(c.method, claims)
	return token.SignedString(c.secret)
}

// Decode verifies tokenString and returns its claims.
// It does not check the subject type; callers do.
func (c *TokenCodec) Decode(tokenString string) (Claims, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
