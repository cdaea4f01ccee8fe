package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

const (
	// RoleAdmin is the only role this service issues
	RoleAdmin = "admin"

	// SessionLifetime is how long a minted session stays valid
	SessionLifetime = 8 * time.Hour
)

var (
	ErrMissingSecret = errors.New("session signing secret is not set")
	ErrEmptySubject  = errors.New("session subject is empty")
)

// Claims represents the JWT claims carried in the session cookie
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// CodecOption configures a TokenCodec
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for minting and verification
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// TokenCodec mints and verifies HS256-signed admin session tokens.
// It holds no mutable state and is safe for concurrent use.
type TokenCodec struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenCodec creates a codec bound to the given signing secret
func NewTokenCodec(secret string, opts ...CodecOption) (*TokenCodec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	c := &TokenCodec{
		secret:   []byte(secret),
		lifetime: SessionLifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Mint creates a new signed session token for the given admin username
func (c *TokenCodec) Mint(subject string) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}

	now := c.now()
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and validity window of a token and returns the
// decoded session. Any failure yields nil.
func (c *TokenCodec) Verify(tokenString string) *Session {
	claims, err := c.parse(tokenString)
	if err != nil {
		return nil
	}

	return claims.session()
}

// parse validates the token and returns its claims with the failure reason
func (c *TokenCodec) parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("empty token")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Role != RoleAdmin {
		return nil, fmt.Errorf("unexpected role %q", claims.Role)
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("incomplete claims")
	}

	return claims, nil
}

// Inspect is like Verify but reports why a token was rejected.
// Used by the operator CLI; request paths must use Verify.
func (c *TokenCodec) Inspect(tokenString string) (*Session, error) {
	claims, err := c.parse(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.session(), nil
}
