package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenMalformed is returned when a token is not a compact JWS at all.
var ErrTokenMalformed = errors.New("token is malformed")

// ErrTokenInvalid is returned when a token fails signature or content checks.
var ErrTokenInvalid = errors.New("token is invalid")

// ErrTokenExpired is returned for a correctly signed token past its expiry.
var ErrTokenExpired = errors.New("token is expired")

// tokenClaims is the JWT wire form of Claims.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// TokenCodec signs Claims into bearer tokens and verifies them. Only HMAC
// algorithms are accepted and the configured one is pinned on verification.
type TokenCodec struct {
	key    []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// TokenOption configures a TokenCodec.
type TokenOption func(*TokenCodec)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// NewTokenCodec creates a codec for the given secret and algorithm
// (HS256, HS384 or HS512).
func NewTokenCodec(secret, algorithm string, opts ...TokenOption) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}

	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported token algorithm %q", algorithm)
	}

	c := &TokenCodec{
		key:    []byte(secret),
		method: method,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs claims with an expiry of now+ttl. Any ExpiresAt already set on
// claims is ignored.
func (c *TokenCodec) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := c.now()
	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: claims.UserID,
		Role:   claims.Role,
	}

	signed, err := jwt.NewWithClaims(c.method, tc).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, then the embedded expiry, and returns the
// decoded claims. It fails closed: anything that is not a correctly signed,
// unexpired token with a subject and user id is an error.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	if !isCompactJWS(token) {
		return nil, ErrTokenMalformed
	}

	var tc tokenClaims
	_, err := jwt.ParseWithClaims(token, &tc,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if tc.Subject == "" || tc.UserID == "" {
		return nil, fmt.Errorf("%w: missing subject or user id", ErrTokenInvalid)
	}

	return &Claims{
		Subject:   tc.Subject,
		UserID:    tc.UserID,
		Role:      tc.Role,
		ExpiresAt: tc.ExpiresAt.Time,
	}, nil
}

// isCompactJWS reports whether token has the header.payload.signature shape.
// The signature segment may be empty so that unsigned tokens reach the
// algorithm check and are rejected as invalid rather than malformed.
func isCompactJWS(token string) bool {
	parts := strings.Split(token, ".")
	return len(parts) == 3 && parts[0] != "" && parts[1] != ""
}
