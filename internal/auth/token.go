package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = time.Hour

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Tokens signs and validates HS256 bearer tokens with one process-wide key.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokens builds a signer/validator. A nil clock means time.Now.
func NewTokens(secret string, ttl time.Duration, now func() time.Time) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
		now:    now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(now),
			jwt.WithStrictDecoding(),
		),
	}
}

// Sign mints a token for username expiring one TTL from now.
func (t *Tokens) Sign(username string) (string, time.Time, error) {
	now := t.now().UTC()
	exp := now.Add(t.ttl)
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Validate checks signature first, then expiry. It never consults the
// credential store.
func (t *Tokens) Validate(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrTokenMissing
	}
	claims := &Claims{}
	tok, err := t.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	switch {
	case err == nil && tok.Valid:
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, ErrTokenExpired
	default:
		return Identity{}, ErrTokenMalformed
	}
	if claims.Username == "" {
		return Identity{}, ErrTokenMalformed
	}
	return Identity{Username: claims.Username}, nil
}

// TokenFromHeader extracts the token from an Authorization value. Both the
// raw token and "Bearer <token>" are accepted.
func TokenFromHeader(h string) string {
	h = strings.TrimSpace(h)
	if len(h) >= 6 && strings.EqualFold(h[:6], "bearer") && (len(h) == 6 || h[6] == ' ') {
		return strings.TrimSpace(h[6:])
	}
	return h
}
