package auth

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

type tokenCache interface {
	CachedToken(ctx context.Context, username string) (string, error)
	CacheToken(ctx context.Context, username, token string) error
}

// Issuer hands out tokens after a successful Verify. A cached token that is
// still valid is returned unchanged; otherwise a new one is minted and cached.
type Issuer struct {
	cache  tokenCache
	tokens *Tokens
	logger *slog.Logger
	group  singleflight.Group
}

func NewIssuer(cache tokenCache, tokens *Tokens, logger *slog.Logger) *Issuer {
	return &Issuer{cache: cache, tokens: tokens, logger: logger}
}

func (i *Issuer) Issue(ctx context.Context, id Identity) (string, error) {
	// the flight is shared, so one caller going away must not fail the rest
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := i.group.Do(id.Username, func() (any, error) {
		return i.issue(flightCtx, id)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (i *Issuer) issue(ctx context.Context, id Identity) (string, error) {
	cached, err := i.cache.CachedToken(ctx, id.Username)
	if errors.Is(err, ErrUserNotFound) {
		// removed after Verify
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", err
	}
	if cached != "" {
		if got, err := i.tokens.Validate(cached); err == nil && got.Username == id.Username {
			return cached, nil
		}
	}

	token, _, err := i.tokens.Sign(id.Username)
	if err != nil {
		return "", err
	}
	// a failed cache write costs reuse only; the token is still good
	if err := i.cache.CacheToken(ctx, id.Username, token); err != nil {
		i.logger.Warn("cache issued token", "username", id.Username, "err", err)
	}
	return token, nil
}
