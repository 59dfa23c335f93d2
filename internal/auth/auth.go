package auth

import (
	"context"
	"log/slog"
	"time"
)

// Service bundles the credential store, issuer, validator and gate behind the
// operations the HTTP layer needs.
type Service struct {
	creds  *Credentials
	tokens *Tokens
	issuer *Issuer
	gate   *Gate
	logger *slog.Logger
}

func NewService(repo Repository, hasher Hasher, secret string, ttl time.Duration, now func() time.Time, logger *slog.Logger) *Service {
	creds := NewCredentials(repo, hasher)
	tokens := NewTokens(secret, ttl, now)
	return &Service{
		creds:  creds,
		tokens: tokens,
		issuer: NewIssuer(creds, tokens, logger),
		gate:   NewGate(creds),
		logger: logger,
	}
}

func (s *Service) Credentials() *Credentials { return s.creds }
func (s *Service) Tokens() *Tokens           { return s.tokens }
func (s *Service) Gate() *Gate               { return s.gate }

func (s *Service) Register(ctx context.Context, username, password string, role Role) (*User, error) {
	u, err := s.creds.Register(ctx, username, password, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "username", u.Username, "role", u.Role)
	return u, nil
}

// Login verifies the credentials and returns a token for them.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	id, err := s.creds.Verify(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.issuer.Issue(ctx, id)
}

func (s *Service) Validate(raw string) (Identity, error) {
	return s.tokens.Validate(raw)
}

func (s *Service) Authorize(ctx context.Context, id Identity, required RoleSet) error {
	return s.gate.Authorize(ctx, id, required)
}
