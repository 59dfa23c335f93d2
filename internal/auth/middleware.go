package auth

import (
	"context"
	"net/http"

	"log/slog"

	"rentalcore/internal/httpx"
)

type contextKey string

const identityContextKey contextKey = "rentalcore_identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}

// Validator turns a presented token into an Identity.
type Validator interface {
	Validate(raw string) (Identity, error)
}

// Authorizer decides whether an identity may use a route.
type Authorizer interface {
	Authorize(ctx context.Context, id Identity, required RoleSet) error
}

// Observer is told the outcome of every access decision. It may be nil.
type Observer interface {
	ObserveDecision(outcome string)
}

type Guard struct {
	validator  Validator
	authorizer Authorizer
	observer   Observer
	logger     *slog.Logger
}

func NewGuard(v Validator, a Authorizer, o Observer, logger *slog.Logger) *Guard {
	return &Guard{validator: v, authorizer: a, observer: o, logger: logger}
}

// Authenticated admits any request carrying a valid token.
func (g *Guard) Authenticated(next http.Handler) http.Handler {
	return g.wrap(next, nil)
}

// RequireRoles admits a request whose token is valid and whose user currently
// holds one of roles.
func (g *Guard) RequireRoles(next http.Handler, roles ...Role) http.Handler {
	return g.wrap(next, Roles(roles...))
}

func (g *Guard) wrap(next http.Handler, required RoleSet) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.validator.Validate(TokenFromHeader(r.Header.Get("Authorization")))
		if err == nil && required != nil {
			err = g.authorizer.Authorize(r.Context(), id, required)
		}
		if err != nil {
			g.reject(w, r, id, err)
			return
		}
		g.observe(OutcomeAllowed)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, id Identity, err error) {
	status, msg, outcome := Describe(err)
	g.observe(outcome)
	if status >= http.StatusInternalServerError {
		g.logger.Error("access check", "path", r.URL.Path, "err", err)
	} else {
		g.logger.Info("access denied", "path", r.URL.Path, "outcome", outcome, "username", id.Username)
	}
	httpx.WriteError(w, status, msg)
}

func (g *Guard) observe(outcome string) {
	if g.observer != nil {
		g.observer.ObserveDecision(outcome)
	}
}
