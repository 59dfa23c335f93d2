package auth

import (
	"context"
	"errors"
)

type RoleLookup interface {
	GetRole(ctx context.Context, username string) (Role, error)
}

// Gate compares an identity's current role with a route's accepted roles.
// The role is looked up on every call, so role changes apply immediately.
type Gate struct {
	roles RoleLookup
}

func NewGate(roles RoleLookup) *Gate {
	return &Gate{roles: roles}
}

// Authorize returns nil, ErrForbidden, or a storage error. An empty required
// set admits nobody.
func (g *Gate) Authorize(ctx context.Context, id Identity, required RoleSet) error {
	role, err := g.roles.GetRole(ctx, id.Username)
	if errors.Is(err, ErrUserNotFound) {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if !required.Contains(role) {
		return ErrForbidden
	}
	return nil
}
