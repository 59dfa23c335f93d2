package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Repository is the durable user storage behind Credentials.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	SetCachedToken(ctx context.Context, username, token string) error
}

// Credentials is the credential store: registration, password verification
// and role lookup over a Repository.
type Credentials struct {
	repo   Repository
	hasher Hasher

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentials(repo Repository, hasher Hasher) *Credentials {
	return &Credentials{repo: repo, hasher: hasher}
}

// Register stores a new user. An empty role defaults to RoleUser.
func (c *Credentials) Register(ctx context.Context, username, password string, role Role) (*User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}
	if role == "" {
		role = RoleUser
	}
	hash, err := c.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{Username: username, PasswordHash: hash, Role: role}
	if err := c.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Verify checks a username/password pair. Unknown users and wrong passwords
// both return ErrUnauthenticated, and both pay for one hash comparison.
func (c *Credentials) Verify(ctx context.Context, username, password string) (Identity, error) {
	if username == "" || password == "" {
		return Identity{}, ErrUnauthenticated
	}
	u, err := c.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		_ = c.hasher.Compare(c.dummy(), password)
		return Identity{}, ErrUnauthenticated
	}
	if err != nil {
		return Identity{}, err
	}
	if err := c.hasher.Compare(u.PasswordHash, password); err != nil {
		return Identity{}, ErrUnauthenticated
	}
	return Identity{Username: u.Username}, nil
}

func (c *Credentials) GetRole(ctx context.Context, username string) (Role, error) {
	u, err := c.repo.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (c *Credentials) CachedToken(ctx context.Context, username string) (string, error) {
	u, err := c.repo.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return u.CachedToken, nil
}

func (c *Credentials) CacheToken(ctx context.Context, username, token string) error {
	return c.repo.SetCachedToken(ctx, username, token)
}

func (c *Credentials) dummy() string {
	c.dummyOnce.Do(func() {
		c.dummyHash, _ = c.hasher.Hash("rentalcore-timing-equalizer")
	})
	return c.dummyHash
}

type usersFile struct {
	Users []struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Role     Role   `yaml:"role"`
	} `yaml:"users"`
}

// SeedFromFile registers the users listed in a YAML file. Existing usernames
// and incomplete entries are skipped.
func (c *Credentials) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	created := 0
	for _, u := range uf.Users {
		if u.Username == "" || u.Password == "" {
			continue
		}
		_, err := c.Register(ctx, u.Username, u.Password, u.Role)
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrConflict):
		default:
			return created, fmt.Errorf("seed %s: %w", u.Username, err)
		}
	}
	return created, nil
}
