package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rentalcore/internal/db"
)

// Store persists users in SQL. Every mutation is a single statement, so
// readers never see a partially written record.
type Store struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewStore(conn *sql.DB, dialect db.Dialect) *Store {
	return &Store{db: conn, dialect: dialect}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	q := s.dialect.Rebind(`SELECT id, username, password_hash, role, cached_token FROM users WHERE username = ?`)
	u := &User{}
	var cached sql.NullString
	if err := s.db.QueryRowContext(ctx, q, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &cached); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, storageErr("get user", err)
	}
	u.CachedToken = cached.String
	return u, nil
}

// Create inserts u and sets u.ID. The UNIQUE constraint on username decides
// concurrent registrations of the same name.
func (s *Store) Create(ctx context.Context, u *User) error {
	if u.Username == "" || u.PasswordHash == "" {
		return ErrInvalidInput
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	const q = `INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`
	id, err := s.dialect.InsertID(ctx, s.db, q, u.Username, u.PasswordHash, string(u.Role))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrConflict
		}
		return storageErr("create user", err)
	}
	u.ID = id
	return nil
}

func (s *Store) SetCachedToken(ctx context.Context, username, token string) error {
	q := s.dialect.Rebind(`UPDATE users SET cached_token = ? WHERE username = ?`)
	res, err := s.db.ExecContext(ctx, q, token, username)
	if err != nil {
		return storageErr("cache token", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("cache token", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
