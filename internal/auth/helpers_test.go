package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rentalcore/internal/db"
)

const testSecret = "test-signing-key"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, db.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.RunMigrations(ctx, conn, db.SQLite))
	return NewStore(conn, db.SQLite)
}

func newTestCredentials(t *testing.T) *Credentials {
	t.Helper()
	return NewCredentials(newTestStore(t), NewBcryptHasher(bcrypt.MinCost))
}

func newTestService(t *testing.T, clock *fakeClock) *Service {
	t.Helper()
	return NewService(newTestStore(t), NewBcryptHasher(bcrypt.MinCost), testSecret, time.Hour, clock.Now, discardLogger())
}
