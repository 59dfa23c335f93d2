package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

func (d Dialect) gooseDialect() goose.Dialect {
	switch d {
	case MySQL:
		return goose.DialectMySQL
	case SQLite:
		return goose.DialectSQLite3
	default:
		return goose.DialectPostgres
	}
}

// RunMigrations applies the embedded schema for the dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	fsys, err := fs.Sub(migrations, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", dialect, err)
	}
	provider, err := goose.NewProvider(dialect.gooseDialect(), db, fsys)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
