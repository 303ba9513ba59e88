// Package migrations embeds the catalog schema and applies it with goose.
// The same files serve SQLite and PostgreSQL.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/closetsync/internal/dbx"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var Migrations embed.FS

// newProvider is a seam for testing goose.NewProvider.
var newProvider = func(dialect goose.Dialect, db *sql.DB, fsys fs.FS) (*goose.Provider, error) {
	return goose.NewProvider(dialect, db, fsys)
}

func gooseDialect(d dbx.Dialect) (goose.Dialect, error) {
	switch d {
	case dbx.DialectSQLite:
		return goose.DialectSQLite3, nil
	case dbx.DialectPostgres:
		return goose.DialectPostgres, nil
	}
	return "", fmt.Errorf("no migration dialect for %q", d)
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, d dbx.Dialect) error {
	gd, err := gooseDialect(d)
	if err != nil {
		return err
	}

	p, err := newProvider(gd, db, Migrations)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
