// Package catalog is the relational metadata store of a node. It opens the
// database, applies migrations and vends repositories bound to either the
// pool or a transaction. The same schema and queries run on SQLite (local
// node) and PostgreSQL (cloud node).
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/closetsync/internal/catalog/migrations"
	"github.com/dmitrijs2005/closetsync/internal/catalog/repositories/derived"
	"github.com/dmitrijs2005/closetsync/internal/catalog/repositories/favorites"
	"github.com/dmitrijs2005/closetsync/internal/catalog/repositories/images"
	"github.com/dmitrijs2005/closetsync/internal/catalog/repositories/jobs"
	"github.com/dmitrijs2005/closetsync/internal/catalog/repositories/syncrecords"
	"github.com/dmitrijs2005/closetsync/internal/catalog/repositories/users"
	"github.com/dmitrijs2005/closetsync/internal/dbx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against the pool or inside dbx.WithTx.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Images(db dbx.DBTX) images.Repository
	Jobs(db dbx.DBTX) jobs.Repository
	Favorites(db dbx.DBTX) favorites.Repository
	Derived(db dbx.DBTX) derived.Repository
	SyncRecords(db dbx.DBTX) syncrecords.Repository
}

// Catalog owns the database handle of a node.
type Catalog struct {
	DB      *sql.DB
	dialect dbx.Dialect
}

var _ RepositoryManager = (*Catalog)(nil)

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// Open connects with driver ("sqlite" or "pgx"), verifies the connection
// and applies pending migrations.
func Open(ctx context.Context, driver, dsn string) (*Catalog, error) {
	d, err := dbx.DialectForDriver(driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if d == dbx.DialectSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	c := New(db, d)
	if err := c.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an already opened database.
func New(db *sql.DB, d dbx.Dialect) *Catalog {
	return &Catalog{DB: db, dialect: d}
}

func (c *Catalog) Dialect() dbx.Dialect { return c.dialect }

func (c *Catalog) Migrate(ctx context.Context) error {
	return migrations.Up(ctx, c.DB, c.dialect)
}

func (c *Catalog) Close() error {
	return c.DB.Close()
}

// WithTx runs fn in a transaction on the catalog database.
func (c *Catalog) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, c.DB, nil, fn)
}

func (c *Catalog) bind(db dbx.DBTX) dbx.DBTX {
	return dbx.Rebound(db, c.dialect)
}

func (c *Catalog) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(c.bind(db))
}

func (c *Catalog) Images(db dbx.DBTX) images.Repository {
	return images.NewSQLRepository(c.bind(db))
}

func (c *Catalog) Jobs(db dbx.DBTX) jobs.Repository {
	return jobs.NewSQLRepository(c.bind(db))
}

func (c *Catalog) Favorites(db dbx.DBTX) favorites.Repository {
	return favorites.NewSQLRepository(c.bind(db))
}

func (c *Catalog) Derived(db dbx.DBTX) derived.Repository {
	return derived.NewSQLRepository(c.bind(db))
}

func (c *Catalog) SyncRecords(db dbx.DBTX) syncrecords.Repository {
	return syncrecords.NewSQLRepository(c.bind(db))
}
