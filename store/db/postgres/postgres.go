// Package postgres implements the store driver for PostgreSQL.
// PostgreSQL is the primary production driver; all referential cascades
// (conversation deletion, block retraction from selections) are enforced
// at the schema level.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/hrygo/chorus/internal/profile"
	"github.com/hrygo/chorus/store"
)

//go:embed migration
var migrationFS embed.FS

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL database using the DSN from the profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: db, profile: profile}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = 'conversations')",
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}

// Migrate applies the latest schema on a fresh database. An already
// initialized database is left untouched.
func (d *DB) Migrate(ctx context.Context) error {
	initialized, err := d.IsInitialized(ctx)
	if err != nil {
		return err
	}
	if initialized {
		return nil
	}

	ddl, err := migrationFS.ReadFile("migration/LATEST.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read migration file")
	}
	if _, err := d.db.ExecContext(ctx, string(ddl)); err != nil {
		return errors.Wrap(err, "failed to apply migration")
	}
	return nil
}

// placeholder returns the positional parameter for the given 1-based index.
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns "$1, $2, ..., $n".
func placeholders(n int) string {
	list := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			list += ", "
		}
		list += placeholder(i)
	}
	return list
}
