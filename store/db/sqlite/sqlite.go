package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"strings"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/chorus/internal/profile"
	"github.com/hrygo/chorus/store"
)

// ============================================================================
// SQLITE SUPPORT POLICY
// ============================================================================
// SQLite is supported on a BEST-EFFORT basis for development and testing.
//
// Differences from the PostgreSQL driver:
// - Foreign keys are enabled explicitly (the schema's cascade rules depend on
//   them): deleting a conversation, message, response or block must take its
//   dependents with it, and deleting a folder must detach conversations.
// - No deferrable constraints: selection_order uniqueness within a turn is
//   enforced by the reorder transaction, not the schema.
// - Single connection with WAL journal mode; concurrent writers queue.
// ============================================================================

//go:embed migration
var migrationFS embed.FS

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a database specified by the profile's DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// Pragmas:
	// - foreign_keys(1): cascade rules are part of the data contract here.
	// - busy_timeout: wait for the writer instead of failing immediately.
	// - journal_mode(WAL): recommended journal mode, avoids most locking.
	//
	// With the modernc.org/sqlite driver each pragma is prefixed with `_pragma=`.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// Single connection is optimal for SQLite with WAL.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}

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
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type='table' AND name='conversations')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}

// Migrate applies the latest schema on a fresh database.
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

// isUniqueViolation detects a UNIQUE constraint failure on the named
// column. The modernc driver does not expose a stable typed error across
// versions, so the message, which lists the violated columns, is the
// contract here.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
