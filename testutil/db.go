// Package testutil provides shared helpers for the catalog database tests.
// Postgres helpers skip when TEST_DATABASE_URL is unset; SQLite helpers
// always run against a private in-memory database.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/ECHOzdjd/iSpot/migrations"
)

// dsnEnv names the variable that opts a test run into Postgres.
const dsnEnv = "TEST_DATABASE_URL"

// DatabaseURL returns the Postgres DSN for integration tests and skips t when
// none is configured.
func DatabaseURL(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skip(dsnEnv + " not set; skipping Postgres test")
	}
	return dsn
}

// NewPool returns a pool on the test database, closed when t finishes.
// repo.MarkerRepo tests begin a transaction on it and roll it back.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, DatabaseURL(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewSQLDB returns a database/sql handle on the test database for driving
// goose directly, closed when t finishes.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := openSQLDB(DatabaseURL(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// RunMigrated runs m after bringing the test database up to the latest
// marker schema. Without TEST_DATABASE_URL it just runs m, so SQLite and
// unit tests in the same package still execute. Use it from TestMain:
//
//	func TestMain(m *testing.M) { os.Exit(testutil.RunMigrated(m)) }
func RunMigrated(m *testing.M) int {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		return m.Run()
	}
	if err := migrateUp(dsn); err != nil {
		fmt.Fprintf(os.Stderr, "testutil.RunMigrated: %v\n", err)
		return 1
	}
	return m.Run()
}

// SQLitePath returns a shared-cache in-memory SQLite DSN private to t, for
// repo.OpenSQLite.
func SQLitePath(t *testing.T) string {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "?", "_", "&", "_").Replace(t.Name())
	return "file:" + name + "?mode=memory&cache=shared"
}

func openSQLDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

func migrateUp(dsn string) error {
	db, err := openSQLDB(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	if _, err := provider.Up(context.Background()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
