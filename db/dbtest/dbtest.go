// Package dbtest provides a lightweight Postgres test harness for the
// data package. Unlike the teacher's container-orchestrated
// github.com/stellar/go/support/db/dbtest, this repo has no dependency on
// the Stellar SDK, so the harness instead points at a real Postgres
// instance named by VERIFICATION_TEST_DATABASE_URL and skips the test
// outright when that variable is unset — the same "best-effort real
// Postgres, or don't run" spirit, without the SDK's Docker orchestration.
package dbtest

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"testing"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/ramp-payments/verification-engine/db/migrations"
)

const testDatabaseURLEnvVar = "VERIFICATION_TEST_DATABASE_URL"

// DB is a handle on an isolated schema inside the shared test Postgres
// instance. Close drops the schema.
type DB struct {
	DSN    string
	schema string
	admin  *sql.DB
}

// OpenWithoutMigrations creates a fresh, empty schema and returns a DSN
// scoped to it, skipping the test if VERIFICATION_TEST_DATABASE_URL is
// unset.
func OpenWithoutMigrations(t *testing.T) *DB {
	t.Helper()

	baseURL := os.Getenv(testDatabaseURLEnvVar)
	if baseURL == "" {
		t.Skipf("%s not set, skipping test requiring a real database", testDatabaseURLEnvVar)
	}

	admin, err := sql.Open("postgres", baseURL)
	if err != nil {
		t.Fatalf("opening %s: %v", testDatabaseURLEnvVar, err)
	}

	schema := fmt.Sprintf("test_%d", os.Getpid())
	if _, err := admin.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		t.Fatalf("creating test schema %s: %v", schema, err)
	}

	return &DB{
		DSN:    fmt.Sprintf("%s&search_path=%s", baseURL, schema),
		schema: schema,
		admin:  admin,
	}
}

// Open creates a fresh schema and applies every migration to it.
func Open(t *testing.T) *DB {
	t.Helper()
	db := OpenWithoutMigrations(t)

	conn, err := sql.Open("postgres", db.DSN)
	if err != nil {
		t.Fatalf("connecting to test schema: %v", err)
	}
	defer conn.Close()

	ms := migrate.MigrationSet{TableName: "migrations", SchemaName: db.schema}
	src := migrate.HttpFileSystemMigrationSource{FileSystem: http.FS(migrations.FS)}
	if _, err := ms.ExecMax(conn, "postgres", src, migrate.Up, 0); err != nil {
		t.Fatalf("applying migrations to test schema: %v", err)
	}

	return db
}

// Close drops the schema this DB owns.
func (db *DB) Close() {
	if _, err := db.admin.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", db.schema)); err != nil {
		// best-effort cleanup, the schema name is process-scoped so a leak
		// here does not collide with the next test run
		_ = err
	}
	db.admin.Close()
}
