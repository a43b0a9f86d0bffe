package db

import (
	"context"
	"embed"
	"fmt"
	"net/http"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/ramp-payments/verification-engine/internal/utils"
)

const MigrationsTableName = "migrations"

// Migrate applies (or reverts) the engine's schema migrations against dbURL.
func Migrate(dbURL string, dir migrate.MigrationDirection, count int, migrationFiles embed.FS) (int, error) {
	dbConnectionPool, err := OpenDBConnectionPool(dbURL)
	if err != nil {
		return 0, fmt.Errorf("database URL '%s': %w", utils.TruncateString(dbURL, len(dbURL)/4), err)
	}
	defer dbConnectionPool.Close()

	ms := migrate.MigrationSet{TableName: MigrationsTableName}
	m := migrate.HttpFileSystemMigrationSource{FileSystem: http.FS(migrationFiles)}

	ctx := context.Background()
	sqlDB, err := dbConnectionPool.SqlDB(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching sql.DB: %w", err)
	}
	return ms.ExecMax(sqlDB, dbConnectionPool.DriverName(), m, dir, count)
}
