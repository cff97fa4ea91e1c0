package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// EnsureSchema creates table if it does not exist. Each table has its own
// migration set under migrations/<table> and its own version table, so both
// applications may share a database file. Calling it again is a no-op.
func (s *Store) EnsureSchema(ctx context.Context, table string) error {
	// Separate connection: closing the migrate instance closes its database.
	migrateDB, err := sql.Open("sqlite", dsn(s.path))
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{
		MigrationsTable: "schema_migrations_" + table,
	})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations/"+table)
	if err != nil {
		return fmt.Errorf("create iofs source for %s: %w", table, err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.DebugContext(ctx, "Schema already up to date", "table", table)
			return nil
		}
		return fmt.Errorf("run migrations for %s: %w", table, err)
	}

	slog.InfoContext(ctx, "Schema ready", "table", table, "path", s.path)
	return nil
}
