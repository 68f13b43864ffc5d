package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded SQL migrations in filename order. Each file
// runs in its own transaction and is recorded in a migrations table so a
// restart never re-applies it.
type Migrator struct {
	db *sql.DB
}

func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{db: conn.DB()}
}

// Migrate applies any pending migrations and returns their filenames.
func (m *Migrator) Migrate(ctx context.Context) ([]string, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	files, err := m.getMigrationFiles()
	if err != nil {
		return nil, err
	}

	var newlyApplied []string
	for _, filename := range files {
		if _, ok := applied[filename]; ok {
			continue
		}

		sqlContent, err := migrationsFS.ReadFile("migrations/" + filename)
		if err != nil {
			return newlyApplied, fmt.Errorf("read migration %s: %w", filename, err)
		}

		if err := m.applyMigration(ctx, filename, string(sqlContent)); err != nil {
			return newlyApplied, err
		}

		newlyApplied = append(newlyApplied, filename)
	}

	return newlyApplied, nil
}

func (m *Migrator) ensureMigrationsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS migrations (
	filename TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`)
	if err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]struct{}, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT filename FROM migrations")
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, fmt.Errorf("scan applied migrations: %w", err)
		}
		applied[filename] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}

	return applied, nil
}

func (m *Migrator) getMigrationFiles() ([]string, error) {
	matches, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, m[len("migrations/"):])
	}
	sort.Strings(files)
	return files, nil
}

func (m *Migrator) applyMigration(ctx context.Context, filename, sqlText string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx (%s): %w", filename, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("migration failed (%s): %w", filename, err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO migrations (filename) VALUES ($1) ON CONFLICT DO NOTHING", filename); err != nil {
		return fmt.Errorf("record migration (%s): %w", filename, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration (%s): %w", filename, err)
	}
	return nil
}
