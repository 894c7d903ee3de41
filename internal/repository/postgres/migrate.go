package postgres

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing/fstest"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"redline/migrations"
)

// RunMigrations applies all pending schema migrations.
//
// The embedded SQL uses a {{PREFIX}} placeholder so the same migrations
// work with prefixed table names. The files are rendered into an
// in-memory filesystem before being handed to the migration driver.
func RunMigrations(databaseURL, tablePrefix string) error {
	rendered, err := renderMigrations(tablePrefix)
	if err != nil {
		return err
	}

	source, err := iofs.New(rendered, ".")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func renderMigrations(tablePrefix string) (fs.FS, error) {
	rendered := fstest.MapFS{}

	err := fs.WalkDir(migrations.Files, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(migrations.Files, path)
		if err != nil {
			return err
		}
		rendered[path] = &fstest.MapFile{
			Data: []byte(strings.ReplaceAll(string(data), "{{PREFIX}}", tablePrefix)),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("render migrations: %w", err)
	}

	return rendered, nil
}

// migrateURL rewrites the connection scheme for the migrate pgx/v5 driver.
func migrateURL(databaseURL string) string {
	if rest, ok := strings.CutPrefix(databaseURL, "postgresql://"); ok {
		return "pgx5://" + rest
	}
	if rest, ok := strings.CutPrefix(databaseURL, "postgres://"); ok {
		return "pgx5://" + rest
	}
	return databaseURL
}
