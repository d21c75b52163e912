package catalog

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrate brings db up to the latest schema version using goose,
// mirroring the versioned-migration-list shape of
// Wraient-pair/pkg/database/migrations.go but expressed as goose's
// numbered SQL files.
func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}
