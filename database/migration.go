package database

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"form-forge/log"
)

//go:embed migrations
var schemaFS embed.FS

// migrateDB brings the form schema up to the latest embedded migration.
func migrateDB(db *sql.DB) error {
	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return err
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return err
	}

	err = migrator.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Debug("db.migrate: schema already up to date")
		return nil
	}
	return err
}
