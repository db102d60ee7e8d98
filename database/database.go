package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"form-forge/config"
)

func Open(cfg config.Config) (db *sql.DB, err error) {
	// the pragma must travel in the DSN so every pooled connection gets
	// it, not just the one that would run a one-shot Exec
	db, err = sql.Open("sqlite3", cfg.DBUrl+"?_foreign_keys=on")
	if err != nil {
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return
	}

	return
}
