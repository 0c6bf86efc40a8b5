// Package sqlite is the mattn/go-sqlite3-backed Storage Contract
// implementation (§4.L): opening the per-filter_list_type database file,
// running the lift-up bootstrap sequence, and streaming large rule
// bodies out via an incremental blob reader.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/storage"
)

// Open opens (creating if necessary) the SQLite database at path,
// first ensuring its parent directory exists.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, flmerrors.Wrap(flmerrors.PathNotFound, err, "create database directory %s", dir)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "open database %s", path)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "ping database %s", path)
	}
	return db, nil
}

// NewConnectionManager opens path and wraps it in a ConnectionManager
// whose LiftUpDatabase runs the schema + migrations + bootstrap-rows
// sequence.
func NewConnectionManager(path string) (*storage.ConnectionManager, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return storage.NewConnectionManager(db, LiftUp), nil
}

// LiftUp is the one-shot database bootstrap: schema creation, pending
// migrations, and the bootstrap rows (User Rules filter, custom group).
// It must run under ConnectionManager.LiftUpDatabase, never Execute.
func LiftUp(ctx context.Context, db *sql.DB) error {
	if err := createBaseSchema(ctx, db); err != nil {
		return err
	}
	if err := runMigrations(ctx, db); err != nil {
		return err
	}
	return insertBootstrapRows(ctx, db)
}
