package sqlite

import (
	"context"
	"database/sql"

	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/storage/sqlite/migrations"
)

// migration is one forward-only schema step, numbered for ordering and
// for the schema_version watermark stored in metadata.
type migration struct {
	version int32
	apply   func(ctx context.Context, db *sql.DB) error
}

var registeredMigrations = []migration{
	{version: 1, apply: migrations.AddFilterSubscriptionIndex},
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	var current int32
	if err := db.QueryRowContext(ctx, `SELECT schema_version FROM metadata WHERE id = 1`).Scan(&current); err != nil {
		return flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "read schema version")
	}

	for _, m := range registeredMigrations {
		if m.version <= current {
			continue
		}
		if err := m.apply(ctx, db); err != nil {
			return flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "apply migration %d", m.version)
		}
		if _, err := db.ExecContext(ctx, `UPDATE metadata SET schema_version = ? WHERE id = 1`, m.version); err != nil {
			return flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "record schema version %d", m.version)
		}
	}
	return nil
}
