package sqlite

import (
	"context"
	"database/sql"

	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/types"
)

// insertBootstrapRows installs the singleton "User Rules" filter, the
// service group it belongs to, and the custom-filters group, if not
// already present. Each is an idempotent no-op on a database that
// already has it.
func insertBootstrapRows(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO filter_group (group_id, name, display_number)
		VALUES (?, 'Service', 0)
	`, types.ServiceGroupID)
	if err != nil {
		return flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "insert service group")
	}

	_, err = db.ExecContext(ctx, `
		INSERT OR IGNORE INTO filter_group (group_id, name, display_number)
		VALUES (?, 'Custom', 0)
	`, types.CustomFiltersGroupID)
	if err != nil {
		return flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "insert custom filters group")
	}

	_, err = db.ExecContext(ctx, `
		INSERT OR IGNORE INTO filter (
			filter_id, group_id, title, is_enabled, is_installed, is_trusted
		) VALUES (?, ?, 'User Rules', 1, 1, 1)
	`, types.UserRulesFilterID, types.ServiceGroupID)
	if err != nil {
		return flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "insert user rules filter")
	}

	_, err = db.ExecContext(ctx, `
		INSERT OR IGNORE INTO rules_list (filter_id, rules_text, rules_count)
		VALUES (?, '', 0)
	`, types.UserRulesFilterID)
	if err != nil {
		return flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "insert user rules body")
	}
	return nil
}
