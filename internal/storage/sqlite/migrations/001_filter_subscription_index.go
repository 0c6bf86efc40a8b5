// Package migrations holds forward-only schema steps applied after the
// base schema, one file per migration, in the style of a numbered
// migration runner.
package migrations

import (
	"context"
	"database/sql"
)

// AddFilterSubscriptionIndex adds an index on filter.subscription_url.
func AddFilterSubscriptionIndex(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_filter_subscription_url ON filter(subscription_url)`)
	return err
}
