// Package sqlop implements the Storage Contract's repository operations
// (§4.L) as plain functions over storage.DBTX, so callers can run them
// against either a bare *sql.DB or a transaction opened by
// storage.ConnectionManager.Execute.
package sqlop

import (
	"context"
	"database/sql"

	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/storage"
	"github.com/steveyegge/flm/internal/types"
)

// InsertFilter inserts or replaces one filter row.
func InsertFilter(ctx context.Context, db storage.DBTX, f types.Filter) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO filter (
			filter_id, group_id, title, description, version, homepage, license,
			checksum, download_url, subscription_url, display_number,
			last_update_time, last_download_time, expires,
			is_enabled, is_installed, is_trusted, is_custom, is_user_title, is_user_description
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (filter_id) DO UPDATE SET
			group_id = excluded.group_id, title = excluded.title,
			description = excluded.description, version = excluded.version,
			homepage = excluded.homepage, license = excluded.license,
			checksum = excluded.checksum, download_url = excluded.download_url,
			subscription_url = excluded.subscription_url, display_number = excluded.display_number,
			last_update_time = excluded.last_update_time, last_download_time = excluded.last_download_time,
			expires = excluded.expires, is_enabled = excluded.is_enabled,
			is_installed = excluded.is_installed, is_trusted = excluded.is_trusted,
			is_custom = excluded.is_custom, is_user_title = excluded.is_user_title,
			is_user_description = excluded.is_user_description
	`,
		f.FilterID, f.GroupID, f.Title, f.Description, f.Version, f.Homepage, f.License,
		f.Checksum, f.DownloadURL, f.SubscriptionURL, f.DisplayNumber,
		f.LastUpdateTime, f.LastDownloadTime, f.Expires,
		f.IsEnabled, f.IsInstalled, f.IsTrusted, f.IsCustom, f.IsUserTitle, f.IsUserDescription,
	)
	return wrapErr(err, "insert filter %d", f.FilterID)
}

// GetFilter loads one filter by id.
func GetFilter(ctx context.Context, db storage.DBTX, id types.FilterId) (types.Filter, error) {
	var f types.Filter
	err := db.QueryRowContext(ctx, `
		SELECT filter_id, group_id, title, description, version, homepage, license,
			checksum, download_url, subscription_url, display_number,
			last_update_time, last_download_time, expires,
			is_enabled, is_installed, is_trusted, is_custom, is_user_title, is_user_description
		FROM filter WHERE filter_id = ?
	`, id).Scan(
		&f.FilterID, &f.GroupID, &f.Title, &f.Description, &f.Version, &f.Homepage, &f.License,
		&f.Checksum, &f.DownloadURL, &f.SubscriptionURL, &f.DisplayNumber,
		&f.LastUpdateTime, &f.LastDownloadTime, &f.Expires,
		&f.IsEnabled, &f.IsInstalled, &f.IsTrusted, &f.IsCustom, &f.IsUserTitle, &f.IsUserDescription,
	)
	if err == sql.ErrNoRows {
		return types.Filter{}, flmerrors.New(flmerrors.EntityNotFound, "filter %d not found", id)
	}
	if err != nil {
		return types.Filter{}, wrapErr(err, "get filter %d", id)
	}
	return f, nil
}

// ListFilters returns every persisted filter (used by the Index
// Reconciler, which then filters out custom and service rows itself).
func ListFilters(ctx context.Context, db storage.DBTX) ([]types.Filter, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT filter_id, group_id, title, description, version, homepage, license,
			checksum, download_url, subscription_url, display_number,
			last_update_time, last_download_time, expires,
			is_enabled, is_installed, is_trusted, is_custom, is_user_title, is_user_description
		FROM filter
	`)
	if err != nil {
		return nil, wrapErr(err, "list filters")
	}
	defer func() { _ = rows.Close() }()

	var out []types.Filter
	for rows.Next() {
		var f types.Filter
		if err := rows.Scan(
			&f.FilterID, &f.GroupID, &f.Title, &f.Description, &f.Version, &f.Homepage, &f.License,
			&f.Checksum, &f.DownloadURL, &f.SubscriptionURL, &f.DisplayNumber,
			&f.LastUpdateTime, &f.LastDownloadTime, &f.Expires,
			&f.IsEnabled, &f.IsInstalled, &f.IsTrusted, &f.IsCustom, &f.IsUserTitle, &f.IsUserDescription,
		); err != nil {
			return nil, wrapErr(err, "scan filter row")
		}
		out = append(out, f)
	}
	return out, wrapErr(rows.Err(), "iterate filter rows")
}

// DeleteFilter removes one filter and (via ON DELETE CASCADE) its rules
// list, includes, diff state, tag links, and locale links.
func DeleteFilter(ctx context.Context, db storage.DBTX, id types.FilterId) error {
	_, err := db.ExecContext(ctx, `DELETE FROM filter WHERE filter_id = ?`, id)
	return wrapErr(err, "delete filter %d", id)
}

func wrapErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return flmerrors.Wrap(flmerrors.Other, err, format, args...)
}
