package sqlop

import (
	"context"
	"database/sql"

	"github.com/steveyegge/flm/internal/storage"
	"github.com/steveyegge/flm/internal/types"
)

// UpsertDiffUpdate records the next incremental-patch pointer for one
// filter, or clears it by passing an empty NextPath.
func UpsertDiffUpdate(ctx context.Context, db storage.DBTX, d types.DiffUpdate) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO diff_updates (filter_id, next_path, next_check_time)
		VALUES (?, ?, ?)
		ON CONFLICT (filter_id) DO UPDATE SET
			next_path = excluded.next_path, next_check_time = excluded.next_check_time
	`, d.FilterID, d.NextPath, d.NextCheckTime)
	return wrapErr(err, "upsert diff_updates %d", d.FilterID)
}

// GetDiffUpdate loads one filter's diff sidecar, if present.
func GetDiffUpdate(ctx context.Context, db storage.DBTX, id types.FilterId) (types.DiffUpdate, bool, error) {
	var d types.DiffUpdate
	d.FilterID = id
	err := db.QueryRowContext(ctx, `
		SELECT next_path, next_check_time FROM diff_updates WHERE filter_id = ?
	`, id).Scan(&d.NextPath, &d.NextCheckTime)
	if err == sql.ErrNoRows {
		return types.DiffUpdate{}, false, nil
	}
	if err != nil {
		return types.DiffUpdate{}, false, wrapErr(err, "get diff_updates %d", id)
	}
	return d, true, nil
}

// DueDiffUpdateFilterIDs returns the ids of filters whose diff sidecar's
// next_check_time has elapsed as of nowUnix.
func DueDiffUpdateFilterIDs(ctx context.Context, db storage.DBTX, nowUnix int64) ([]types.FilterId, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT filter_id FROM diff_updates WHERE next_check_time <= ? AND next_path != ''
	`, nowUnix)
	if err != nil {
		return nil, wrapErr(err, "query due diff_updates")
	}
	defer func() { _ = rows.Close() }()

	var out []types.FilterId
	for rows.Next() {
		var id types.FilterId
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr(err, "scan diff_updates row")
		}
		out = append(out, id)
	}
	return out, wrapErr(rows.Err(), "iterate diff_updates rows")
}

// MetadataRow is the singleton schema-version / custom-id-allocator row.
type MetadataRow struct {
	SchemaVersion int32
	LastCustomID  int32
}

// GetMetadata reads the singleton metadata row, which LiftUp guarantees
// exists.
func GetMetadata(ctx context.Context, db storage.DBTX) (MetadataRow, error) {
	var m MetadataRow
	err := db.QueryRowContext(ctx, `SELECT schema_version, last_custom_id FROM metadata WHERE id = 1`).
		Scan(&m.SchemaVersion, &m.LastCustomID)
	return m, wrapErr(err, "get metadata")
}

// SetLastCustomID persists the allocator's watermark after minting a new
// custom filter id.
func SetLastCustomID(ctx context.Context, db storage.DBTX, lastCustomID int32) error {
	_, err := db.ExecContext(ctx, `UPDATE metadata SET last_custom_id = ? WHERE id = 1`, lastCustomID)
	return wrapErr(err, "set last_custom_id")
}
