package sqlop

import (
	"context"
	"database/sql"

	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/storage"
	"github.com/steveyegge/flm/internal/types"
)

// UpsertRulesList writes the compiled body for one filter.
func UpsertRulesList(ctx context.Context, db storage.DBTX, r types.RulesList) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO rules_list (filter_id, rules_text, disabled_text, rules_count, has_directives)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (filter_id) DO UPDATE SET
			rules_text = excluded.rules_text, disabled_text = excluded.disabled_text,
			rules_count = excluded.rules_count, has_directives = excluded.has_directives
	`, r.FilterID, r.Text, r.DisabledText, r.RulesCount, r.HasDirectives)
	return wrapErr(err, "upsert rules_list %d", r.FilterID)
}

// GetRulesList loads one filter's compiled body.
func GetRulesList(ctx context.Context, db storage.DBTX, id types.FilterId) (types.RulesList, error) {
	var r types.RulesList
	r.FilterID = id
	err := db.QueryRowContext(ctx, `
		SELECT rules_text, disabled_text, rules_count, has_directives
		FROM rules_list WHERE filter_id = ?
	`, id).Scan(&r.Text, &r.DisabledText, &r.RulesCount, &r.HasDirectives)
	if err == sql.ErrNoRows {
		return types.RulesList{}, flmerrors.New(flmerrors.EntityNotFound, "rules_list %d not found", id)
	}
	return r, wrapErr(err, "get rules_list %d", id)
}

// ReplaceFilterIncludes deletes and reinserts the full FilterInclude set
// for one filter, matching the compiler's "recompute from scratch every
// compile" contract.
func ReplaceFilterIncludes(ctx context.Context, db storage.DBTX, filterID types.FilterId, includes []types.FilterInclude) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM filter_includes WHERE filter_id = ?`, filterID); err != nil {
		return wrapErr(err, "clear filter_includes for %d", filterID)
	}
	for _, inc := range includes {
		_, err := db.ExecContext(ctx, `
			INSERT INTO filter_includes (filter_id, url, body, rules_count, hash)
			VALUES (?, ?, ?, ?, ?)
		`, filterID, inc.URL, inc.Body, inc.RulesCount, inc.Hash)
		if err != nil {
			return wrapErr(err, "insert filter_include %s for %d", inc.URL, filterID)
		}
	}
	return nil
}

// GetFilterIncludes loads every stored include for one filter.
func GetFilterIncludes(ctx context.Context, db storage.DBTX, filterID types.FilterId) ([]types.FilterInclude, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT url, body, rules_count, hash FROM filter_includes WHERE filter_id = ?
	`, filterID)
	if err != nil {
		return nil, wrapErr(err, "list filter_includes for %d", filterID)
	}
	defer func() { _ = rows.Close() }()

	var out []types.FilterInclude
	for rows.Next() {
		inc := types.FilterInclude{FilterID: filterID}
		if err := rows.Scan(&inc.URL, &inc.Body, &inc.RulesCount, &inc.Hash); err != nil {
			return nil, wrapErr(err, "scan filter_include row")
		}
		out = append(out, inc)
	}
	return out, wrapErr(rows.Err(), "iterate filter_include rows")
}
