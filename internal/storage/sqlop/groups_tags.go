package sqlop

import (
	"context"

	"github.com/steveyegge/flm/internal/storage"
	"github.com/steveyegge/flm/internal/types"
)

// ReplaceNonCustomGroupsAndTags clears every registry group (group_id
// above ServiceGroupID; the service and custom groups persist), every tag
// and the links that reference them, and reinserts the fresh set from
// a reconciled index pull, per §4.J's transactional ordering: links
// first, then groups/tags, then the filters that reference them.
func ReplaceNonCustomGroupsAndTags(ctx context.Context, db storage.DBTX, groups []types.IndexGroup, tags []types.IndexTag) error {
	for _, stmt := range []string{
		`DELETE FROM filter_group_localisation`,
		`DELETE FROM filter_tag_localisation`,
		`DELETE FROM filter_locale`,
		`DELETE FROM filter_localisation`,
		`DELETE FROM filter_filter_tag`,
		`DELETE FROM filter_tag`,
		`DELETE FROM filter_group WHERE group_id > ?`,
	} {
		args := []any{}
		if stmt == `DELETE FROM filter_group WHERE group_id > ?` {
			args = append(args, types.ServiceGroupID)
		}
		if _, err := db.ExecContext(ctx, stmt, args...); err != nil {
			return wrapErr(err, "clear groups/tags: %s", stmt)
		}
	}

	for _, g := range groups {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO filter_group (group_id, name, display_number) VALUES (?, ?, ?)
			ON CONFLICT (group_id) DO UPDATE SET name = excluded.name, display_number = excluded.display_number
		`, g.GroupID, g.GroupName, g.DisplayNumber); err != nil {
			return wrapErr(err, "insert filter_group %d", int32(g.GroupID))
		}
	}
	for _, t := range tags {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO filter_tag (tag_id, keyword) VALUES (?, ?)
			ON CONFLICT (tag_id) DO UPDATE SET keyword = excluded.keyword
		`, t.TagID, t.Keyword); err != nil {
			return wrapErr(err, "insert filter_tag %d", int32(t.TagID))
		}
	}
	return nil
}

// SetFilterTags replaces one filter's tag links.
func SetFilterTags(ctx context.Context, db storage.DBTX, filterID types.FilterId, tagIDs []int32) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM filter_filter_tag WHERE filter_id = ?`, filterID); err != nil {
		return wrapErr(err, "clear filter_filter_tag for %d", filterID)
	}
	for _, tagID := range tagIDs {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO filter_filter_tag (filter_id, tag_id) VALUES (?, ?)
		`, filterID, tagID); err != nil {
			return wrapErr(err, "link filter %d to tag %d", filterID, tagID)
		}
	}
	return nil
}

// SetFilterLocales replaces one filter's advertised target languages.
func SetFilterLocales(ctx context.Context, db storage.DBTX, filterID types.FilterId, langs []string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM filter_locale WHERE filter_id = ?`, filterID); err != nil {
		return wrapErr(err, "clear filter_locale for %d", filterID)
	}
	for _, lang := range langs {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO filter_locale (filter_id, lang) VALUES (?, ?)
		`, filterID, lang); err != nil {
			return wrapErr(err, "link filter %d to locale %s", filterID, lang)
		}
	}
	return nil
}
