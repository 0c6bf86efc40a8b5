package sqlite

import (
	"context"
	"database/sql"

	"github.com/steveyegge/flm/internal/flmerrors"
)

// baseSchema is schema version 0: every table named in §6's design-level
// list, created if absent. Later structural changes land as numbered
// migrations instead of edits here.
var baseSchema = []string{
	`CREATE TABLE IF NOT EXISTS metadata (
		id             INTEGER PRIMARY KEY CHECK (id = 1),
		schema_version INTEGER NOT NULL,
		last_custom_id INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS filter_group (
		group_id       INTEGER PRIMARY KEY,
		name           TEXT NOT NULL,
		display_number INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS filter_tag (
		tag_id  INTEGER PRIMARY KEY,
		keyword TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS filter (
		filter_id           INTEGER PRIMARY KEY,
		group_id            INTEGER NOT NULL,
		title               TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		version             TEXT NOT NULL DEFAULT '',
		homepage            TEXT NOT NULL DEFAULT '',
		license             TEXT NOT NULL DEFAULT '',
		checksum            TEXT NOT NULL DEFAULT '',
		download_url        TEXT NOT NULL DEFAULT '',
		subscription_url    TEXT NOT NULL DEFAULT '',
		display_number      INTEGER NOT NULL DEFAULT 0,
		last_update_time    INTEGER NOT NULL DEFAULT 0,
		last_download_time  INTEGER NOT NULL DEFAULT 0,
		expires             INTEGER NOT NULL DEFAULT 0,
		is_enabled          INTEGER NOT NULL DEFAULT 1,
		is_installed        INTEGER NOT NULL DEFAULT 0,
		is_trusted          INTEGER NOT NULL DEFAULT 0,
		is_custom           INTEGER NOT NULL DEFAULT 0,
		is_user_title       INTEGER NOT NULL DEFAULT 0,
		is_user_description INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS rules_list (
		filter_id      INTEGER PRIMARY KEY REFERENCES filter(filter_id) ON DELETE CASCADE,
		rules_text     TEXT NOT NULL DEFAULT '',
		disabled_text  TEXT NOT NULL DEFAULT '',
		rules_count    INTEGER NOT NULL DEFAULT 0,
		has_directives INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS filter_includes (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		filter_id   INTEGER NOT NULL REFERENCES filter(filter_id) ON DELETE CASCADE,
		url         TEXT NOT NULL,
		body        TEXT NOT NULL DEFAULT '',
		rules_count INTEGER NOT NULL DEFAULT 0,
		hash        BLOB,
		UNIQUE (filter_id, url)
	)`,
	`CREATE TABLE IF NOT EXISTS diff_updates (
		filter_id       INTEGER PRIMARY KEY REFERENCES filter(filter_id) ON DELETE CASCADE,
		next_path       TEXT NOT NULL DEFAULT '',
		next_check_time INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS filter_filter_tag (
		filter_id INTEGER NOT NULL REFERENCES filter(filter_id) ON DELETE CASCADE,
		tag_id    INTEGER NOT NULL REFERENCES filter_tag(tag_id) ON DELETE CASCADE,
		PRIMARY KEY (filter_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS filter_locale (
		filter_id INTEGER NOT NULL REFERENCES filter(filter_id) ON DELETE CASCADE,
		lang      TEXT NOT NULL,
		PRIMARY KEY (filter_id, lang)
	)`,
	`CREATE TABLE IF NOT EXISTS filter_localisation (
		filter_id   INTEGER NOT NULL REFERENCES filter(filter_id) ON DELETE CASCADE,
		locale      TEXT NOT NULL,
		title       TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (filter_id, locale)
	)`,
	`CREATE TABLE IF NOT EXISTS filter_tag_localisation (
		tag_id  INTEGER NOT NULL REFERENCES filter_tag(tag_id) ON DELETE CASCADE,
		locale  TEXT NOT NULL,
		keyword TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (tag_id, locale)
	)`,
	`CREATE TABLE IF NOT EXISTS filter_group_localisation (
		group_id INTEGER NOT NULL REFERENCES filter_group(group_id) ON DELETE CASCADE,
		locale   TEXT NOT NULL,
		name     TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (group_id, locale)
	)`,
}

func createBaseSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range baseSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "create base schema")
		}
	}
	_, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO metadata (id, schema_version, last_custom_id) VALUES (1, 0, ?)`,
		int32(maxCustomFilterIDPlusOne))
	if err != nil {
		return flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "seed metadata row")
	}
	return nil
}

// maxCustomFilterIDPlusOne seeds last_custom_id one above
// MaxCustomFilterID, so idgen.New(lastMinted) mints MaxCustomFilterID
// itself as the very first custom id.
const maxCustomFilterIDPlusOne = -9999
