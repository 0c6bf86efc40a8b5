package index_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/steveyegge/flm/internal/index"
	"github.com/steveyegge/flm/internal/storage/sqlite"
	"github.com/steveyegge/flm/internal/storage/sqlop"
	"github.com/steveyegge/flm/internal/types"
)

func TestApplyPersistsFullPlan(t *testing.T) {
	dir := t.TempDir()
	cm, err := sqlite.NewConnectionManager(filepath.Join(dir, "standard.db"))
	if err != nil {
		t.Fatalf("NewConnectionManager: %v", err)
	}
	defer func() { _ = cm.Close() }()
	ctx := context.Background()
	if err := cm.LiftUpDatabase(ctx); err != nil {
		t.Fatalf("LiftUpDatabase: %v", err)
	}

	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		if err := sqlop.InsertFilter(ctx, tx, types.Filter{FilterID: 101, GroupID: 1, Title: "Stale", IsEnabled: true}); err != nil {
			return err
		}
		if err := sqlop.InsertFilter(ctx, tx, types.Filter{FilterID: 102, GroupID: 1, Title: "Gone", IsEnabled: false}); err != nil {
			return err
		}
		return sqlop.InsertFilter(ctx, tx, types.Filter{FilterID: 104, GroupID: 1, Title: "Demoted", IsEnabled: true, DownloadURL: "https://x/104.txt"})
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	plan := index.Plan{
		Groups: []types.IndexGroup{{GroupID: 1, GroupName: "Ads"}},
		Overwrites: []index.Overwrite{
			{FilterID: 101, Title: "Fresh Title", HasTitle: true, DownloadURL: "https://x/101.txt"},
		},
		Demotions:  []types.FilterId{104},
		Deletions:  []types.FilterId{102},
		NewFilters: []types.IndexFilter{{FilterID: 103, Name: "New Filter", GroupID: 1, DownloadURL: "https://x/103.txt"}},
	}

	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		return index.Apply(ctx, tx, plan)
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	var got types.Filter
	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		var gerr error
		got, gerr = sqlop.GetFilter(ctx, tx, 101)
		return gerr
	})
	if err != nil {
		t.Fatalf("GetFilter(101): %v", err)
	}
	if got.Title != "Fresh Title" {
		t.Errorf("filter 101 Title = %q, want %q", got.Title, "Fresh Title")
	}

	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		_, gerr := sqlop.GetFilter(ctx, tx, 102)
		return gerr
	})
	if err == nil {
		t.Error("expected filter 102 to be deleted")
	}

	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		_, gerr := sqlop.GetFilter(ctx, tx, 103)
		return gerr
	})
	if err != nil {
		t.Errorf("expected new filter 103 to be inserted: %v", err)
	}

	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		_, gerr := sqlop.GetFilter(ctx, tx, 104)
		return gerr
	})
	if err == nil {
		t.Error("expected original filter 104 id to no longer exist after demotion")
	}

	var demoted types.Filter
	var found bool
	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		all, lerr := sqlop.ListFilters(ctx, tx)
		if lerr != nil {
			return lerr
		}
		for _, f := range all {
			if f.Title == "Demoted" {
				demoted, found = f, true
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ListFilters: %v", err)
	}
	if !found {
		t.Fatal("expected demoted filter to be reinserted under a new id")
	}
	if demoted.FilterID < types.MinCustomFilterID || demoted.FilterID > types.MaxCustomFilterID {
		t.Errorf("demoted filter id = %d, want range [%d, %d]", demoted.FilterID, types.MinCustomFilterID, types.MaxCustomFilterID)
	}
	if demoted.GroupID != types.CustomFiltersGroupID {
		t.Errorf("demoted filter GroupID = %d, want %d", demoted.GroupID, types.CustomFiltersGroupID)
	}
	if !demoted.IsCustom {
		t.Error("expected demoted filter to be marked IsCustom")
	}
}
