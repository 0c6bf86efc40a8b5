package sqlop_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/steveyegge/flm/internal/storage/sqlite"
	"github.com/steveyegge/flm/internal/storage/sqlop"
	"github.com/steveyegge/flm/internal/types"
)

func TestFilterInsertAndGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cm, err := sqlite.NewConnectionManager(filepath.Join(dir, "standard.db"))
	if err != nil {
		t.Fatalf("NewConnectionManager: %v", err)
	}
	defer func() { _ = cm.Close() }()
	if err := cm.LiftUpDatabase(context.Background()); err != nil {
		t.Fatalf("LiftUpDatabase: %v", err)
	}

	want := types.Filter{
		FilterID:    101,
		GroupID:     1,
		Title:       "Ads Filter",
		DownloadURL: "https://example.com/101.txt",
		IsEnabled:   true,
	}

	ctx := context.Background()
	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		return sqlop.InsertFilter(ctx, tx, want)
	})
	if err != nil {
		t.Fatalf("InsertFilter: %v", err)
	}

	var got types.Filter
	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		var gerr error
		got, gerr = sqlop.GetFilter(ctx, tx, 101)
		return gerr
	})
	if err != nil {
		t.Fatalf("GetFilter: %v", err)
	}
	if got.Title != want.Title || got.DownloadURL != want.DownloadURL || !got.IsEnabled {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestRulesListUpsertAndGet(t *testing.T) {
	dir := t.TempDir()
	cm, err := sqlite.NewConnectionManager(filepath.Join(dir, "standard.db"))
	if err != nil {
		t.Fatalf("NewConnectionManager: %v", err)
	}
	defer func() { _ = cm.Close() }()
	if err := cm.LiftUpDatabase(context.Background()); err != nil {
		t.Fatalf("LiftUpDatabase: %v", err)
	}

	ctx := context.Background()
	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		return sqlop.InsertFilter(ctx, tx, types.Filter{FilterID: 101, GroupID: 1, Title: "Ads Filter"})
	})
	if err != nil {
		t.Fatalf("InsertFilter: %v", err)
	}

	want := types.RulesList{FilterID: 101, Text: "||ads.example.com^\n", RulesCount: 1}
	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		return sqlop.UpsertRulesList(ctx, tx, want)
	})
	if err != nil {
		t.Fatalf("UpsertRulesList: %v", err)
	}

	var got types.RulesList
	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		var gerr error
		got, gerr = sqlop.GetRulesList(ctx, tx, 101)
		return gerr
	})
	if err != nil {
		t.Fatalf("GetRulesList: %v", err)
	}
	if got.Text != want.Text || got.RulesCount != want.RulesCount {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDeleteFilterCascadesRulesList(t *testing.T) {
	dir := t.TempDir()
	cm, err := sqlite.NewConnectionManager(filepath.Join(dir, "standard.db"))
	if err != nil {
		t.Fatalf("NewConnectionManager: %v", err)
	}
	defer func() { _ = cm.Close() }()
	if err := cm.LiftUpDatabase(context.Background()); err != nil {
		t.Fatalf("LiftUpDatabase: %v", err)
	}

	ctx := context.Background()
	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		if err := sqlop.InsertFilter(ctx, tx, types.Filter{FilterID: 101, GroupID: 1, Title: "Ads Filter"}); err != nil {
			return err
		}
		return sqlop.UpsertRulesList(ctx, tx, types.RulesList{FilterID: 101, Text: "x\n"})
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		return sqlop.DeleteFilter(ctx, tx, 101)
	})
	if err != nil {
		t.Fatalf("DeleteFilter: %v", err)
	}

	err = cm.Execute(ctx, func(tx *sql.Tx) error {
		_, gerr := sqlop.GetRulesList(ctx, tx, 101)
		return gerr
	})
	if err == nil {
		t.Fatal("expected rules_list row to be gone after cascading delete")
	}
}
