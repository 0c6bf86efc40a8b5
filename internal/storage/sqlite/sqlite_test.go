package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/steveyegge/flm/internal/types"
)

func TestLiftUpCreatesParentDirectoryAndBootstrapRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "standard.db")

	cm, err := NewConnectionManager(path)
	if err != nil {
		t.Fatalf("NewConnectionManager: %v", err)
	}
	defer func() { _ = cm.Close() }()

	if err := cm.LiftUpDatabase(context.Background()); err != nil {
		t.Fatalf("LiftUpDatabase: %v", err)
	}

	var title string
	err = cm.Execute(context.Background(), func(tx *sql.Tx) error {
		return tx.QueryRowContext(context.Background(),
			`SELECT title FROM filter WHERE filter_id = ?`, types.UserRulesFilterID).Scan(&title)
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if title != "User Rules" {
		t.Errorf("got title %q, want %q", title, "User Rules")
	}
}

func TestLiftUpIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "standard.db")

	cm, err := NewConnectionManager(path)
	if err != nil {
		t.Fatalf("NewConnectionManager: %v", err)
	}
	defer func() { _ = cm.Close() }()

	if err := cm.LiftUpDatabase(context.Background()); err != nil {
		t.Fatalf("first LiftUpDatabase: %v", err)
	}
	if err := cm.LiftUpDatabase(context.Background()); err != nil {
		t.Fatalf("second LiftUpDatabase: %v", err)
	}
}

func TestExecuteRollsBackOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "standard.db")

	cm, err := NewConnectionManager(path)
	if err != nil {
		t.Fatalf("NewConnectionManager: %v", err)
	}
	defer func() { _ = cm.Close() }()
	if err := cm.LiftUpDatabase(context.Background()); err != nil {
		t.Fatalf("LiftUpDatabase: %v", err)
	}

	boom := errBoom{}
	err = cm.Execute(context.Background(), func(tx *sql.Tx) error {
		if _, execErr := tx.ExecContext(context.Background(),
			`INSERT INTO filter_group (group_id, name) VALUES (999, 'Temp')`); execErr != nil {
			return execErr
		}
		return boom
	})
	if err == nil {
		t.Fatal("expected the injected error to propagate")
	}

	var count int
	err = cm.Execute(context.Background(), func(tx *sql.Tx) error {
		return tx.QueryRowContext(context.Background(),
			`SELECT COUNT(*) FROM filter_group WHERE group_id = 999`).Scan(&count)
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if count != 0 {
		t.Errorf("expected rollback to discard the insert, found %d rows", count)
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
