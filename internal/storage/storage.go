// Package storage defines the Storage Contract (§4.L) and Connection
// Manager (§4.M): the process-wide mutex guarding one database
// connection, the "lift-up" bootstrap sequence, and the narrow
// transaction-execution closure every repository operation runs inside.
package storage

import (
	"context"
	"database/sql"
	"sync"

	"github.com/steveyegge/flm/internal/flmerrors"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, letting sqlop functions
// run against either a bare connection or an open transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BlobReader streams a rules_list.rules_text column out incrementally,
// backed by mattn/go-sqlite3's blob I/O rather than a single in-memory
// read, for filters whose compiled body is large.
type BlobReader interface {
	ReadAt(p []byte, off int64) (n int, err error)
	Size() int64
	Close() error
}

// ConnectionManager owns the single *sql.DB for one filter_list_type and
// serialises every access to it behind a process-wide mutex, matching
// the source's "one connection, one mutex" contract: SQLite's own
// locking is not trusted to arbitrate writer contention across goroutines
// cooperatively enough for the update scheduler's batch semantics.
type ConnectionManager struct {
	mu sync.Mutex
	db *sql.DB

	liftUp func(ctx context.Context, db *sql.DB) error
}

// NewConnectionManager wraps an already-open database handle. liftUp is
// invoked only by LiftUpDatabase, once per call, never from inside
// Execute.
func NewConnectionManager(db *sql.DB, liftUp func(ctx context.Context, db *sql.DB) error) *ConnectionManager {
	return &ConnectionManager{db: db, liftUp: liftUp}
}

// Execute runs fn inside one transaction, holding the manager's mutex
// for the duration. fn must never call LiftUpDatabase or Execute again
// on the same manager: both take the same mutex and would deadlock.
func (m *ConnectionManager) Execute(ctx context.Context, fn func(tx *sql.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "begin transaction")
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "commit transaction")
	}
	return nil
}

// LiftUpDatabase runs the one-shot schema-creation, migration, and
// bootstrap-row sequence. It takes the same mutex as Execute and must
// never be called from inside an Execute closure.
func (m *ConnectionManager) LiftUpDatabase(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.liftUp(ctx, m.db)
}

// Close releases the underlying connection.
func (m *ConnectionManager) Close() error {
	return m.db.Close()
}
