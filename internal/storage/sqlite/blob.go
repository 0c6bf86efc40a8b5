package sqlite

import (
	"context"
	"database/sql"
	"io"

	"github.com/mattn/go-sqlite3"

	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/storage"
	"github.com/steveyegge/flm/internal/types"
)

// rulesTextBlobReader streams rules_list.rules_text for one filter via
// mattn/go-sqlite3's incremental BLOB I/O, rather than loading the
// whole column into memory. filter_id is the table's INTEGER PRIMARY
// KEY, which SQLite aliases directly to the row's rowid.
type rulesTextBlobReader struct {
	conn *sql.Conn
	blob *sqlite3.SQLiteBlob
}

// OpenRulesTextBlob opens an incremental reader over one filter's
// compiled rule text.
func OpenRulesTextBlob(ctx context.Context, db *sql.DB, filterID types.FilterId) (storage.BlobReader, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, flmerrors.Wrap(flmerrors.CannotOpenDatabase, err, "acquire connection for blob read")
	}

	var blob *sqlite3.SQLiteBlob
	err = conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return flmerrors.New(flmerrors.Other, "driver connection is not a go-sqlite3 connection")
		}
		b, err := sc.Blob("main", "rules_list", "rules_text", int64(filterID), false)
		if err != nil {
			return err
		}
		blob = b
		return nil
	})
	if err != nil {
		_ = conn.Close()
		return nil, flmerrors.Wrap(flmerrors.EntityNotFound, err, "open rules_text blob for filter %d", filterID)
	}

	return &rulesTextBlobReader{conn: conn, blob: blob}, nil
}

func (r *rulesTextBlobReader) ReadAt(p []byte, off int64) (int, error) {
	if _, err := r.blob.Seek(off, io.SeekStart); err != nil {
		return 0, flmerrors.Wrap(flmerrors.Other, err, "seek rules_text blob")
	}
	n, err := r.blob.Read(p)
	if err != nil && err != io.EOF {
		return n, flmerrors.Wrap(flmerrors.Other, err, "read rules_text blob")
	}
	return n, err
}

func (r *rulesTextBlobReader) Size() int64 {
	return int64(r.blob.Size())
}

func (r *rulesTextBlobReader) Close() error {
	blobErr := r.blob.Close()
	connErr := r.conn.Close()
	if blobErr != nil {
		return flmerrors.Wrap(flmerrors.Other, blobErr, "close rules_text blob")
	}
	if connErr != nil {
		return flmerrors.Wrap(flmerrors.Other, connErr, "close blob connection")
	}
	return nil
}
