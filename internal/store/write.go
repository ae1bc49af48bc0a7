package store

import (
	"context"
	"fmt"
)

// AppendEntry writes e to the end of the journal.
// Returns the entry's seq and whether a new row was inserted.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: appending an ID that is
// already journaled returns the existing seq and inserted=false. e.Seq is
// ignored; SQLite assigns it.
func (s *Store) AppendEntry(ctx context.Context, e Entry) (seq int64, inserted bool, err error) {
	if !e.Kind.Valid() {
		return 0, false, fmt.Errorf("append entry: invalid kind %q", e.Kind)
	}
	if e.ID == "" {
		return 0, false, fmt.Errorf("append entry: empty id")
	}
	version := e.JournalVersion
	if version == "" {
		return 0, false, fmt.Errorf("append entry %s: empty journal version", e.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("append entry: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO entries
		(id, kind, caller, identity, payload, at, journal_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		string(e.Kind),
		e.Caller.Hex(),
		e.Identity.Hex(),
		e.Payload,
		e.At,
		version,
	)
	if err != nil {
		return 0, false, fmt.Errorf("append entry: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("append entry: rows affected: %w", err)
	}

	if rowsAffected > 0 {
		seq, err = result.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("append entry: last insert id: %w", err)
		}
		inserted = true
	} else {
		err = tx.QueryRowContext(ctx, `SELECT seq FROM entries WHERE id = ?`, e.ID).Scan(&seq)
		if err != nil {
			return 0, false, fmt.Errorf("append entry: select existing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("append entry: commit: %w", err)
	}

	return seq, inserted, nil
}
