package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/timelockidx/internal/ir"
)

const entryColumns = `seq, id, kind, caller, identity, payload, at, journal_version`

// ReadEntries returns the whole journal ordered by seq.
// Returns an empty slice (not nil) for an empty journal.
func (s *Store) ReadEntries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	return collectEntries(rows)
}

// ReadEntriesByIdentity returns every entry that touched identity, ordered by seq.
func (s *Store) ReadEntriesByIdentity(ctx context.Context, identity ir.Identity) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE identity = ?
		ORDER BY seq ASC
	`, identity.Hex())
	if err != nil {
		return nil, fmt.Errorf("query entries by identity: %w", err)
	}
	return collectEntries(rows)
}

// ReadEntry retrieves a single entry by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadEntry(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE id = ?
	`, id)
	return scanEntry(row)
}

// CountEntries returns the number of journaled entries.
func (s *Store) CountEntries(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func collectEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e        Entry
		kind     string
		caller   string
		identity string
	)
	err := sc.Scan(&e.Seq, &e.ID, &kind, &caller, &identity, &e.Payload, &e.At, &e.JournalVersion)
	if err == sql.ErrNoRows {
		return Entry{}, err
	}
	if err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	if !common.IsHexAddress(caller) {
		return Entry{}, fmt.Errorf("scan entry %s: bad caller %q", e.ID, caller)
	}
	e.Kind = Kind(kind)
	e.Caller = common.HexToAddress(caller)
	e.Identity = common.HexToHash(identity)
	return e, nil
}
