// Package audit persists review reports to a local SQLite database so past
// runs can be listed and compared. The pure Go driver keeps the binary
// CGO-free.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/panelzero/redline/core/errors"
	"github.com/panelzero/redline/core/review"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id          TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	input_hash  TEXT NOT NULL,
	output_hash TEXT NOT NULL,
	applied     INTEGER NOT NULL,
	not_found   INTEGER NOT NULL,
	report      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_input_hash ON reports(input_hash);
`

// Store is an append-only report log.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the audit database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewIO("open audit db", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "audit schema")
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one report.
func (s *Store) Record(ctx context.Context, r *review.Report) error {
	blob, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, created_at, input_hash, output_hash, applied, not_found, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.Format(time.RFC3339Nano), r.InputHash, r.OutputHash,
		r.Applied, r.NotFound, string(blob))
	if err != nil {
		return errors.Wrap(err, "insert report")
	}
	return nil
}

// Get loads one report by id.
func (s *Store) Get(ctx context.Context, id string) (*review.Report, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM reports WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "report %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query report")
	}
	var r review.Report
	if err := json.Unmarshal([]byte(blob), &r); err != nil {
		return nil, errors.Wrap(err, "decode report")
	}
	return &r, nil
}

// Summary is one row of the report listing.
type Summary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	InputHash string    `json:"input_hash"`
	Applied   int       `json:"applied"`
	NotFound  int       `json:"not_found"`
}

// List returns the most recent reports, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, input_hash, applied, not_found
		 FROM reports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list reports")
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var created string
		if err := rows.Scan(&s.ID, &created, &s.InputHash, &s.Applied, &s.NotFound); err != nil {
			return nil, errors.Wrap(err, "scan report row")
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ForDocument returns reports for one input hash, newest first.
func (s *Store) ForDocument(ctx context.Context, inputHash string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, input_hash, applied, not_found
		 FROM reports WHERE input_hash = ? ORDER BY created_at DESC LIMIT ?`,
		inputHash, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list reports")
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var created string
		if err := rows.Scan(&s.ID, &created, &s.InputHash, &s.Applied, &s.NotFound); err != nil {
			return nil, errors.Wrap(err, "scan report row")
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, s)
	}
	return out, rows.Err()
}
