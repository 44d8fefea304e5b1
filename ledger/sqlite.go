package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteLedger stores entries in a SQLite database file.
type SQLiteLedger struct {
	db *sql.DB
}

// OpenSQLiteLedger opens or creates the database at path and applies the
// schema.
func OpenSQLiteLedger(ctx context.Context, path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases from splitting per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}
	return &SQLiteLedger{db: db}, nil
}

const entryColumns = `input, digest, size, run_id, outputs, vertices, tets, boundary_faces, group_sizes, unassigned, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e               Entry
		outputs, groups string
		created         int64
	)
	if err := row.Scan(&e.Input, &e.Digest, &e.Size, &e.RunID, &outputs,
		&e.Vertices, &e.Tets, &e.BoundaryFaces, &groups, &e.Unassigned, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(outputs), &e.Outputs); err != nil {
		return nil, fmt.Errorf("ledger: decode outputs of %s: %w", e.Input, err)
	}
	if err := json.Unmarshal([]byte(groups), &e.Groups); err != nil {
		return nil, fmt.Errorf("ledger: decode groups of %s: %w", e.Input, err)
	}
	e.CreatedAt = time.UnixMilli(created).UTC()
	return &e, nil
}

func (l *SQLiteLedger) Get(ctx context.Context, input string) (*Entry, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE input = ?`, input)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ledger: get %s: %w", input, err)
	}
	return e, nil
}

func (l *SQLiteLedger) Record(ctx context.Context, e *Entry) error {
	stamp(e)
	outputs, err := json.Marshal(e.Outputs)
	if err != nil {
		return err
	}
	groups, err := json.Marshal(e.Groups)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(input) DO UPDATE SET
			digest = excluded.digest,
			size = excluded.size,
			run_id = excluded.run_id,
			outputs = excluded.outputs,
			vertices = excluded.vertices,
			tets = excluded.tets,
			boundary_faces = excluded.boundary_faces,
			group_sizes = excluded.group_sizes,
			unassigned = excluded.unassigned,
			created_at = excluded.created_at
	`
	if _, err := l.db.ExecContext(ctx, query, e.Input, e.Digest, e.Size, e.RunID, string(outputs),
		e.Vertices, e.Tets, e.BoundaryFaces, string(groups), e.Unassigned, e.CreatedAt.UnixMilli()); err != nil {
		return fmt.Errorf("ledger: record %s: %w", e.Input, err)
	}
	return nil
}

func (l *SQLiteLedger) List(ctx context.Context) ([]*Entry, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY input`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (l *SQLiteLedger) Claim(ctx context.Context, input, runID string) error {
	res, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO claims (input, run_id, claimed_at) VALUES (?, ?, ?)`,
		input, runID, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("ledger: claim %s: %w", input, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrClaimed, input)
	}
	return nil
}

func (l *SQLiteLedger) Release(ctx context.Context, input string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM claims WHERE input = ?`, input); err != nil {
		return fmt.Errorf("ledger: release %s: %w", input, err)
	}
	return nil
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
