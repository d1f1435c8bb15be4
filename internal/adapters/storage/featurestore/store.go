// Package featurestore persists feature runs in SQLite.
//
// Values are stored in long format, one row per (run, column, record), with
// unknown values as NULL.
package featurestore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/features"
	"github.com/okian/prefight/internal/domain/types"
	"github.com/okian/prefight/pkg/metrics"
)

//go:embed schema.sql
var schemaSQL string

const dateLayout = "2006-01-02"

// Run describes one stored assembler run.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Mode      string    `json:"mode"`
	Source    string    `json:"source,omitempty"`
	Records   int       `json:"records"`
	Columns   int       `json:"columns"`
}

// ColumnValue is one record's values of a single column.
type ColumnValue struct {
	RowIndex int         `json:"row_index"`
	MatchID  string      `json:"match_id"`
	Date     time.Time   `json:"date"`
	A        types.Value `json:"a"`
	B        types.Value `json:"b"`
	Diff     types.Value `json:"diff"`
}

// DB wraps a sql.DB for the feature store.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the schema.
// ":memory:" gives a private in-process database.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection keeps an in-memory database alive and serialises writers.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveRun stores run and the full contents of res in one transaction.
func (db *DB) SaveRun(ctx context.Context, run Run, res *features.Result) error {
	start := time.Now()
	if err := db.saveRun(ctx, run, res); err != nil {
		metrics.RecordError("featurestore", "save_run")
		return err
	}
	metrics.RecordStoreWrite(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

func (db *DB) saveRun(ctx context.Context, run Run, res *features.Result) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, run.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check run: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrRunExists, run.ID)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(id, created_at, mode, source, records, columns) VALUES (?,?,?,?,?,?)`,
		run.ID, run.CreatedAt.UTC().Format(time.RFC3339Nano), run.Mode, run.Source,
		len(res.Rows), len(res.Schema),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	colStmt, err := tx.PrepareContext(ctx, `INSERT INTO run_columns(run_id, position, name) VALUES (?,?,?)`)
	if err != nil {
		return err
	}
	defer colStmt.Close()
	for i, name := range res.Schema {
		if _, err := colStmt.ExecContext(ctx, run.ID, i, name); err != nil {
			return fmt.Errorf("insert column %s: %w", name, err)
		}
	}

	valStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feature_values(
			run_id, row_index, match_id, match_date, column_name, value_a, value_b, value_diff
		) VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer valStmt.Close()
	for i := range res.Rows {
		r := &res.Rows[i]
		date := r.Date.Format(dateLayout)
		for c, name := range res.Schema {
			if _, err := valStmt.ExecContext(ctx,
				run.ID, r.Index, r.MatchID, date, name,
				nullable(r.A[c]), nullable(r.B[c]), nullable(r.Diff[c]),
			); err != nil {
				return fmt.Errorf("insert value %s row %d: %w", name, r.Index, err)
			}
		}
	}

	entStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entity_summaries(
			run_id, entity_id, matches, wins, losses, draws,
			elo, glicko, glicko_rd, glicko_rated, last_date
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer entStmt.Close()
	for _, s := range res.Entities {
		if _, err := entStmt.ExecContext(ctx,
			run.ID, s.ID, s.Matches, s.Wins, s.Losses, s.Draws,
			nullable(s.Elo), nullable(s.Glicko), nullable(s.GlickoRD), s.GlickoRated,
			s.LastDate.Format(dateLayout),
		); err != nil {
			return fmt.Errorf("insert entity %s: %w", s.ID, err)
		}
	}

	return tx.Commit()
}

// Runs lists stored runs, newest first.
func (db *DB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, created_at, mode, source, records, columns FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &created, &r.Mode, &r.Source, &r.Records, &r.Columns); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Columns returns the schema of a stored run in order.
func (db *DB) Columns(ctx context.Context, runID string) ([]string, error) {
	if err := db.requireRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT name FROM run_columns WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Values returns one column of a run in record order.
func (db *DB) Values(ctx context.Context, runID, column string) ([]ColumnValue, error) {
	if err := db.requireRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT row_index, match_id, match_date, value_a, value_b, value_diff
		FROM feature_values WHERE run_id = ? AND column_name = ?
		ORDER BY row_index`, runID, column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ColumnValue
	for rows.Next() {
		var v ColumnValue
		var date string
		var a, b, d sql.NullFloat64
		if err := rows.Scan(&v.RowIndex, &v.MatchID, &date, &a, &b, &d); err != nil {
			return nil, err
		}
		v.Date, _ = time.Parse(dateLayout, date)
		v.A, v.B, v.Diff = fromNull(a), fromNull(b), fromNull(d)
		out = append(out, v)
	}
	return out, rows.Err()
}

// Entities returns the end-of-run summaries of a run, ordered by id.
func (db *DB) Entities(ctx context.Context, runID string) ([]entity.Summary, error) {
	if err := db.requireRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT entity_id, matches, wins, losses, draws, elo, glicko, glicko_rd, glicko_rated, last_date
		FROM entity_summaries WHERE run_id = ? ORDER BY entity_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Summary
	for rows.Next() {
		var s entity.Summary
		var elo, glicko, rd sql.NullFloat64
		var last string
		if err := rows.Scan(&s.ID, &s.Matches, &s.Wins, &s.Losses, &s.Draws,
			&elo, &glicko, &rd, &s.GlickoRated, &last); err != nil {
			return nil, err
		}
		s.Elo, s.Glicko, s.GlickoRD = fromNull(elo), fromNull(glicko), fromNull(rd)
		s.LastDate, _ = time.Parse(dateLayout, last)
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and everything stored with it.
func (db *DB) DeleteRun(ctx context.Context, runID string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func (db *DB) requireRun(ctx context.Context, runID string) error {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func nullable(v types.Value) any {
	if x, ok := v.Float(); ok {
		return x
	}
	return nil
}

func fromNull(n sql.NullFloat64) types.Value {
	if !n.Valid {
		return types.Unknown()
	}
	return types.Known(n.Float64)
}
