// Package sqlitegrid stores a workbook in a SQLite database file.
package sqlitegrid

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/JonMunkholm/rowstore/internal/grid"
)

//go:embed schema.sql
var schemaSQL string

func init() {
	grid.Register("sqlite", func(ctx context.Context, opts grid.Options) (grid.Workbook, error) {
		return Open(ctx, opts.Path, opts.MaxRowsOrDefault())
	})
}

// Workbook is a grid.Workbook backed by SQLite.
type Workbook struct {
	db      *sql.DB
	maxRows int
}

// Open creates or opens the database at path and applies the schema.
//
// The connection is configured with WAL journaling, a 5-second busy timeout
// and foreign keys enabled. SQLite allows a single writer, so the pool is
// limited to one connection.
func Open(ctx context.Context, path string, maxRows int) (*Workbook, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if maxRows <= 0 {
		maxRows = grid.DefaultMaxRows
	}
	return &Workbook{db: db, maxRows: maxRows}, nil
}

func (w *Workbook) Sheets(ctx context.Context) ([]string, error) {
	rows, err := w.db.QueryContext(ctx, `SELECT name FROM sheets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan sheet: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (w *Workbook) Sheet(ctx context.Context, name string) (grid.Sheet, error) {
	var id int64
	err := w.db.QueryRowContext(ctx, `SELECT id FROM sheets WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", grid.ErrSheetNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get sheet %s: %w", name, err)
	}
	return &Sheet{db: w.db, id: id, name: name}, nil
}

func (w *Workbook) First(ctx context.Context) (grid.Sheet, error) {
	var (
		id   int64
		name string
	)
	err := w.db.QueryRowContext(ctx, `SELECT id, name FROM sheets ORDER BY position LIMIT 1`).Scan(&id, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, grid.ErrSheetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get first sheet: %w", err)
	}
	return &Sheet{db: w.db, id: id, name: name}, nil
}

func (w *Workbook) AddSheet(ctx context.Context, name string) (grid.Sheet, error) {
	res, err := w.db.ExecContext(ctx,
		`INSERT INTO sheets (name, position, max_rows)
		 VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM sheets), ?)`,
		name, w.maxRows)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
			return nil, fmt.Errorf("%w: %s", grid.ErrSheetExists, name)
		}
		return nil, fmt.Errorf("add sheet %s: %w", name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("add sheet %s: %w", name, err)
	}
	return &Sheet{db: w.db, id: id, name: name}, nil
}

func (w *Workbook) Ping(ctx context.Context) error {
	return w.db.PingContext(ctx)
}

func (w *Workbook) Close() error {
	if w.db == nil {
		return nil
	}
	return w.db.Close()
}

// Sheet is a grid.Sheet stored in SQLite.
type Sheet struct {
	db   *sql.DB
	id   int64
	name string
}

func (s *Sheet) Name() string { return s.name }

func (s *Sheet) LastRow(ctx context.Context) (int, error) {
	var last int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(r), 0) FROM (
		     SELECT MAX(row_num) AS r FROM cells WHERE sheet_id = ?
		     UNION ALL
		     SELECT MAX(row_num + num_rows - 1) AS r FROM checkboxes WHERE sheet_id = ?
		 )`, s.id, s.id).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("last row of %s: %w", s.name, err)
	}
	return last, nil
}

func (s *Sheet) LastColumn(ctx context.Context) (int, error) {
	var last int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(col_num), 0) FROM cells WHERE sheet_id = ?`, s.id).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("last column of %s: %w", s.name, err)
	}
	return last, nil
}

func (s *Sheet) MaxRows(ctx context.Context) (int, error) {
	var allocated int
	err := s.db.QueryRowContext(ctx, `SELECT max_rows FROM sheets WHERE id = ?`, s.id).Scan(&allocated)
	if err != nil {
		return 0, fmt.Errorf("max rows of %s: %w", s.name, err)
	}
	last, err := s.LastRow(ctx)
	if err != nil {
		return 0, err
	}
	return max(allocated, last), nil
}

func (s *Sheet) Get(ctx context.Context, r grid.Range) ([][]any, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	out := grid.Blank(r.NumRows, r.NumCols)
	if r.NumRows == 0 || r.NumCols == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_num, col_num, value FROM cells
		 WHERE sheet_id = ? AND row_num BETWEEN ? AND ? AND col_num BETWEEN ? AND ?`,
		s.id, r.Row, r.LastRow(), r.Col, r.Col+r.NumCols-1)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row, col int
			raw      string
		)
		if err := rows.Scan(&row, &col, &raw); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		v, err := grid.DecodeCell(raw)
		if err != nil {
			return nil, fmt.Errorf("cell %d,%d of %s: %w", row, col, s.name, err)
		}
		out[row-r.Row][col-r.Col] = v
	}
	return out, rows.Err()
}

func (s *Sheet) Set(ctx context.Context, row, col int, values [][]any) error {
	if err := (grid.Range{Row: row, Col: col}).Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write to %s: %w", s.name, err)
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx,
		`INSERT INTO cells (sheet_id, row_num, col_num, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT (sheet_id, row_num, col_num) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer upsert.Close()

	del, err := tx.PrepareContext(ctx,
		`DELETE FROM cells WHERE sheet_id = ? AND row_num = ? AND col_num = ?`)
	if err != nil {
		return fmt.Errorf("prepare delete: %w", err)
	}
	defer del.Close()

	for i, vals := range values {
		for j, v := range vals {
			r, c := row+i, col+j
			if grid.IsEmpty(grid.Normalize(v)) {
				if _, err := del.ExecContext(ctx, s.id, r, c); err != nil {
					return fmt.Errorf("clear cell %d,%d: %w", r, c, err)
				}
				continue
			}
			enc, err := grid.EncodeCell(v)
			if err != nil {
				return err
			}
			if _, err := upsert.ExecContext(ctx, s.id, r, c, enc); err != nil {
				return fmt.Errorf("write cell %d,%d: %w", r, c, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sheets SET max_rows = MAX(max_rows, ?) WHERE id = ?`,
		row+len(values)-1, s.id); err != nil {
		return fmt.Errorf("grow %s: %w", s.name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write to %s: %w", s.name, err)
	}
	return nil
}

func (s *Sheet) RequireCheckbox(ctx context.Context, r grid.Range) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.NumRows == 0 || r.NumCols == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin validation on %s: %w", s.name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO checkboxes (sheet_id, row_num, col_num, num_rows, num_cols) VALUES (?, ?, ?, ?, ?)`,
		s.id, r.Row, r.Col, r.NumRows, r.NumCols); err != nil {
		return fmt.Errorf("add checkbox to %s: %w", s.name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sheets SET max_rows = MAX(max_rows, ?) WHERE id = ?`, r.LastRow(), s.id); err != nil {
		return fmt.Errorf("grow %s: %w", s.name, err)
	}
	return tx.Commit()
}

func (s *Sheet) Checkboxes(ctx context.Context) ([]grid.Range, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_num, col_num, num_rows, num_cols FROM checkboxes WHERE sheet_id = ? ORDER BY id`, s.id)
	if err != nil {
		return nil, fmt.Errorf("list checkboxes of %s: %w", s.name, err)
	}
	defer rows.Close()

	var out []grid.Range
	for rows.Next() {
		var r grid.Range
		if err := rows.Scan(&r.Row, &r.Col, &r.NumRows, &r.NumCols); err != nil {
			return nil, fmt.Errorf("scan checkbox: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Sheet) ColumnTypes(ctx context.Context) (map[string]string, error) {
	var raw string
	if err := s.db.QueryRowContext(ctx,
		`SELECT column_types FROM sheets WHERE id = ?`, s.id).Scan(&raw); err != nil {
		return nil, fmt.Errorf("column types of %s: %w", s.name, err)
	}

	types := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &types); err != nil {
		return nil, fmt.Errorf("decode column types of %s: %w", s.name, err)
	}
	return types, nil
}

func (s *Sheet) SetColumnTypes(ctx context.Context, types map[string]string) error {
	if types == nil {
		types = map[string]string{}
	}
	b, err := json.Marshal(types)
	if err != nil {
		return fmt.Errorf("encode column types: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE sheets SET column_types = ? WHERE id = ?`, string(b), s.id); err != nil {
		return fmt.Errorf("set column types of %s: %w", s.name, err)
	}
	return nil
}
