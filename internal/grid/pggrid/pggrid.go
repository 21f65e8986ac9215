// Package pggrid stores workbooks in PostgreSQL through a pgx connection pool.
package pggrid

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/rowstore/internal/grid"
)

//go:embed schema.sql
var schemaSQL string

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

func init() {
	grid.Register("postgres", func(ctx context.Context, opts grid.Options) (grid.Workbook, error) {
		return Open(ctx, opts)
	})
}

// Workbook is a grid.Workbook backed by PostgreSQL.
type Workbook struct {
	pool    *pgxpool.Pool
	maxRows int
}

// Open connects to opts.URL, applies pool limits and creates the tables.
func Open(ctx context.Context, opts grid.Options) (*Workbook, error) {
	if opts.URL == "" {
		return nil, errors.New("postgres URL is required")
	}

	poolConfig, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return New(pool, opts.MaxRowsOrDefault()), nil
}

// New wraps an existing pool. The schema must already exist.
func New(pool *pgxpool.Pool, maxRows int) *Workbook {
	if maxRows <= 0 {
		maxRows = grid.DefaultMaxRows
	}
	return &Workbook{pool: pool, maxRows: maxRows}
}

func (w *Workbook) Sheets(ctx context.Context) ([]string, error) {
	rows, err := w.pool.Query(ctx, `SELECT name FROM grid_sheets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	return names, nil
}

func (w *Workbook) Sheet(ctx context.Context, name string) (grid.Sheet, error) {
	var id int64
	err := w.pool.QueryRow(ctx, `SELECT id FROM grid_sheets WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", grid.ErrSheetNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get sheet %s: %w", name, err)
	}
	return &Sheet{pool: w.pool, id: id, name: name}, nil
}

func (w *Workbook) First(ctx context.Context) (grid.Sheet, error) {
	var (
		id   int64
		name string
	)
	err := w.pool.QueryRow(ctx,
		`SELECT id, name FROM grid_sheets ORDER BY position LIMIT 1`).Scan(&id, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, grid.ErrSheetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get first sheet: %w", err)
	}
	return &Sheet{pool: w.pool, id: id, name: name}, nil
}

func (w *Workbook) AddSheet(ctx context.Context, name string) (grid.Sheet, error) {
	var id int64
	err := w.pool.QueryRow(ctx,
		`INSERT INTO grid_sheets (name, position, max_rows)
		 VALUES ($1, (SELECT COALESCE(MAX(position), 0) + 1 FROM grid_sheets), $2)
		 RETURNING id`,
		name, w.maxRows).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %s", grid.ErrSheetExists, name)
		}
		return nil, fmt.Errorf("add sheet %s: %w", name, err)
	}
	return &Sheet{pool: w.pool, id: id, name: name}, nil
}

func (w *Workbook) Ping(ctx context.Context) error {
	return w.pool.Ping(ctx)
}

func (w *Workbook) Close() error {
	w.pool.Close()
	return nil
}

// Sheet is a grid.Sheet stored in PostgreSQL.
type Sheet struct {
	pool *pgxpool.Pool
	id   int64
	name string
}

func (s *Sheet) Name() string { return s.name }

func (s *Sheet) LastRow(ctx context.Context) (int, error) {
	var last int
	err := s.pool.QueryRow(ctx,
		`SELECT GREATEST(
		     (SELECT COALESCE(MAX(row_num), 0) FROM grid_cells WHERE sheet_id = $1),
		     (SELECT COALESCE(MAX(row_num + num_rows - 1), 0) FROM grid_checkboxes WHERE sheet_id = $1)
		 )`, s.id).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("last row of %s: %w", s.name, err)
	}
	return last, nil
}

func (s *Sheet) LastColumn(ctx context.Context) (int, error) {
	var last int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(col_num), 0) FROM grid_cells WHERE sheet_id = $1`, s.id).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("last column of %s: %w", s.name, err)
	}
	return last, nil
}

func (s *Sheet) MaxRows(ctx context.Context) (int, error) {
	var allocated int
	err := s.pool.QueryRow(ctx, `SELECT max_rows FROM grid_sheets WHERE id = $1`, s.id).Scan(&allocated)
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

	rows, err := s.pool.Query(ctx,
		`SELECT row_num, col_num, value FROM grid_cells
		 WHERE sheet_id = $1 AND row_num BETWEEN $2 AND $3 AND col_num BETWEEN $4 AND $5`,
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

// Set queues every cell write in a single batch inside one transaction.
func (s *Sheet) Set(ctx context.Context, row, col int, values [][]any) error {
	if err := (grid.Range{Row: row, Col: col}).Validate(); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin write to %s: %w", s.name, err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i, vals := range values {
		for j, v := range vals {
			r, c := row+i, col+j
			if grid.IsEmpty(grid.Normalize(v)) {
				batch.Queue(`DELETE FROM grid_cells WHERE sheet_id = $1 AND row_num = $2 AND col_num = $3`,
					s.id, r, c)
				continue
			}
			enc, err := grid.EncodeCell(v)
			if err != nil {
				return err
			}
			batch.Queue(`INSERT INTO grid_cells (sheet_id, row_num, col_num, value) VALUES ($1, $2, $3, $4)
				ON CONFLICT (sheet_id, row_num, col_num) DO UPDATE SET value = EXCLUDED.value`,
				s.id, r, c, enc)
		}
	}
	batch.Queue(`UPDATE grid_sheets SET max_rows = GREATEST(max_rows, $1) WHERE id = $2`,
		row+len(values)-1, s.id)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write to %s: %w", s.name, err)
	}
	if err := tx.Commit(ctx); err != nil {
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

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO grid_checkboxes (sheet_id, row_num, col_num, num_rows, num_cols)
			 VALUES ($1, $2, $3, $4, $5)`,
			s.id, r.Row, r.Col, r.NumRows, r.NumCols); err != nil {
			return fmt.Errorf("add checkbox to %s: %w", s.name, err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE grid_sheets SET max_rows = GREATEST(max_rows, $1) WHERE id = $2`,
			r.LastRow(), s.id); err != nil {
			return fmt.Errorf("grow %s: %w", s.name, err)
		}
		return nil
	})
}

func (s *Sheet) Checkboxes(ctx context.Context) ([]grid.Range, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT row_num, col_num, num_rows, num_cols FROM grid_checkboxes
		 WHERE sheet_id = $1 ORDER BY id`, s.id)
	if err != nil {
		return nil, fmt.Errorf("list checkboxes of %s: %w", s.name, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (grid.Range, error) {
		var r grid.Range
		err := row.Scan(&r.Row, &r.Col, &r.NumRows, &r.NumCols)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("list checkboxes of %s: %w", s.name, err)
	}
	return out, nil
}

func (s *Sheet) ColumnTypes(ctx context.Context) (map[string]string, error) {
	var raw []byte
	if err := s.pool.QueryRow(ctx,
		`SELECT column_types FROM grid_sheets WHERE id = $1`, s.id).Scan(&raw); err != nil {
		return nil, fmt.Errorf("column types of %s: %w", s.name, err)
	}

	types := make(map[string]string)
	if err := json.Unmarshal(raw, &types); err != nil {
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
	if _, err := s.pool.Exec(ctx,
		`UPDATE grid_sheets SET column_types = $1::jsonb WHERE id = $2`, string(b), s.id); err != nil {
		return fmt.Errorf("set column types of %s: %w", s.name, err)
	}
	return nil
}
