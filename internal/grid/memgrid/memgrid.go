// Package memgrid is an in-memory grid driver.
//
// It is the reference implementation of the grid contract and backs the
// engine tests. Data lives only as long as the process.
package memgrid

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/JonMunkholm/rowstore/internal/grid"
)

func init() {
	grid.Register("memory", func(_ context.Context, opts grid.Options) (grid.Workbook, error) {
		return New(opts.MaxRowsOrDefault()), nil
	})
}

// Workbook is an in-memory grid.Workbook. It is safe for concurrent use.
type Workbook struct {
	mu      sync.RWMutex
	maxRows int
	sheets  []*Sheet
}

// New creates an empty workbook whose sheets start with maxRows allocated rows.
func New(maxRows int) *Workbook {
	if maxRows <= 0 {
		maxRows = grid.DefaultMaxRows
	}
	return &Workbook{maxRows: maxRows}
}

type cellKey struct {
	row, col int
}

// Sheet is an in-memory grid.Sheet.
type Sheet struct {
	wb   *Workbook
	name string

	cells      map[cellKey]any
	checkboxes []grid.Range
	maxRows    int
	types      map[string]string
}

func (w *Workbook) Sheets(_ context.Context) ([]string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, len(w.sheets))
	for i, s := range w.sheets {
		names[i] = s.name
	}
	return names, nil
}

func (w *Workbook) Sheet(_ context.Context, name string) (grid.Sheet, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, s := range w.sheets {
		if s.name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", grid.ErrSheetNotFound, name)
}

func (w *Workbook) First(_ context.Context) (grid.Sheet, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if len(w.sheets) == 0 {
		return nil, grid.ErrSheetNotFound
	}
	return w.sheets[0], nil
}

func (w *Workbook) AddSheet(_ context.Context, name string) (grid.Sheet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, s := range w.sheets {
		if s.name == name {
			return nil, fmt.Errorf("%w: %s", grid.ErrSheetExists, name)
		}
	}

	s := &Sheet{
		wb:      w,
		name:    name,
		cells:   make(map[cellKey]any),
		maxRows: w.maxRows,
	}
	w.sheets = append(w.sheets, s)
	return s, nil
}

func (w *Workbook) Ping(_ context.Context) error { return nil }

func (w *Workbook) Close() error { return nil }

func (s *Sheet) Name() string { return s.name }

func (s *Sheet) LastRow(_ context.Context) (int, error) {
	s.wb.mu.RLock()
	defer s.wb.mu.RUnlock()
	return s.lastRow(), nil
}

func (s *Sheet) lastRow() int {
	last := 0
	for k := range s.cells {
		last = max(last, k.row)
	}
	for _, r := range s.checkboxes {
		last = max(last, r.LastRow())
	}
	return last
}

func (s *Sheet) LastColumn(_ context.Context) (int, error) {
	s.wb.mu.RLock()
	defer s.wb.mu.RUnlock()

	last := 0
	for k := range s.cells {
		last = max(last, k.col)
	}
	return last, nil
}

func (s *Sheet) MaxRows(_ context.Context) (int, error) {
	s.wb.mu.RLock()
	defer s.wb.mu.RUnlock()
	return max(s.maxRows, s.lastRow()), nil
}

func (s *Sheet) Get(_ context.Context, r grid.Range) ([][]any, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	s.wb.mu.RLock()
	defer s.wb.mu.RUnlock()

	out := grid.Blank(r.NumRows, r.NumCols)
	for i := range r.NumRows {
		for j := range r.NumCols {
			if v, ok := s.cells[cellKey{r.Row + i, r.Col + j}]; ok {
				out[i][j] = v
			}
		}
	}
	return out, nil
}

func (s *Sheet) Set(_ context.Context, row, col int, values [][]any) error {
	if err := (grid.Range{Row: row, Col: col}).Validate(); err != nil {
		return err
	}

	s.wb.mu.Lock()
	defer s.wb.mu.Unlock()

	for i, vals := range values {
		for j, v := range vals {
			key := cellKey{row + i, col + j}
			v = grid.Normalize(v)
			if grid.IsEmpty(v) {
				delete(s.cells, key)
				continue
			}
			s.cells[key] = v
		}
	}
	s.maxRows = max(s.maxRows, row+len(values)-1)
	return nil
}

func (s *Sheet) RequireCheckbox(_ context.Context, r grid.Range) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.NumRows == 0 || r.NumCols == 0 {
		return nil
	}

	s.wb.mu.Lock()
	defer s.wb.mu.Unlock()

	s.checkboxes = append(s.checkboxes, r)
	s.maxRows = max(s.maxRows, r.LastRow())
	return nil
}

func (s *Sheet) Checkboxes(_ context.Context) ([]grid.Range, error) {
	s.wb.mu.RLock()
	defer s.wb.mu.RUnlock()

	out := make([]grid.Range, len(s.checkboxes))
	copy(out, s.checkboxes)
	return out, nil
}

func (s *Sheet) ColumnTypes(_ context.Context) (map[string]string, error) {
	s.wb.mu.RLock()
	defer s.wb.mu.RUnlock()
	return maps.Clone(s.types), nil
}

func (s *Sheet) SetColumnTypes(_ context.Context, types map[string]string) error {
	s.wb.mu.Lock()
	defer s.wb.mu.Unlock()
	s.types = maps.Clone(types)
	return nil
}
