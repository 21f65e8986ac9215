// Package grid models the spreadsheet backing a row store.
//
// A Workbook holds ordered, named sheets. A Sheet is a two-dimensional grid of
// scalar cells addressed by 1-based row and column, plus the two pieces of
// presentation state the engine cares about: checkbox validation ranges and
// per-column type metadata.
//
// Drivers reproduce a quirk of hosted spreadsheets on purpose: LastRow counts
// rows that only carry validation, so it can report rows as occupied even when
// they hold no data. Callers that need the true end of the data must look at
// the cells themselves.
package grid

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxRows is the number of rows a new sheet is allocated with.
const DefaultMaxRows = 1000

var (
	// ErrSheetNotFound is returned when a named sheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrSheetExists is returned when adding a sheet whose name is taken.
	ErrSheetExists = errors.New("sheet already exists")

	// ErrInvalidRange is returned for ranges outside the addressable grid.
	ErrInvalidRange = errors.New("invalid range")
)

// Range is a rectangular block of cells. Row and Col are 1-based.
type Range struct {
	Row     int `json:"row"`
	Col     int `json:"col"`
	NumRows int `json:"numRows"`
	NumCols int `json:"numCols"`
}

// Validate checks that the range is addressable.
func (r Range) Validate() error {
	if r.Row < 1 || r.Col < 1 || r.NumRows < 0 || r.NumCols < 0 {
		return fmt.Errorf("%w: row=%d col=%d rows=%d cols=%d", ErrInvalidRange, r.Row, r.Col, r.NumRows, r.NumCols)
	}
	return nil
}

// LastRow returns the last row covered by the range.
func (r Range) LastRow() int {
	return r.Row + r.NumRows - 1
}

// Workbook is a collection of sheets.
type Workbook interface {
	// Sheets returns sheet names in position order.
	Sheets(ctx context.Context) ([]string, error)

	// Sheet returns the named sheet or ErrSheetNotFound.
	Sheet(ctx context.Context, name string) (Sheet, error)

	// First returns the sheet in the first position or ErrSheetNotFound.
	First(ctx context.Context) (Sheet, error)

	// AddSheet appends a new, empty sheet or returns ErrSheetExists.
	AddSheet(ctx context.Context, name string) (Sheet, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Sheet is one grid of cells.
//
// Cell values are normalized scalars: string, float64 or bool. Empty cells
// read back as "".
type Sheet interface {
	Name() string

	// LastRow is the last row holding a value or a validation rule, 0 if none.
	LastRow(ctx context.Context) (int, error)

	// LastColumn is the last column holding a value, 0 if none.
	LastColumn(ctx context.Context) (int, error)

	// MaxRows is the number of allocated rows. It is never less than LastRow.
	MaxRows(ctx context.Context) (int, error)

	// Get reads a block of cells. Cells beyond the written area read as "".
	Get(ctx context.Context, r Range) ([][]any, error)

	// Set writes a block of cells starting at (row, col). Rows of values
	// may have different lengths. Writing "" or nil clears a cell.
	Set(ctx context.Context, row, col int, values [][]any) error

	// RequireCheckbox applies checkbox validation to every cell in r.
	RequireCheckbox(ctx context.Context, r Range) error

	// Checkboxes lists the validated ranges in the order they were applied.
	Checkboxes(ctx context.Context) ([]Range, error)

	// ColumnTypes returns the recorded column type names, keyed by column.
	ColumnTypes(ctx context.Context) (map[string]string, error)

	// SetColumnTypes replaces the recorded column type names.
	SetColumnTypes(ctx context.Context, types map[string]string) error
}

// DataRange reads the block from A1 to (LastRow, LastColumn), the same block
// a spreadsheet reports as its data range.
func DataRange(ctx context.Context, s Sheet) ([][]any, error) {
	lastRow, err := s.LastRow(ctx)
	if err != nil {
		return nil, fmt.Errorf("last row: %w", err)
	}
	lastCol, err := s.LastColumn(ctx)
	if err != nil {
		return nil, fmt.Errorf("last column: %w", err)
	}
	if lastRow == 0 || lastCol == 0 {
		return [][]any{}, nil
	}
	return s.Get(ctx, Range{Row: 1, Col: 1, NumRows: lastRow, NumCols: lastCol})
}

// SetValue writes a single cell.
func SetValue(ctx context.Context, s Sheet, row, col int, v any) error {
	return s.Set(ctx, row, col, [][]any{{v}})
}

// Blank returns a numRows x numCols block of empty cells.
func Blank(numRows, numCols int) [][]any {
	out := make([][]any, numRows)
	for i := range out {
		row := make([]any, numCols)
		for j := range row {
			row[j] = ""
		}
		out[i] = row
	}
	return out
}
