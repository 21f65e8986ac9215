// Package gridtest holds the behavioral tests every grid driver must pass.
package gridtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/rowstore/internal/grid"
)

// Factory returns a fresh, empty workbook for one subtest. Sheets must start
// with maxRows allocated rows.
type Factory func(t *testing.T, maxRows int) grid.Workbook

// Run exercises a driver against the grid contract.
func Run(t *testing.T, open Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, open Factory)
	}{
		{"SheetLifecycle", testSheetLifecycle},
		{"EmptySheet", testEmptySheet},
		{"SetAndGet", testSetAndGet},
		{"ClearCells", testClearCells},
		{"ValueTypes", testValueTypes},
		{"CheckboxInflatesLastRow", testCheckboxInflatesLastRow},
		{"MaxRowsGrows", testMaxRowsGrows},
		{"ColumnTypes", testColumnTypes},
		{"InvalidRange", testInvalidRange},
		{"SheetsAreIsolated", testSheetsAreIsolated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open)
		})
	}
}

func testSheetLifecycle(t *testing.T, open Factory) {
	ctx := context.Background()
	wb := open(t, 10)

	_, err := wb.First(ctx)
	require.ErrorIs(t, err, grid.ErrSheetNotFound)

	names, err := wb.Sheets(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = wb.AddSheet(ctx, "Users")
	require.NoError(t, err)
	_, err = wb.AddSheet(ctx, "Orders")
	require.NoError(t, err)

	_, err = wb.AddSheet(ctx, "Users")
	require.ErrorIs(t, err, grid.ErrSheetExists)

	names, err = wb.Sheets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Users", "Orders"}, names)

	first, err := wb.First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Users", first.Name())

	s, err := wb.Sheet(ctx, "Orders")
	require.NoError(t, err)
	assert.Equal(t, "Orders", s.Name())

	_, err = wb.Sheet(ctx, "orders")
	require.ErrorIs(t, err, grid.ErrSheetNotFound)

	require.NoError(t, wb.Ping(ctx))
}

func testEmptySheet(t *testing.T, open Factory) {
	ctx := context.Background()
	s := addSheet(t, open(t, 10), "Empty")

	lastRow, err := s.LastRow(ctx)
	require.NoError(t, err)
	assert.Zero(t, lastRow)

	lastCol, err := s.LastColumn(ctx)
	require.NoError(t, err)
	assert.Zero(t, lastCol)

	maxRows, err := s.MaxRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, maxRows)

	data, err := grid.DataRange(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, data)

	cells, err := s.Get(ctx, grid.Range{Row: 1, Col: 1, NumRows: 2, NumCols: 2})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"", ""}, {"", ""}}, cells)
}

func testSetAndGet(t *testing.T, open Factory) {
	ctx := context.Background()
	s := addSheet(t, open(t, 10), "Data")

	require.NoError(t, s.Set(ctx, 1, 1, [][]any{
		{"id", "name", "age"},
		{"a1", "Ann", 30},
	}))
	require.NoError(t, s.Set(ctx, 4, 2, [][]any{{"Bob"}}))

	lastRow, err := s.LastRow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, lastRow)

	lastCol, err := s.LastColumn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, lastCol)

	data, err := grid.DataRange(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, [][]any{
		{"id", "name", "age"},
		{"a1", "Ann", float64(30)},
		{"", "", ""},
		{"", "Bob", ""},
	}, data)

	// Offset read beyond the written area.
	cells, err := s.Get(ctx, grid.Range{Row: 2, Col: 3, NumRows: 2, NumCols: 2})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{float64(30), ""}, {"", ""}}, cells)

	require.NoError(t, grid.SetValue(ctx, s, 2, 2, "Annie"))
	cells, err = s.Get(ctx, grid.Range{Row: 2, Col: 2, NumRows: 1, NumCols: 1})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"Annie"}}, cells)
}

func testClearCells(t *testing.T, open Factory) {
	ctx := context.Background()
	s := addSheet(t, open(t, 10), "Clear")

	require.NoError(t, s.Set(ctx, 1, 1, [][]any{{"a", "b"}, {"c", "d"}}))
	require.NoError(t, s.Set(ctx, 2, 1, [][]any{{"", nil}}))

	lastRow, err := s.LastRow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, lastRow)

	cells, err := s.Get(ctx, grid.Range{Row: 1, Col: 1, NumRows: 2, NumCols: 2})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"a", "b"}, {"", ""}}, cells)
}

func testValueTypes(t *testing.T, open Factory) {
	ctx := context.Background()
	s := addSheet(t, open(t, 10), "Types")

	require.NoError(t, s.Set(ctx, 1, 1, [][]any{
		{"text", 1.5, int64(7), true, false, map[string]any{"k": "v"}, "FALSE"},
	}))

	cells, err := s.Get(ctx, grid.Range{Row: 1, Col: 1, NumRows: 1, NumCols: 7})
	require.NoError(t, err)
	assert.Equal(t, [][]any{
		{"text", 1.5, float64(7), true, false, `{"k":"v"}`, "FALSE"},
	}, cells)
}

func testCheckboxInflatesLastRow(t *testing.T, open Factory) {
	ctx := context.Background()
	s := addSheet(t, open(t, 10), "Checks")

	require.NoError(t, s.Set(ctx, 1, 1, [][]any{{"is_enabled", "id"}, {true, "x"}}))
	require.NoError(t, s.RequireCheckbox(ctx, grid.Range{Row: 2, Col: 1, NumRows: 50, NumCols: 1}))

	lastRow, err := s.LastRow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 51, lastRow, "validation rows count toward LastRow")

	lastCol, err := s.LastColumn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, lastCol)

	maxRows, err := s.MaxRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 51, maxRows)

	// A zero-sized range is a no-op.
	require.NoError(t, s.RequireCheckbox(ctx, grid.Range{Row: 2, Col: 2, NumRows: 0, NumCols: 1}))

	ranges, err := s.Checkboxes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []grid.Range{{Row: 2, Col: 1, NumRows: 50, NumCols: 1}}, ranges)
}

func testMaxRowsGrows(t *testing.T, open Factory) {
	ctx := context.Background()
	s := addSheet(t, open(t, 3), "Grow")

	require.NoError(t, s.Set(ctx, 7, 1, [][]any{{"x"}}))
	require.NoError(t, s.Set(ctx, 7, 1, [][]any{{""}}))

	maxRows, err := s.MaxRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, maxRows, "allocation survives clearing")

	lastRow, err := s.LastRow(ctx)
	require.NoError(t, err)
	assert.Zero(t, lastRow)
}

func testColumnTypes(t *testing.T, open Factory) {
	ctx := context.Background()
	s := addSheet(t, open(t, 10), "Meta")

	types, err := s.ColumnTypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, types)

	want := map[string]string{"age": "number", "is_enabled": "boolean"}
	require.NoError(t, s.SetColumnTypes(ctx, want))

	types, err = s.ColumnTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, types)

	// Mutating the returned map must not leak into the sheet.
	types["age"] = "string"
	again, err := s.ColumnTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "number", again["age"])
}

func testInvalidRange(t *testing.T, open Factory) {
	ctx := context.Background()
	s := addSheet(t, open(t, 10), "Bad")

	_, err := s.Get(ctx, grid.Range{Row: 0, Col: 1, NumRows: 1, NumCols: 1})
	require.ErrorIs(t, err, grid.ErrInvalidRange)

	err = s.Set(ctx, 1, 0, [][]any{{"x"}})
	require.ErrorIs(t, err, grid.ErrInvalidRange)

	err = s.RequireCheckbox(ctx, grid.Range{Row: 1, Col: 1, NumRows: -1, NumCols: 1})
	require.ErrorIs(t, err, grid.ErrInvalidRange)
}

func testSheetsAreIsolated(t *testing.T, open Factory) {
	ctx := context.Background()
	wb := open(t, 10)
	a := addSheet(t, wb, "A")
	b := addSheet(t, wb, "B")

	require.NoError(t, a.Set(ctx, 1, 1, [][]any{{"only-a"}}))
	require.NoError(t, a.RequireCheckbox(ctx, grid.Range{Row: 1, Col: 1, NumRows: 20, NumCols: 1}))

	lastRow, err := b.LastRow(ctx)
	require.NoError(t, err)
	assert.Zero(t, lastRow)

	cells, err := b.Get(ctx, grid.Range{Row: 1, Col: 1, NumRows: 1, NumCols: 1})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{""}}, cells)
}

func addSheet(t *testing.T, wb grid.Workbook, name string) grid.Sheet {
	t.Helper()
	s, err := wb.AddSheet(context.Background(), name)
	require.NoError(t, err)
	return s
}
