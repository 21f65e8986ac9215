package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/rowstore/internal/grid"
	"github.com/JonMunkholm/rowstore/internal/schema"
)

// trueLastRow returns the last row holding data, 1 when only the header is
// present.
//
// The grid's LastRow counts rows that carry checkbox validation, so once a
// batch has formatted a boolean column it points past the data. The id
// column is scanned bottom-up over every allocated row instead. Without an id
// column, LastRow is the best available answer.
func trueLastRow(ctx context.Context, sh grid.Sheet, sc *schema.Schema) (int, error) {
	idCol := sc.IndexOf(schema.ColID)
	if idCol < 0 {
		last, err := sh.LastRow(ctx)
		if err != nil {
			return 0, fmt.Errorf("last row of %s: %w", sh.Name(), err)
		}
		return max(last, 1), nil
	}

	maxRows, err := sh.MaxRows(ctx)
	if err != nil {
		return 0, fmt.Errorf("max rows of %s: %w", sh.Name(), err)
	}
	if maxRows <= 1 {
		return 1, nil
	}

	ids, err := sh.Get(ctx, grid.Range{Row: 2, Col: idCol + 1, NumRows: maxRows - 1, NumCols: 1})
	if err != nil {
		return 0, fmt.Errorf("scan ids of %s: %w", sh.Name(), err)
	}
	for i := len(ids) - 1; i >= 0; i-- {
		if !falsy(ids[i][0]) {
			return i + 2, nil
		}
	}
	return 1, nil
}

// findRowByID returns the first row, scanning down from row 2 to lastRow,
// whose id stringifies to target.
func findRowByID(ctx context.Context, sh grid.Sheet, sc *schema.Schema, lastRow int, target string) (int, bool, error) {
	idCol := sc.IndexOf(schema.ColID)
	if idCol < 0 || lastRow < 2 {
		return 0, false, nil
	}

	ids, err := sh.Get(ctx, grid.Range{Row: 2, Col: idCol + 1, NumRows: lastRow - 1, NumCols: 1})
	if err != nil {
		return 0, false, fmt.Errorf("scan ids of %s: %w", sh.Name(), err)
	}
	for i, row := range ids {
		if Stringify(row[0]) == target {
			return i + 2, true, nil
		}
	}
	return 0, false, nil
}

// existingIDs returns the stringified ids in rows 2..lastRow.
func existingIDs(ctx context.Context, sh grid.Sheet, sc *schema.Schema, lastRow int) (map[string]bool, error) {
	seen := make(map[string]bool)
	idCol := sc.IndexOf(schema.ColID)
	if idCol < 0 || lastRow < 2 {
		return seen, nil
	}

	ids, err := sh.Get(ctx, grid.Range{Row: 2, Col: idCol + 1, NumRows: lastRow - 1, NumCols: 1})
	if err != nil {
		return nil, fmt.Errorf("scan ids of %s: %w", sh.Name(), err)
	}
	for _, row := range ids {
		if !grid.IsEmpty(row[0]) {
			seen[Stringify(row[0])] = true
		}
	}
	return seen, nil
}
