package core

import (
	"context"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/JonMunkholm/rowstore/internal/grid"
	"github.com/JonMunkholm/rowstore/internal/schema"
)

// Read returns the enabled records of a table in row order.
//
// fields is an optional projection list (see ParseFields). With a projection,
// id is always included. is_enabled is never returned. Rows whose cells are
// all empty are skipped.
func (s *Service) Read(ctx context.Context, table, fields string) ([]*Record, error) {
	sh, err := s.sheet(ctx, table)
	if err != nil {
		return nil, err
	}

	rows, err := grid.DataRange(ctx, sh)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sh.Name(), err)
	}

	records := make([]*Record, 0, max(len(rows)-1, 0))
	if len(rows) == 0 {
		return records, nil
	}

	sc := schema.Resolve(rows[0], nil)
	allowed := ParseFields(fields)
	enabledCol := sc.IndexOf(schema.ColIsEnabled)

	for _, row := range rows[1:] {
		if enabledCol >= 0 && disabled(cell(row, enabledCol)) {
			continue
		}
		if blank(row) {
			continue
		}

		rec := NewRecord()
		for _, col := range sc.Columns {
			if col.Name == schema.ColIsEnabled {
				continue
			}
			if allowed != nil && col.Name != schema.ColID && !allowed[norm.NFC.String(col.Name)] {
				continue
			}
			rec.Set(col.Name, cell(row, col.Index))
		}
		records = append(records, rec)
	}

	return records, nil
}
