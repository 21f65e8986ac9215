package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/rowstore/internal/grid"
	"github.com/JonMunkholm/rowstore/internal/schema"
)

// Write decodes body according to op and applies it to a table.
// The table is resolved before the body is parsed, so an unknown table is
// reported even when the body is malformed.
func (s *Service) Write(ctx context.Context, table string, op Op, body []byte) (*WriteResult, error) {
	sh, err := s.sheet(ctx, table)
	if err != nil {
		return nil, err
	}

	switch op {
	case OpUpdate, OpDelete:
		patch, err := DecodePatch(body, op)
		if err != nil {
			return nil, err
		}
		if op == OpUpdate {
			return s.update(ctx, sh, patch)
		}
		return s.softDelete(ctx, sh, patch)

	default:
		records, err := DecodeBatch(body)
		if err != nil {
			return nil, err
		}
		return s.create(ctx, sh, records)
	}
}

// Create appends records to a table after its true last row.
func (s *Service) Create(ctx context.Context, table string, records []*Record) (*WriteResult, error) {
	sh, err := s.sheet(ctx, table)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, sh, records)
}

// Update patches the row whose id matches patch["id"]. Keys that are not
// columns are ignored. The id and is_enabled keys are never written, so they
// do not appear in UpdatedFields; use SoftDelete to disable a row.
func (s *Service) Update(ctx context.Context, table string, patch *Record) (*WriteResult, error) {
	sh, err := s.sheet(ctx, table)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, sh, patch)
}

// SoftDelete sets is_enabled to false on the row whose id matches req["id"].
func (s *Service) SoftDelete(ctx context.Context, table string, req *Record) (*WriteResult, error) {
	sh, err := s.sheet(ctx, table)
	if err != nil {
		return nil, err
	}
	return s.softDelete(ctx, sh, req)
}

func (s *Service) create(ctx context.Context, sh grid.Sheet, records []*Record) (*WriteResult, error) {
	if len(records) == 0 {
		return nil, newError(ErrEmptyBatch, "No data to insert")
	}

	var res *WriteResult
	err := s.write(ctx, func() error {
		sc, err := s.loadSchema(ctx, sh)
		if err != nil {
			return err
		}
		if err := sc.Require(schema.NeedHeader); err != nil {
			return missingColumn(err)
		}

		ts := Timestamp(s.now())
		idCol := sc.IndexOf(schema.ColID)

		rows := make([][]any, len(records))
		ids := make([]string, 0, len(records))
		for i, rec := range records {
			rows[i] = s.shapeRow(sc, rec, ts)
			if idCol >= 0 {
				ids = append(ids, rows[i][idCol].(string))
			}
		}

		lastRow, err := trueLastRow(ctx, sh, sc)
		if err != nil {
			return err
		}

		if idCol >= 0 {
			seen, err := existingIDs(ctx, sh, sc, lastRow)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if seen[id] {
					return newError(ErrDuplicateID, "Duplicate id: %s", id)
				}
				seen[id] = true
			}
		}

		start := lastRow + 1
		if err := sh.Set(ctx, start, 1, rows); err != nil {
			return fmt.Errorf("append to %s: %w", sh.Name(), err)
		}

		for _, col := range sc.Columns {
			if !booleanColumn(col, rows[0]) {
				continue
			}
			r := grid.Range{Row: start, Col: col.Index + 1, NumRows: len(rows), NumCols: 1}
			if err := sh.RequireCheckbox(ctx, r); err != nil {
				return fmt.Errorf("checkbox %s.%s: %w", sh.Name(), col.Name, err)
			}
		}

		res = &WriteResult{Op: OpCreate, Count: len(rows), CreatedIDs: ids}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, AuditEntry{
		Action:       ActionRowCreate,
		Table:        sh.Name(),
		RowIDs:       res.CreatedIDs,
		RowsAffected: res.Count,
	})
	return res, nil
}

// shapeRow aligns rec to the header. Positions without a column name stay "".
func (s *Service) shapeRow(sc *schema.Schema, rec *Record, ts string) []any {
	row := make([]any, sc.Width())
	for i := range row {
		row[i] = ""
	}

	for _, col := range sc.Columns {
		v, present := rec.Get(col.Name)

		switch col.Name {
		case schema.ColID:
			if falsy(v) {
				v = s.ids.NewID()
			} else {
				v = Stringify(v)
			}
		case schema.ColCreatedAt, schema.ColUpdatedAt:
			if falsy(v) {
				v = ts
			}
		case schema.ColIsEnabled:
			if !present || v == nil || v == "" {
				v = true
			}
		}

		if v == nil {
			v = ""
		}
		row[col.Index] = grid.Normalize(v)
	}
	return row
}

// booleanColumn reports whether new cells in col get checkbox validation:
// the recorded type is boolean, or no type was recorded and the first new row
// holds a boolean there.
func booleanColumn(col schema.Column, sample []any) bool {
	switch col.Type {
	case schema.TypeBoolean:
		return true
	case schema.TypeUnknown:
		_, ok := cell(sample, col.Index).(bool)
		return ok
	default:
		return false
	}
}

func (s *Service) update(ctx context.Context, sh grid.Sheet, patch *Record) (*WriteResult, error) {
	id, _ := patch.Get(schema.ColID)
	if falsy(id) {
		return nil, newError(ErrMissingField, `Update requires an "id" field`)
	}

	var res *WriteResult
	err := s.write(ctx, func() error {
		row, sc, err := s.locate(ctx, sh, id, "No data to update", schema.NeedID)
		if err != nil {
			return err
		}

		updated := make([]string, 0, patch.Len())
		for pair := patch.Oldest(); pair != nil; pair = pair.Next() {
			// id is immutable and is_enabled only moves through SoftDelete.
			if pair.Key == schema.ColID || pair.Key == schema.ColIsEnabled {
				continue
			}
			col := sc.IndexOf(pair.Key)
			if col < 0 {
				continue
			}
			if err := grid.SetValue(ctx, sh, row, col+1, pair.Value); err != nil {
				return fmt.Errorf("update %s.%s: %w", sh.Name(), pair.Key, err)
			}
			updated = append(updated, pair.Key)
		}

		if err := s.touch(ctx, sh, sc, row); err != nil {
			return err
		}

		res = &WriteResult{Op: OpUpdate, UpdatedFields: updated, ID: id}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, AuditEntry{
		Action:       ActionRowUpdate,
		Table:        sh.Name(),
		RowIDs:       []string{Stringify(id)},
		Fields:       res.UpdatedFields,
		RowsAffected: 1,
	})
	return res, nil
}

func (s *Service) softDelete(ctx context.Context, sh grid.Sheet, req *Record) (*WriteResult, error) {
	id, _ := req.Get(schema.ColID)
	if falsy(id) {
		return nil, newError(ErrMissingField, `Delete requires an "id" field`)
	}

	err := s.write(ctx, func() error {
		row, sc, err := s.locate(ctx, sh, id, "No data to delete", schema.NeedID, schema.NeedIsEnabled)
		if err != nil {
			return err
		}

		col := sc.IndexOf(schema.ColIsEnabled)
		if err := grid.SetValue(ctx, sh, row, col+1, false); err != nil {
			return fmt.Errorf("disable row %d of %s: %w", row, sh.Name(), err)
		}
		return s.touch(ctx, sh, sc, row)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, AuditEntry{
		Action:       ActionRowDelete,
		Table:        sh.Name(),
		RowIDs:       []string{Stringify(id)},
		RowsAffected: 1,
	})
	return &WriteResult{Op: OpDelete, ID: id}, nil
}

// locate resolves the schema and finds the row for id. Failures are checked
// in order: no data rows, missing required columns, no matching id.
func (s *Service) locate(ctx context.Context, sh grid.Sheet, id any, noData string, reqs ...schema.Requirement) (int, *schema.Schema, error) {
	lastRow, err := sh.LastRow(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("last row of %s: %w", sh.Name(), err)
	}
	if lastRow <= 1 {
		return 0, nil, newError(ErrNoData, "%s", noData)
	}

	sc, err := s.loadSchema(ctx, sh)
	if err != nil {
		return 0, nil, err
	}
	if err := sc.Require(reqs...); err != nil {
		return 0, nil, missingColumn(err)
	}

	target := Stringify(id)
	row, found, err := findRowByID(ctx, sh, sc, lastRow, target)
	if err != nil {
		return 0, nil, err
	}
	if !found {
		return 0, nil, newError(ErrNotFound, "ID not found: %s", target)
	}
	return row, sc, nil
}

// touch stamps updated_at on row when the column exists.
func (s *Service) touch(ctx context.Context, sh grid.Sheet, sc *schema.Schema, row int) error {
	col := sc.IndexOf(schema.ColUpdatedAt)
	if col < 0 {
		return nil
	}
	if err := grid.SetValue(ctx, sh, row, col+1, Timestamp(s.now())); err != nil {
		return fmt.Errorf("stamp updated_at on %s: %w", sh.Name(), err)
	}
	return nil
}
