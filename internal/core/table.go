package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/rowstore/internal/grid"
	"github.com/JonMunkholm/rowstore/internal/schema"
)

// CreateTable adds a sheet laid out as is_enabled, the sample's user columns
// in order, then id, created_at and updated_at. Column types are taken from
// the sample values and recorded with the sheet. The sample is then inserted
// as the demonstration record.
func (s *Service) CreateTable(ctx context.Context, name string, sample *Record) (*TableInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(ErrInvalidPayload, "Table name is required")
	}
	if sample == nil {
		sample = NewRecord()
	}

	userCols := make([]string, 0, sample.Len())
	for pair := sample.Oldest(); pair != nil; pair = pair.Next() {
		userCols = append(userCols, pair.Key)
	}
	header := schema.Layout(userCols)

	types := make(map[string]string, len(header))
	for _, col := range header {
		if schema.IsReserved(col) {
			continue
		}
		v, _ := sample.Get(col)
		types[col] = schema.InferType(grid.Normalize(v)).String()
	}

	var sh grid.Sheet
	err := s.write(ctx, func() error {
		var err error
		sh, err = s.wb.AddSheet(ctx, name)
		if errors.Is(err, grid.ErrSheetExists) {
			return newError(ErrTableExists, `Sheet "%s" already exists`, name)
		}
		if err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}

		cells := make([]any, len(header))
		for i, col := range header {
			cells[i] = col
		}
		if err := sh.Set(ctx, 1, 1, [][]any{cells}); err != nil {
			return fmt.Errorf("write header of %s: %w", name, err)
		}
		if err := sh.SetColumnTypes(ctx, types); err != nil {
			return fmt.Errorf("record column types of %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, AuditEntry{Action: ActionTableCreate, Table: name, Fields: header})

	res, err := s.create(ctx, sh, []*Record{sample})
	if err != nil {
		return nil, fmt.Errorf("insert demonstration record: %w", err)
	}

	sc, err := s.loadSchema(ctx, sh)
	if err != nil {
		return nil, err
	}

	info := &TableInfo{Name: name, Columns: columnInfos(sc, nil)}
	if len(res.CreatedIDs) > 0 {
		info.DemoID = res.CreatedIDs[0]
	}
	return info, nil
}

// columnInfos describes the schema's columns. Columns without a recorded type
// take the type of their value in sample, when one is given.
func columnInfos(sc *schema.Schema, sample []any) []ColumnInfo {
	cols := make([]ColumnInfo, len(sc.Columns))
	for i, c := range sc.Columns {
		t := c.Type
		if t == schema.TypeUnknown && sample != nil && !grid.IsEmpty(cell(sample, c.Index)) {
			t = schema.InferType(cell(sample, c.Index))
		}
		name := t.String()
		if name == "" {
			name = "unknown"
		}
		cols[i] = ColumnInfo{
			Name:     c.Name,
			Index:    c.Index,
			Type:     name,
			Reserved: schema.IsReserved(c.Name),
		}
	}
	return cols
}
