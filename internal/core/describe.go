package core

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/JonMunkholm/rowstore/internal/grid"
	"github.com/JonMunkholm/rowstore/internal/schema"
)

// TableDescription is the resolved schema of a table plus a JSON Schema of
// the records Read returns.
type TableDescription struct {
	Name       string             `json:"name"`
	Columns    []ColumnInfo       `json:"columns"`
	JSONSchema *jsonschema.Schema `json:"jsonSchema"`
}

// DescribeTable resolves a table's header. Columns created outside the engine
// are typed from the first data row.
func (s *Service) DescribeTable(ctx context.Context, table string) (*TableDescription, error) {
	sh, err := s.sheet(ctx, table)
	if err != nil {
		return nil, err
	}

	sc, err := s.loadSchema(ctx, sh)
	if err != nil {
		return nil, err
	}

	var sample []any
	if !sc.Empty() && sc.Width() > 0 {
		rows, err := sh.Get(ctx, grid.Range{Row: 2, Col: 1, NumRows: 1, NumCols: sc.Width()})
		if err != nil {
			return nil, fmt.Errorf("read first row of %s: %w", sh.Name(), err)
		}
		sample = rows[0]
	}

	cols := columnInfos(sc, sample)
	return &TableDescription{
		Name:       sh.Name(),
		Columns:    cols,
		JSONSchema: recordSchema(sh.Name(), cols),
	}, nil
}

// recordSchema builds the JSON Schema of a record. is_enabled is never
// returned, so it is left out; engine-managed columns are read-only.
func recordSchema(title string, cols []ColumnInfo) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	var required []string

	for _, c := range cols {
		if c.Name == schema.ColIsEnabled {
			continue
		}
		if _, dup := props.Get(c.Name); dup {
			continue
		}

		prop := &jsonschema.Schema{}
		switch c.Type {
		case "string":
			prop.Type = "string"
		case "number":
			prop.Type = "number"
		case "boolean":
			prop.Type = "boolean"
		}

		switch c.Name {
		case schema.ColID:
			prop.ReadOnly = true
			prop.Description = "Unique record identifier"
			required = append(required, c.Name)
		case schema.ColCreatedAt, schema.ColUpdatedAt:
			prop.ReadOnly = true
			prop.Format = "date-time"
		}

		props.Set(c.Name, prop)
	}

	return &jsonschema.Schema{
		Version:    jsonschema.Version,
		Title:      title,
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}
