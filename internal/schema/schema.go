// Package schema resolves the header row of a sheet into an explicit schema.
//
// The header row is the only schema a table has: row one holds the column
// names and every later row is a record. Resolve classifies the four reserved
// columns (id, created_at, updated_at, is_enabled) and attaches the column
// types recorded when the table was created.
package schema

import (
	"golang.org/x/text/unicode/norm"

	"github.com/JonMunkholm/rowstore/internal/grid"
)

// Reserved column names with engine-assigned semantics.
const (
	ColID        = "id"
	ColCreatedAt = "created_at"
	ColUpdatedAt = "updated_at"
	ColIsEnabled = "is_enabled"
)

// IsReserved reports whether name is one of the engine-managed columns.
func IsReserved(name string) bool {
	_, ok := reservedTypes[name]
	return ok
}

// Column is one named position in the header row.
type Column struct {
	Name  string     `json:"name"`
	Index int        `json:"index"` // 0-based position in the row
	Type  ColumnType `json:"-"`
}

// Schema is a resolved header row.
type Schema struct {
	Columns []Column

	width int
	index map[string]int // NFC name -> position in Columns (first occurrence)
	typed bool
}

// Resolve builds a Schema from raw header cells and the recorded column types.
//
// Header cells are converted to strings; empty cells do not name a column but
// still occupy a position. Duplicate names resolve to their first occurrence.
// types may be nil for tables created outside the engine.
func Resolve(header []any, types map[string]string) *Schema {
	s := &Schema{
		width: len(header),
		index: make(map[string]int, len(header)),
		typed: len(types) > 0,
	}

	for i, cell := range header {
		name := grid.String(cell)
		if name == "" {
			continue
		}

		col := Column{Name: name, Index: i, Type: TypeUnknown}
		if t, ok := reservedTypes[name]; ok {
			col.Type = t
		} else if raw, ok := types[name]; ok {
			col.Type = ParseColumnType(raw)
		}

		key := norm.NFC.String(name)
		if _, dup := s.index[key]; !dup {
			s.index[key] = len(s.Columns)
		}
		s.Columns = append(s.Columns, col)
	}

	return s
}

// Empty reports whether the header row names no columns.
func (s *Schema) Empty() bool {
	return len(s.Columns) == 0
}

// Width is the number of cells in the header row, named or not.
// Rows written to the sheet are always this wide.
func (s *Schema) Width() int {
	return s.width
}

// Typed reports whether column types were recorded at creation time.
func (s *Schema) Typed() bool {
	return s.typed
}

// Lookup returns the first column with the given name.
func (s *Schema) Lookup(name string) (Column, bool) {
	pos, ok := s.index[norm.NFC.String(name)]
	if !ok {
		return Column{}, false
	}
	return s.Columns[pos], true
}

// IndexOf returns the 0-based row position of the named column, or -1.
func (s *Schema) IndexOf(name string) int {
	col, ok := s.Lookup(name)
	if !ok {
		return -1
	}
	return col.Index
}

// Has reports whether the named column exists.
func (s *Schema) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Names returns column names in header order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Types returns the persisted form of the known column types.
func (s *Schema) Types() map[string]string {
	out := make(map[string]string, len(s.Columns))
	for _, c := range s.Columns {
		if c.Type != TypeUnknown {
			out[c.Name] = c.Type.String()
		}
	}
	return out
}

// Layout returns the header of a new table built from the given user columns:
// is_enabled first, user columns in order, then id, created_at, updated_at.
// Reserved and repeated names among userCols are skipped.
func Layout(userCols []string) []string {
	header := make([]string, 0, len(userCols)+4)
	header = append(header, ColIsEnabled)

	seen := make(map[string]bool, len(userCols))
	for _, name := range userCols {
		if name == "" || IsReserved(name) || seen[name] {
			continue
		}
		seen[name] = true
		header = append(header, name)
	}

	return append(header, ColID, ColCreatedAt, ColUpdatedAt)
}
