package core

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one row keyed by column name, in header order.
type Record = orderedmap.OrderedMap[string, any]

// NewRecord returns an empty record.
func NewRecord() *Record {
	return orderedmap.New[string, any]()
}

// RecordOf builds a record from alternating key/value pairs.
// It is a convenience for tests and seed data; odd trailing keys are ignored.
func RecordOf(kv ...any) *Record {
	r := NewRecord()
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		r.Set(k, kv[i+1])
	}
	return r
}

// Op is the kind of write a request performs.
type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "create"
	}
}

// ParseMethod maps the wire method indicator to an Op.
// "PUT" and "UPDATE" select update, "DELETE" selects delete, and anything
// else (including "") selects create. Matching is case-sensitive.
func ParseMethod(method string) Op {
	switch method {
	case "PUT", "UPDATE":
		return OpUpdate
	case "DELETE":
		return OpDelete
	default:
		return OpCreate
	}
}

// ParseMethodOrAction is ParseMethod over method, or over action when method
// is empty. Clients may send either query parameter.
func ParseMethodOrAction(method, action string) Op {
	if method == "" {
		method = action
	}
	return ParseMethod(method)
}

// WriteResult is the outcome of a successful write.
type WriteResult struct {
	Op Op

	// Create
	Count      int
	CreatedIDs []string

	// Update
	UpdatedFields []string

	// Update and delete: the id exactly as the caller sent it.
	ID any
}

// ColumnInfo describes one header column.
type ColumnInfo struct {
	Name     string `json:"name"`
	Index    int    `json:"index"`
	Type     string `json:"type"`
	Reserved bool   `json:"reserved,omitempty"`
}

// TableInfo is returned when a table is created.
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
	DemoID  string       `json:"demoId,omitempty"`
}
