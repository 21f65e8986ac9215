package schema

import (
	"encoding/json"
	"strings"
)

// ColumnType is the declared value type of a column.
// It is fixed when the table is created and carried with the schema.
type ColumnType int

const (
	// TypeUnknown marks a user column whose type was never recorded
	// (the table was created outside the engine).
	TypeUnknown ColumnType = iota
	TypeString
	TypeNumber
	TypeBoolean
)

// String returns the persisted name of the type.
func (t ColumnType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	default:
		return ""
	}
}

// ParseColumnType converts a persisted type name back to a ColumnType.
// Unrecognized names yield TypeUnknown.
func ParseColumnType(s string) ColumnType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "text":
		return TypeString
	case "number", "numeric":
		return TypeNumber
	case "boolean", "bool":
		return TypeBoolean
	default:
		return TypeUnknown
	}
}

// InferType derives a column type from a sample value.
func InferType(v any) ColumnType {
	switch v.(type) {
	case bool:
		return TypeBoolean
	case float64, float32, int, int32, int64, json.Number:
		return TypeNumber
	default:
		return TypeString
	}
}

// reservedTypes are the fixed types of the engine-managed columns.
var reservedTypes = map[string]ColumnType{
	ColID:        TypeString,
	ColCreatedAt: TypeString,
	ColUpdatedAt: TypeString,
	ColIsEnabled: TypeBoolean,
}
