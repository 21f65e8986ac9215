package core

import (
	"math"
	"time"

	"github.com/JonMunkholm/rowstore/internal/grid"
)

// TimestampLayout is the ISO-8601 form written to created_at and updated_at.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t in UTC with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Stringify converts a payload or cell value to the string used for id
// comparison. Numbers print without a trailing ".0".
func Stringify(v any) string {
	return grid.String(grid.Normalize(v))
}

// falsy reports whether v counts as "not supplied": absent, null, "", 0,
// NaN or false.
func falsy(v any) bool {
	switch val := grid.Normalize(v).(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case float64:
		return val == 0 || math.IsNaN(val)
	default:
		return false
	}
}

// disabled reports whether a raw is_enabled cell marks the row soft-deleted.
// Only boolean false and the literal string "FALSE" do.
func disabled(v any) bool {
	switch val := v.(type) {
	case bool:
		return !val
	case string:
		return val == "FALSE"
	default:
		return false
	}
}

// blank reports whether every cell in row is empty.
func blank(row []any) bool {
	for _, v := range row {
		if !grid.IsEmpty(v) {
			return false
		}
	}
	return true
}

// cell returns row[i], or "" when the row is too short.
func cell(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
