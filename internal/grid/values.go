package grid

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Normalize converts a decoded JSON value into a cell scalar.
//
// Strings, booleans and float64 pass through. Other numeric types become
// float64. nil stays nil (an empty cell). Arrays and objects are stored as
// their JSON text.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string, bool, float64:
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

// String converts a cell value to its string form. Numbers print without
// a trailing ".0"; nil prints as "".
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(val)
	case float32:
		return formatNumber(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// IsEmpty reports whether v is an empty cell.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// EncodeCell serializes a cell scalar for SQL-backed drivers.
func EncodeCell(v any) (string, error) {
	b, err := json.Marshal(Normalize(v))
	if err != nil {
		return "", fmt.Errorf("encode cell: %w", err)
	}
	return string(b), nil
}

// DecodeCell reverses EncodeCell.
func DecodeCell(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decode cell: %w", err)
	}
	if v == nil {
		return "", nil
	}
	return v, nil
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if math.Abs(f) >= 1e21 {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
