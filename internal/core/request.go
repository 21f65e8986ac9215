package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DecodeBatch parses a create body: a single JSON object or an array of
// objects. A null element decodes to an empty record.
func DecodeBatch(body []byte) ([]*Record, error) {
	if err := validJSON(body, "Invalid JSON"); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, invalidJSON("Invalid JSON", err)
		}
		records := make([]*Record, 0, len(raws))
		for i, raw := range raws {
			rec, err := decodeObject(raw)
			if err != nil {
				return nil, &Error{
					Kind:    ErrInvalidPayload,
					Message: "Invalid JSON",
					Debug:   fmt.Sprintf("element %d: %v", i, err),
				}
			}
			records = append(records, rec)
		}
		return records, nil

	case len(trimmed) > 0 && trimmed[0] == '{':
		rec, err := decodeObject(trimmed)
		if err != nil {
			return nil, invalidJSON("Invalid JSON", err)
		}
		return []*Record{rec}, nil

	default:
		return nil, &Error{
			Kind:    ErrInvalidPayload,
			Message: "Invalid JSON",
			Debug:   "expected a JSON object or array",
		}
	}
}

// DecodePatch parses an update or delete body. Valid JSON that is not an
// object decodes to an empty record, which then fails the id check.
func DecodePatch(body []byte, op Op) (*Record, error) {
	msg := "Invalid JSON for " + op.String()
	if err := validJSON(body, msg); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if trimmed[0] != '{' {
		return NewRecord(), nil
	}
	rec, err := decodeObject(trimmed)
	if err != nil {
		return nil, invalidJSON(msg, err)
	}
	return rec, nil
}

// DecodeRecord parses a single JSON object, such as a table sample.
// Empty input and null yield an empty record.
func DecodeRecord(raw []byte) (*Record, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return NewRecord(), nil
	}
	rec, err := decodeObject(raw)
	if err != nil {
		return nil, invalidJSON("Invalid JSON", err)
	}
	return rec, nil
}

func decodeObject(raw json.RawMessage) (*Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return NewRecord(), nil
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("expected an object, got %s", trimmed)
	}

	rec := NewRecord()
	if err := rec.UnmarshalJSON(trimmed); err != nil {
		return nil, err
	}
	return rec, nil
}

func validJSON(body []byte, msg string) error {
	var probe any
	if err := json.Unmarshal(body, &probe); err != nil {
		return invalidJSON(msg, err)
	}
	return nil
}

func invalidJSON(msg string, err error) *Error {
	return &Error{Kind: ErrInvalidPayload, Message: msg, Debug: err.Error()}
}

// ParseFields splits a projection list on commas, plus signs and whitespace.
// It returns nil when fields is empty, meaning "no projection". A list that
// names nothing (for example ",") is a projection of id alone.
func ParseFields(fields string) map[string]bool {
	if fields == "" {
		return nil
	}
	allowed := make(map[string]bool)
	for _, f := range strings.FieldsFunc(fields, func(r rune) bool {
		return r == ',' || r == '+' || unicode.IsSpace(r)
	}) {
		allowed[norm.NFC.String(f)] = true
	}
	return allowed
}
