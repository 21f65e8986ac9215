package core

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/rowstore/internal/schema"
)

// Sentinel kinds. Every *Error unwraps to exactly one of these.
var (
	ErrTableNotFound  = errors.New("table not found")
	ErrTableExists    = errors.New("table already exists")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrMissingColumn  = errors.New("missing column")
	ErrMissingField   = errors.New("missing field")
	ErrNotFound       = errors.New("record not found")
	ErrNoData         = errors.New("no data")
	ErrEmptyBatch     = errors.New("empty batch")
	ErrDuplicateID    = errors.New("duplicate id")
)

// Error is a failure the caller can act on. Message is returned to the
// caller verbatim; Debug carries parser detail for payload errors.
type Error struct {
	Kind    error
	Message string
	Debug   string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// missingColumn converts a schema requirement failure into an *Error.
func missingColumn(err error) error {
	var mc *schema.MissingColumnError
	if errors.As(err, &mc) {
		return &Error{Kind: ErrMissingColumn, Message: mc.Error()}
	}
	return err
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
