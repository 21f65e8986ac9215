package core

import (
	"errors"
	"strconv"
)

// Response envelopes. Callers tell success from failure by the presence of
// the "error" key, never by transport status.

// ReadEnvelope is the body of a successful read.
type ReadEnvelope struct {
	Data []*Record `json:"data"`
}

// CreateEnvelope is the body of a successful create.
type CreateEnvelope struct {
	Status     string   `json:"status"`
	Message    string   `json:"message"`
	CreatedIDs []string `json:"createdIds"`
}

// UpdateEnvelope is the body of a successful update.
type UpdateEnvelope struct {
	Status        string   `json:"status"`
	Message       string   `json:"message"`
	UpdatedFields []string `json:"updatedFields"`
	ID            any      `json:"id"`
}

// DeleteEnvelope is the body of a successful soft delete.
type DeleteEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ID      any    `json:"id"`
}

// MessageEnvelope carries a benign notice, such as an empty create batch.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// ErrorEnvelope is the body of any failure.
type ErrorEnvelope struct {
	Error string `json:"error"`
	Debug string `json:"debug,omitempty"`
}

// Envelope returns the wire body for a successful write.
func (r *WriteResult) Envelope() any {
	switch r.Op {
	case OpUpdate:
		fields := r.UpdatedFields
		if fields == nil {
			fields = []string{}
		}
		return UpdateEnvelope{Status: "success", Message: "Row updated", UpdatedFields: fields, ID: r.ID}
	case OpDelete:
		return DeleteEnvelope{Status: "success", Message: "Row soft deleted (is_enabled=false)", ID: r.ID}
	default:
		ids := r.CreatedIDs
		if ids == nil {
			ids = []string{}
		}
		return CreateEnvelope{Status: "success", Message: pluralRows(r.Count), CreatedIDs: ids}
	}
}

func pluralRows(n int) string {
	return strconv.Itoa(n) + " row(s) appended"
}

// FailureEnvelope returns the wire body for err. An empty batch is reported
// as a plain message rather than an error. Errors outside the taxonomy use
// fallback, so internal detail stays out of responses.
func FailureEnvelope(err error, fallback string) any {
	if errors.Is(err, ErrEmptyBatch) {
		return MessageEnvelope{Message: err.Error()}
	}
	if e, ok := AsError(err); ok {
		return ErrorEnvelope{Error: e.Message, Debug: e.Debug}
	}
	return ErrorEnvelope{Error: fallback}
}
