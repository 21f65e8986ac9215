package core

// # Error Codes Reference
//
// Every error the engine or its transports produce maps to a support code.
// Codes appear in server logs next to the technical error so an operator can
// find the cause from a user report.
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Table not found: the named sheet does not exist, or the workbook is empty
//	TBL002 - Table exists: a table with this name already exists
//	TBL003 - Unknown backend: the configured grid driver is not registered
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid payload: the body is not valid JSON or not a record
//	REQ002 - Missing field: the body has no "id" for update or delete
//	REQ003 - Request cancelled
//	REQ004 - Request timed out
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Missing column: the header lacks a column the operation needs
//
// # Row Errors (ROW001-ROW099)
//
//	ROW001 - Not found: no record has the supplied id
//	ROW002 - No data: the table has only a header row
//	ROW003 - Empty batch: create was called with no records
//	ROW004 - Duplicate id: a supplied id is already in use
//
// # Backend Errors (DB004-DB099)
//
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB007 - Deadlock or locked database
//
// # Throttling (WRT001, RATE001)
//
//	WRT001 - Too many concurrent writes
//	RATE001 - Too many requests from one client
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check logs for the technical error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// kindMessages maps engine error kinds to messages. Kinds are checked with
// errors.Is before any pattern matching.
var kindMessages = []struct {
	kind error
	msg  UserMessage
}{
	{ErrTableNotFound, UserMessage{"Table not found", "Verify the sheet name is correct", "TBL001"}},
	{ErrTableExists, UserMessage{"Table already exists", "Choose a different table name", "TBL002"}},
	{ErrInvalidPayload, UserMessage{"Request body is not valid JSON", "Send a JSON object or array", "REQ001"}},
	{ErrMissingField, UserMessage{"Required field is missing", `Include the record "id" in the body`, "REQ002"}},
	{ErrMissingColumn, UserMessage{"Table is missing a required column", "Add the column to the header row", "SCH001"}},
	{ErrNotFound, UserMessage{"Record not found", "Check the id and try again", "ROW001"}},
	{ErrNoData, UserMessage{"Table has no records", "Create a record first", "ROW002"}},
	{ErrEmptyBatch, UserMessage{"Nothing to insert", "Send at least one record", "ROW003"}},
	{ErrDuplicateID, UserMessage{"A record with this id already exists", "Use a different id or omit it", "ROW004"}},
	{ErrTooManyWrites, UserMessage{"System is busy processing other writes", "Please wait a moment and try again", "WRT001"}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first match wins, so specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "unknown grid driver",
		msg: UserMessage{
			Message: "Storage backend is not available",
			Action:  "Check the STORE_DRIVER setting",
			Code:    "TBL003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller batch or try again later",
			Code:    "REQ004",
		},
	},

	// Backend connectivity (DB004-DB007)
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to storage",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Storage connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller batch or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Storage was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Storage was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message with a support code.
// Engine kinds are matched first, then known patterns in the error text.
//
// Example:
//
//	msg := MapError(err) // err wraps ErrNotFound
//	// msg.Code == "ROW001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, km := range kindMessages {
		if errors.Is(err, km.kind) {
			return km.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
