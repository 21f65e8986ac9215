package core

import (
	"context"
	"log/slog"
	"time"
)

// AuditAction represents the type of change being audited.
type AuditAction string

const (
	ActionRowCreate   AuditAction = "row_create"
	ActionRowUpdate   AuditAction = "row_update"
	ActionRowDelete   AuditAction = "row_soft_delete"
	ActionTableCreate AuditAction = "table_create"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// AuditEntry records one successful mutation.
type AuditEntry struct {
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	Table        string        `json:"table"`
	RowIDs       []string      `json:"rowIds,omitempty"`
	Fields       []string      `json:"fields,omitempty"`
	RowsAffected int           `json:"rowsAffected"`
	Source       string        `json:"source,omitempty"`
	RequestID    string        `json:"requestId,omitempty"`
	IPAddress    string        `json:"ipAddress,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AuditSink receives audit entries. Implementations must not block.
type AuditSink interface {
	Audit(ctx context.Context, entry AuditEntry)
}

// AuditFunc adapts a function to AuditSink.
type AuditFunc func(ctx context.Context, entry AuditEntry)

func (f AuditFunc) Audit(ctx context.Context, entry AuditEntry) { f(ctx, entry) }

// SlogAudit writes audit entries to the default slog logger.
var SlogAudit AuditSink = AuditFunc(func(ctx context.Context, e AuditEntry) {
	slog.InfoContext(ctx, "audit",
		"action", e.Action,
		"severity", e.Severity,
		"table", e.Table,
		"rows_affected", e.RowsAffected,
		"row_ids", e.RowIDs,
		"fields", e.Fields,
		"source", e.Source,
		"request_id", e.RequestID,
		"ip", e.IPAddress,
		"user_agent", e.UserAgent,
	)
})

// severityFor returns the severity of an action. Soft deletes hide data from
// readers, so they rank highest.
func severityFor(action AuditAction) AuditSeverity {
	switch action {
	case ActionRowDelete, ActionTableCreate:
		return SeverityHigh
	case ActionRowCreate, ActionRowUpdate:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func (s *Service) audit(ctx context.Context, e AuditEntry) {
	if s.auditor == nil {
		return
	}
	e.Severity = severityFor(e.Action)
	c := CallerFrom(ctx)
	e.Source = c.Source
	e.RequestID = c.RequestID
	e.IPAddress = c.IPAddress
	e.UserAgent = c.UserAgent
	e.CreatedAt = s.now()
	s.auditor.Audit(ctx, e)
}
