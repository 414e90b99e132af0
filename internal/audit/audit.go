package audit

import (
	"context"
	"log/slog"
)

// Event represents a single auditable action in the system.
type Event struct {
	UserID   string // empty for system events
	Action   string // e.g. "access.denied", "catalog.reloaded"
	Path     string
	Metadata map[string]any
	Source   string // "api", "signal", "system"
}

const (
	ActionAccessDenied         = "access.denied"
	ActionCatalogReloaded      = "catalog.reloaded"
	ActionCatalogReloadFailed  = "catalog.reload_failed"
	ActionPermissionsInspected = "permissions.inspected"
)

const (
	MetadataDecision  = "decision"
	MetadataKind      = "kind"
	MetadataReason    = "reason"
	MetadataRequestID = "request_id"
	MetadataTemplate  = "template"
)

// Logger is the audit logging interface. Log is fire-and-forget.
type Logger interface {
	Log(ctx context.Context, event Event)
	Close() error
}

// NopLogger is a no-op audit logger for testing and when audit is disabled.
type NopLogger struct{}

func (NopLogger) Log(context.Context, Event) {}
func (NopLogger) Close() error               { return nil }

// SlogLogger writes audit events as structured log records under the
// "audit" group.
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Log(ctx context.Context, event Event) {
	attrs := []any{
		slog.String("action", event.Action),
		slog.String("source", event.Source),
	}
	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Path != "" {
		attrs = append(attrs, slog.String("path", event.Path))
	}
	if len(event.Metadata) > 0 {
		meta := make([]any, 0, len(event.Metadata))
		for k, v := range event.Metadata {
			meta = append(meta, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", meta...))
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, "audit event", slog.Group("audit", attrs...))
}

func (l *SlogLogger) Close() error { return nil }
