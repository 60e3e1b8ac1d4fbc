// Package logging provides structured logging using Go's slog package.
package logging

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// DocumentIDKey is the context key for document ids.
	DocumentIDKey ContextKey = "document_id"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
)

func init() {
	// Initialize with a default logger (JSON format, Info level)
	InitLogger(LevelInfo, FormatJSON)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize timestamp format
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// WithDocumentID adds a document id to the context.
func WithDocumentID(ctx context.Context, documentID string) context.Context {
	return context.WithValue(ctx, DocumentIDKey, documentID)
}

// GetDocumentID retrieves the document id from the context.
func GetDocumentID(ctx context.Context) string {
	if documentID, ok := ctx.Value(DocumentIDKey).(string); ok {
		return documentID
	}
	return ""
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if documentID := GetDocumentID(ctx); documentID != "" {
		logger = logger.With("document_id", documentID)
	}
	return logger
}

// Helper functions for common logging patterns

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// SpanNotFound logs a finding that could not be located. The finding is
// dropped; processing continues.
func SpanNotFound(agentID, chapterID, literal, reason string, args ...any) {
	if len(literal) > 60 {
		literal = literal[:60] + "..."
	}
	allArgs := []any{
		"agent_id", agentID,
		"chapter_id", chapterID,
		"literal", literal,
		"reason", reason,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Warn("span_not_found", allArgs...)
}

// OverlapConflict logs an overlap resolved between two findings.
func OverlapConflict(winnerAgent, loserAgent, rule string, start, end int, args ...any) {
	allArgs := []any{
		"winner", winnerAgent,
		"loser", loserAgent,
		"rule", rule,
		"start", start,
		"end", end,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("overlap_conflict", allArgs...)
}

// FindingApplied logs a highlight successfully injected.
func FindingApplied(agentID, chapterID string, severity string, fragments int, args ...any) {
	allArgs := []any{
		"agent_id", agentID,
		"chapter_id", chapterID,
		"severity", severity,
		"fragments", fragments,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Debug("finding_applied", allArgs...)
}

// RoundtripFailure logs a fatal post-injection invariant violation.
func RoundtripFailure(invariant, detail string, args ...any) {
	allArgs := []any{
		"invariant", invariant,
		"detail", detail,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Error("roundtrip_failure", allArgs...)
}
