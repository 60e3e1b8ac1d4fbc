package logging

import (
	"context"
	"testing"
)

func TestInitLoggerLevels(t *testing.T) {
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, Level(99)} {
		InitLogger(level, FormatJSON)
		if GetLogger() == nil {
			t.Fatalf("logger nil after InitLogger(%v)", level)
		}
	}
	InitLogger(LevelInfo, FormatText)
	if GetLogger() == nil {
		t.Fatal("logger nil after text format init")
	}
}

func TestDocumentIDContext(t *testing.T) {
	ctx := context.Background()
	if got := GetDocumentID(ctx); got != "" {
		t.Errorf("empty context should have no document id, got %q", got)
	}

	ctx = WithDocumentID(ctx, "doc-123")
	if got := GetDocumentID(ctx); got != "doc-123" {
		t.Errorf("GetDocumentID = %q, want doc-123", got)
	}

	if LoggerFromContext(ctx) == nil {
		t.Error("LoggerFromContext should never return nil")
	}
}

func TestDomainHelpersDoNotPanic(t *testing.T) {
	SpanNotFound("grammar_critic", "ch0001", "some literal", "no match")
	SpanNotFound("grammar_critic", "ch0001", string(make([]byte, 100)), "no match")
	OverlapConflict("technical_reader", "chairman", "severity", 10, 25)
	FindingApplied("grammar_critic", "ch0001", "minor", 2)
	RoundtripFailure("run count", "decreased")
}
