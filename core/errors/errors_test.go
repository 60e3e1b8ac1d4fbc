package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestCorruptPackageError(t *testing.T) {
	err := NewCorruptPackage("word/document.xml", "part missing", nil)
	if !errors.Is(err, ErrCorruptPackage) {
		t.Error("CorruptPackageError should unwrap to ErrCorruptPackage")
	}
	if !strings.Contains(err.Error(), "word/document.xml") {
		t.Errorf("error should mention part: %v", err)
	}
}

func TestCorruptPackageErrorWrapsUnderlying(t *testing.T) {
	inner := errors.New("zip: not a valid zip file")
	err := NewCorruptPackage("", "unreadable container", inner)
	if !errors.Is(err, inner) {
		t.Error("should unwrap to underlying error when present")
	}
	if !errors.Is(err, ErrCorruptPackage) {
		t.Error("should still match ErrCorruptPackage alongside the cause")
	}
}

func TestSentinelMatchesWithCause(t *testing.T) {
	inner := errors.New("boom")
	cases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", &ValidationError{Field: "path", Message: "bad", Err: inner}, ErrInvalidInput},
		{"parse", &ParseError{Format: "yaml", Message: "bad", Err: inner}, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.sentinel) {
				t.Errorf("%v should match sentinel even with a cause attached", tc.err)
			}
			if !errors.Is(tc.err, inner) {
				t.Errorf("%v should match its cause", tc.err)
			}
		})
	}
}

func TestSpanNotFoundError(t *testing.T) {
	err := NewSpanNotFound("grammar_critic", "ch0002", "the data will be gathered", "below similarity threshold")
	if !errors.Is(err, ErrSpanNotFound) {
		t.Error("SpanNotFoundError should unwrap to ErrSpanNotFound")
	}
	if !strings.Contains(err.Error(), "ch0002") {
		t.Errorf("error should mention chapter: %v", err)
	}
}

func TestSpanNotFoundErrorTruncatesLiteral(t *testing.T) {
	long := strings.Repeat("x", 100)
	err := NewSpanNotFound("a", "ch0001", long, "no match")
	if strings.Contains(err.Error(), long) {
		t.Error("long literal should be truncated in message")
	}
}

func TestRoundtripError(t *testing.T) {
	err := NewRoundtrip("paragraph count", "before=10 after=9")
	if !errors.Is(err, ErrRoundtrip) {
		t.Error("RoundtripError should unwrap to ErrRoundtrip")
	}
	if !strings.Contains(err.Error(), "paragraph count") {
		t.Errorf("error should name the invariant: %v", err)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidation("literal_text", "shorter than 2 characters")
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should unwrap to ErrInvalidInput")
	}
}

func TestParseError(t *testing.T) {
	err := NewParse("XML", "word/styles.xml", "unexpected EOF")
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ParseError should unwrap to ErrInvalidInput")
	}
	if !strings.Contains(err.Error(), "word/styles.xml") {
		t.Errorf("error should mention path: %v", err)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrCorruptPackage, "loading document")
	if !Is(err, ErrCorruptPackage) {
		t.Error("wrapped error should still match sentinel")
	}
}
