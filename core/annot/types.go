// Package annot defines the shared annotation types exchanged between finding
// producers, the span locator, the overlap resolver, and the injector.
// All components should import these types from core/annot rather than
// defining their own.
package annot

import "strings"

// Severity classifies how serious a finding is.
type Severity string

// Severity constants.
const (
	SeverityMajor Severity = "major"
	SeverityMinor Severity = "minor"
)

// IsValid returns true if the severity is one of the two canonical values.
func (s Severity) IsValid() bool {
	return s == SeverityMajor || s == SeverityMinor
}

// NormalizeSeverity maps the severity vocabularies used by different
// producers onto the canonical major/minor pair. Unknown values are minor.
func NormalizeSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major", "high", "critical":
		return SeverityMajor
	default:
		return SeverityMinor
	}
}

// Finding is one reviewer-reported issue: an approximate location plus the
// literal text to annotate. Produced externally (or by core/rules), consumed
// once by the locator.
type Finding struct {
	// ChapterID is the segmenter-assigned chapter the finding belongs to.
	// Empty means the whole document.
	ChapterID string `json:"chapter_id,omitempty"`

	// ApproxOffset is the approximate chapter-relative byte offset of the
	// literal text. Negative means unknown.
	ApproxOffset int `json:"approx_offset"`

	// Paragraph is the approximate document paragraph index. Negative means
	// unknown. Used as a location hint when ApproxOffset is unknown.
	Paragraph int `json:"paragraph"`

	// LiteralText is the text to locate, verbatim.
	LiteralText string `json:"literal_text"`

	// Severity is major or minor. Major wins overlaps and gets a red
	// highlight; minor gets yellow.
	Severity Severity `json:"severity"`

	// AgentID identifies the producer (e.g., "technical_reader",
	// "grammar_critic").
	AgentID string `json:"agent_id"`

	// Note is the reviewer's comment, attached as a document comment when
	// comment injection is enabled.
	Note string `json:"note,omitempty"`
}

// RunSpan addresses a contiguous byte range inside a single run:
// (paragraph index, run index, intra-run start, length).
type RunSpan struct {
	Para   int `json:"para"`
	Run    int `json:"run"`
	Start  int `json:"start"`
	Length int `json:"length"`
}

// Located is a finding resolved to exact coordinates. Spans lists one
// RunSpan per run the literal text touches, in document order; Start/End
// are the logical byte offsets of the whole match in the document-level
// flattened text.
type Located struct {
	Finding    Finding   `json:"finding"`
	Spans      []RunSpan `json:"spans"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Confidence float64   `json:"confidence"`
}

// PlanEntry is one non-overlapping region of the final edit plan and the
// finding that won it.
type PlanEntry struct {
	Finding    Finding   `json:"finding"`
	Spans      []RunSpan `json:"spans"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Confidence float64   `json:"confidence"`

	// Origin is the index into the located slice Resolve was given of the
	// finding this entry derives from. Trimmed remainders keep their origin,
	// so duplicate findings with identical text stay distinguishable.
	Origin int `json:"origin"`
}

// EditPlan is the ordered, non-overlapping list of plan entries the injector
// consumes. It is the only structure the injector sees.
type EditPlan []PlanEntry

// Conflict records one resolved overlap for the audit report.
type Conflict struct {
	Winner string `json:"winner"`
	Loser  string `json:"loser"`
	Rule   string `json:"rule"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}
