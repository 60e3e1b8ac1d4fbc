// Package rules is the mechanical style pass: regex scans over the flattened
// text that emit findings with exact literals, so the locator can place them
// at full confidence.
package rules

import (
	"context"
	"regexp"

	"github.com/panelzero/redline/core/annot"
	"github.com/panelzero/redline/core/index"
)

// AgentID identifies this producer in findings and priority ordering.
const AgentID = "technical_reader"

// Toggles enable individual checks. The zero value disables everything; use
// AllChecks for the default set.
type Toggles struct {
	DoubleSpace     bool `json:"double_space" yaml:"double_space"`
	SpaceAfterStop  bool `json:"space_after_period" yaml:"space_after_period"`
	SpaceAfterComma bool `json:"space_after_comma" yaml:"space_after_comma"`
}

// AllChecks enables every check.
func AllChecks() Toggles {
	return Toggles{DoubleSpace: true, SpaceAfterStop: true, SpaceAfterComma: true}
}

type check struct {
	re   *regexp.Regexp
	note string
	on   func(Toggles) bool
}

var checks = []check{
	{
		// Two or more spaces between words. Sentence-spacing holdouts get
		// flagged too; the profile can switch the check off.
		re:   regexp.MustCompile(`\S(  +)\S`),
		note: "Multiple consecutive spaces.",
		on:   func(t Toggles) bool { return t.DoubleSpace },
	},
	{
		re:   regexp.MustCompile(`[a-z](\.)[A-Z]`),
		note: "Missing space after period.",
		on:   func(t Toggles) bool { return t.SpaceAfterStop },
	},
	{
		re:   regexp.MustCompile(`[a-zA-Z0-9](,)[a-zA-Z]`),
		note: "Missing space after comma.",
		on:   func(t Toggles) bool { return t.SpaceAfterComma },
	},
}

// Producer runs the enabled checks.
type Producer struct {
	toggles Toggles
}

// New returns a producer with the given toggles.
func New(t Toggles) *Producer {
	return &Producer{toggles: t}
}

// AgentID implements the review producer contract.
func (p *Producer) AgentID() string { return AgentID }

// Review scans the flat text and reports one minor finding per rule hit. The
// literal covers the whole match (context characters included) so it is
// unambiguous for the locator; the offset hint disambiguates repeats.
func (p *Producer) Review(ctx context.Context, text string, chapters []index.Chapter) ([]annot.Finding, error) {
	var out []annot.Finding
	for _, c := range checks {
		if !c.on(p.toggles) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, loc := range c.re.FindAllStringIndex(text, -1) {
			f := annot.Finding{
				LiteralText: text[loc[0]:loc[1]],
				Severity:    annot.SeverityMinor,
				AgentID:     AgentID,
				Note:        c.note,
			}
			if ci := index.ChapterFor(chapters, loc[0]); ci >= 0 {
				f.ChapterID = chapters[ci].ID
				f.ApproxOffset = loc[0] - chapters[ci].Start
			}
			out = append(out, f)
		}
	}
	return out, nil
}
