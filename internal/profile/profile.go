// Package profile loads the review profile: the rubric and tuning knobs a
// review run is configured with.
package profile

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/panelzero/redline/core/docx"
	"github.com/panelzero/redline/core/errors"
	"github.com/panelzero/redline/core/rules"
)

// Margins mirrors docx.Margins for YAML decoding.
type Margins struct {
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
}

// Font is the required document-default font.
type Font struct {
	Family string  `yaml:"family"`
	Size   float64 `yaml:"size"`
}

// Profile is the full review configuration.
type Profile struct {
	Margins         Margins       `yaml:"margins"`
	MarginTolerance float64       `yaml:"margin_tolerance"`
	Font            Font          `yaml:"font"`
	Rules           rules.Toggles `yaml:"rules"`
	HeadingStyles   []string      `yaml:"heading_styles"`
	HeadingPattern  string        `yaml:"heading_pattern"`
	MaxChapterChars int           `yaml:"max_chapter_chars"`
	FuzzyThreshold  float64       `yaml:"fuzzy_threshold"`
	AgentPriority   []string      `yaml:"agent_priority"`
	CommentAuthor   string        `yaml:"comment_author"`
}

// DefaultAgentPriority orders producers for overlap tie-breaking; earlier
// wins.
var DefaultAgentPriority = []string{
	"technical_reader",
	"grammar_critic",
	"subject_matter",
	"statistics",
	"chairman",
}

// Default is the profile used when none is supplied: one-inch margins with a
// wider left gutter, Times New Roman 12pt, every rule on.
func Default() Profile {
	return Profile{
		Margins:         Margins{Left: 1.5, Right: 1.0, Top: 1.0, Bottom: 1.0},
		MarginTolerance: docx.DefaultMarginTolerance,
		Font:            Font{Family: "Times New Roman", Size: 12},
		Rules:           rules.AllChecks(),
		AgentPriority:   DefaultAgentPriority,
		CommentAuthor:   "Review Panel",
	}
}

// Load reads a YAML profile and fills unset fields from Default.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.NewIO("read profile", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML profile and fills unset fields from Default.
func Parse(data []byte) (Profile, error) {
	p := Default()
	// Rules default to all-on only when the profile omits the block entirely.
	var probe struct {
		Rules *rules.Toggles `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return Profile{}, errors.NewParse("yaml", "profile", err.Error())
	}
	if probe.Rules != nil {
		p.Rules = rules.Toggles{}
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, errors.NewParse("yaml", "profile", err.Error())
	}
	if p.MarginTolerance <= 0 {
		p.MarginTolerance = docx.DefaultMarginTolerance
	}
	if len(p.AgentPriority) == 0 {
		p.AgentPriority = DefaultAgentPriority
	}
	if p.CommentAuthor == "" {
		p.CommentAuthor = "Review Panel"
	}
	return p, nil
}

// Geometry converts the profile's rubric to the structural checker's form.
func (p Profile) Geometry() docx.GeometryProfile {
	return docx.GeometryProfile{
		Margins: docx.Margins{
			Left:   p.Margins.Left,
			Right:  p.Margins.Right,
			Top:    p.Margins.Top,
			Bottom: p.Margins.Bottom,
		},
		MarginTolerance: p.MarginTolerance,
		FontFamily:      p.Font.Family,
		FontSize:        p.Font.Size,
	}
}

// PriorityRank returns the agent's position in the priority order; unknown
// agents rank last.
func (p Profile) PriorityRank(agentID string) int {
	for i, id := range p.AgentPriority {
		if id == agentID {
			return i
		}
	}
	return len(p.AgentPriority)
}
