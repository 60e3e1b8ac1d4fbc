// Package review runs the full annotation pipeline: flatten, segment, collect
// findings, locate, resolve overlaps, inject highlights and comments, and
// verify the result byte-for-byte safe.
package review

import (
	"context"
	"encoding/hex"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/panelzero/redline/core/annot"
	"github.com/panelzero/redline/core/docx"
	"github.com/panelzero/redline/core/errors"
	"github.com/panelzero/redline/core/index"
	"github.com/panelzero/redline/core/locate"
	"github.com/panelzero/redline/internal/logging"
	"github.com/panelzero/redline/internal/profile"
)

// Producer contributes findings for a document. Producers run concurrently
// and must not retain the text after Review returns.
type Producer interface {
	AgentID() string
	Review(ctx context.Context, text string, chapters []index.Chapter) ([]annot.Finding, error)
}

// locateWorkers bounds concurrent literal searches.
const locateWorkers = 4

// Dropped is a finding that could not be placed.
type Dropped struct {
	Finding annot.Finding `json:"finding"`
	Reason  string        `json:"reason"`
}

// ProducerError is a producer that failed; the run continues without it.
type ProducerError struct {
	AgentID string `json:"agent_id"`
	Error   string `json:"error"`
}

// Report summarizes one review run.
type Report struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`

	InputHash  string `json:"input_hash"`
	OutputHash string `json:"output_hash"`

	Chapters int `json:"chapters"`
	Findings int `json:"findings"`
	Applied  int `json:"applied"`
	Skipped  int `json:"skipped"` // lost an overlap entirely
	NotFound int `json:"not_found"`
	Comments int `json:"comments"`

	Deviations     []docx.Deviation `json:"deviations,omitempty"`
	Conflicts      []annot.Conflict `json:"conflicts,omitempty"`
	Dropped        []Dropped        `json:"dropped,omitempty"`
	ProducerErrors []ProducerError  `json:"producer_errors,omitempty"`
}

// Engine wires producers to a profile.
type Engine struct {
	Profile   profile.Profile
	Producers []Producer
	// Comments controls whether notes become anchored comments.
	Comments bool
}

// New returns an engine over the given producers.
func New(p profile.Profile, producers ...Producer) *Engine {
	return &Engine{Profile: p, Producers: producers, Comments: true}
}

// Run reviews the document. Extra findings (e.g. from a findings file) are
// merged with producer output. On success it returns the annotated package;
// if the safety verification fails it returns the input unchanged alongside
// the error.
func (e *Engine) Run(ctx context.Context, input []byte, extra []annot.Finding) ([]byte, *Report, error) {
	report := &Report{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		InputHash: hashBytes(input),
	}
	ctx = logging.WithDocumentID(ctx, report.InputHash[:12])
	finish := func(out []byte) []byte {
		report.FinishedAt = time.Now().UTC()
		report.DurationMS = report.FinishedAt.Sub(report.StartedAt).Milliseconds()
		report.OutputHash = hashBytes(out)
		return out
	}

	doc, err := docx.Load(input)
	if err != nil {
		return nil, nil, err
	}
	text, offsets := index.Flatten(doc)
	chapters := index.Segment(doc, offsets, e.SegmentOptions())
	report.Chapters = len(chapters)

	report.Deviations = docx.CheckGeometry(doc.ReadPageGeometry(), e.Profile.Geometry())

	findings := e.collect(ctx, text, chapters, report)
	for _, f := range extra {
		f.Severity = annot.NormalizeSeverity(string(f.Severity))
		findings = append(findings, f)
	}
	report.Findings = len(findings)

	placed := e.locateAll(ctx, text, offsets, chapters, findings, report)

	plan, conflicts := annot.Resolve(placed, e.Profile.PriorityRank, func(start, end int) []annot.RunSpan {
		spans, err := offsets.RunSpans(start, end)
		if err != nil {
			return nil
		}
		return spans
	})
	report.Conflicts = conflicts
	for _, c := range conflicts {
		logging.OverlapConflict(c.Winner, c.Loser, c.Rule, c.Start, c.End)
	}
	report.Skipped = countSkipped(plan, placed)

	snap := doc.Snapshot()
	res, err := doc.Apply(plan, e.Profile.CommentAuthor, e.Comments)
	if err != nil {
		return nil, nil, err
	}
	report.Applied = res.Applied
	report.Comments = res.Comments
	for _, entry := range plan {
		logging.FindingApplied(entry.Finding.AgentID, entry.Finding.ChapterID,
			string(entry.Finding.Severity), len(entry.Spans))
	}

	if err := docx.VerifyRoundtrip(snap, doc); err != nil {
		var rt *errors.RoundtripError
		if errors.As(err, &rt) {
			logging.RoundtripFailure(rt.Invariant, rt.Detail)
		}
		// The document is suspect; hand back the caller's bytes untouched.
		return finish(input), report, err
	}

	out, err := doc.Serialize()
	if err != nil {
		return nil, nil, err
	}
	return finish(out), report, nil
}

// SegmentOptions derives chapter segmentation options from the profile.
func (e *Engine) SegmentOptions() index.SegmentOptions {
	opts := index.SegmentOptions{
		MaxChars:      e.Profile.MaxChapterChars,
		HeadingStyles: e.Profile.HeadingStyles,
	}
	if e.Profile.HeadingPattern != "" {
		if re, err := regexp.Compile(e.Profile.HeadingPattern); err == nil {
			opts.HeadingPattern = re
		} else {
			logging.Warn("invalid heading pattern, ignoring",
				"pattern", e.Profile.HeadingPattern, "error", err)
		}
	}
	return opts
}

// collect fans producers out concurrently. A failed producer is recorded and
// skipped; only context cancellation aborts the run.
func (e *Engine) collect(ctx context.Context, text string, chapters []index.Chapter, report *Report) []annot.Finding {
	var mu sync.Mutex
	var findings []annot.Finding

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range e.Producers {
		p := p
		g.Go(func() error {
			out, err := p.Review(gctx, text, chapters)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return err
				}
				report.ProducerErrors = append(report.ProducerErrors, ProducerError{
					AgentID: p.AgentID(),
					Error:   err.Error(),
				})
				return nil
			}
			findings = append(findings, out...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logging.Warn("producer fan-out aborted", "error", err)
	}
	return findings
}

// locateAll resolves findings to spans with a bounded worker pool. Order is
// preserved so downstream resolution stays deterministic.
func (e *Engine) locateAll(ctx context.Context, text string, offsets *index.OffsetMap, chapters []index.Chapter, findings []annot.Finding, report *Report) []annot.Located {
	results := make([]*annot.Located, len(findings))
	drops := make([]*Dropped, len(findings))
	opts := locate.Options{FuzzyThreshold: e.Profile.FuzzyThreshold}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(locateWorkers)
	for i, f := range findings {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			loc, err := locate.Locate(text, offsets, chapters, f, opts)
			if err != nil {
				reason := err.Error()
				var snf *errors.SpanNotFoundError
				if errors.As(err, &snf) {
					reason = snf.Reason
				}
				logging.SpanNotFound(f.AgentID, f.ChapterID, f.LiteralText, reason)
				drops[i] = &Dropped{Finding: f, Reason: reason}
				return nil
			}
			results[i] = &loc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logging.Warn("locate pool aborted", "error", err)
	}

	var placed []annot.Located
	for i := range findings {
		if results[i] != nil {
			placed = append(placed, *results[i])
		}
		if drops[i] != nil {
			report.Dropped = append(report.Dropped, *drops[i])
			report.NotFound++
		}
	}
	return placed
}

// countSkipped counts located findings that lost overlap resolution outright:
// no plan entry, not even a trimmed remainder, survives. Plan entries carry
// the index of the located finding they derive from, so two findings with
// identical text are still counted separately.
func countSkipped(plan annot.EditPlan, placed []annot.Located) int {
	survived := make(map[int]bool, len(plan))
	for _, e := range plan {
		survived[e.Origin] = true
	}
	n := 0
	for i := range placed {
		if !survived[i] {
			n++
		}
	}
	return n
}

func hashBytes(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}
