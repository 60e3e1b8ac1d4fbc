package locate

import (
	"strings"
	"unicode/utf8"

	"github.com/panelzero/redline/core/annot"
	"github.com/panelzero/redline/core/errors"
	"github.com/panelzero/redline/core/index"
)

// DefaultFuzzyThreshold is the minimum similarity a fuzzy match must reach.
const DefaultFuzzyThreshold = 0.85

// Confidence assigned per match tier. Fuzzy confidence scales with score.
const (
	confExact      = 1.0
	confNormalized = 0.9
	confFuzzyBase  = 0.6
	confFuzzySpan  = 0.25
)

// Options tune the locator.
type Options struct {
	// FuzzyThreshold is the minimum fuzzy similarity. Zero means
	// DefaultFuzzyThreshold.
	FuzzyThreshold float64
}

// Locate finds the finding's literal text in the flattened document text and
// returns its absolute byte range, run spans, and a tier confidence. Search
// is scoped to the finding's chapter when it names one. Among multiple
// occurrences the one nearest the finding's hint offset wins.
func Locate(text string, m *index.OffsetMap, chapters []index.Chapter, f annot.Finding, opts Options) (annot.Located, error) {
	literal := f.LiteralText
	if utf8.RuneCountInString(literal) < 2 {
		return annot.Located{}, errors.NewValidation("literal_text", "shorter than two characters")
	}

	ws, we := 0, len(text)
	if f.ChapterID != "" {
		ci := index.FindChapter(chapters, f.ChapterID)
		if ci < 0 {
			return annot.Located{}, errors.NewSpanNotFound(f.AgentID, f.ChapterID, literal, "unknown chapter")
		}
		ws, we = chapters[ci].Start, chapters[ci].End
	}
	window := text[ws:we]
	hint := hintOffset(m, f, ws, we) - ws

	if start, ok := nearestOccurrence(window, literal, hint); ok {
		return located(m, f, ws+start, ws+start+len(literal), confExact)
	}

	normWindow := normalize(window)
	normLiteral := normalize(literal).text
	if start, ok := nearestNormOccurrence(normWindow, normLiteral, hint); ok {
		os, oe := normWindow.rangeToOrig(start, start+len(normLiteral))
		os, oe = trimSpan(window, os, oe)
		return located(m, f, ws+os, ws+oe, confNormalized)
	}

	threshold := opts.FuzzyThreshold
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	if start, end, score, ok := fuzzyMatch(normWindow, normLiteral, threshold, hint); ok {
		os, oe := normWindow.rangeToOrig(start, end)
		os, oe = trimSpan(window, os, oe)
		conf := confFuzzyBase + confFuzzySpan*(score-threshold)/(1-threshold)
		return located(m, f, ws+os, ws+oe, conf)
	}

	return annot.Located{}, errors.NewSpanNotFound(f.AgentID, f.ChapterID, literal, "no match at any tier")
}

func located(m *index.OffsetMap, f annot.Finding, start, end int, conf float64) (annot.Located, error) {
	spans, err := m.RunSpans(start, end)
	if err != nil {
		return annot.Located{}, err
	}
	return annot.Located{
		Finding:    f,
		Spans:      spans,
		Start:      start,
		End:        end,
		Confidence: conf,
	}, nil
}

// hintOffset picks the best available position hint, absolute in the flat
// text and clamped to the search window.
func hintOffset(m *index.OffsetMap, f annot.Finding, ws, we int) int {
	hint := ws
	switch {
	case f.ApproxOffset >= 0:
		hint = ws + f.ApproxOffset
	case f.Paragraph >= 0:
		hint = m.ParagraphStart(f.Paragraph)
	}
	if hint < ws {
		hint = ws
	}
	if hint > we {
		hint = we
	}
	return hint
}

// nearestOccurrence finds every occurrence of needle in haystack and returns
// the start nearest to hint.
func nearestOccurrence(haystack, needle string, hint int) (int, bool) {
	best, bestDist := -1, 0
	from := 0
	for {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			break
		}
		start := from + i
		d := absInt(start - hint)
		if best < 0 || d < bestDist {
			best, bestDist = start, d
		}
		from = start + 1
	}
	return best, best >= 0
}

// nearestNormOccurrence is nearestOccurrence over normalized text, comparing
// distances in original-offset space so the hint stays meaningful.
func nearestNormOccurrence(n normalized, needle string, hint int) (int, bool) {
	best, bestDist := -1, 0
	from := 0
	for {
		i := strings.Index(n.text[from:], needle)
		if i < 0 {
			break
		}
		start := from + i
		os, _ := n.rangeToOrig(start, start+len(needle))
		d := absInt(os - hint)
		if best < 0 || d < bestDist {
			best, bestDist = start, d
		}
		from = start + 1
	}
	return best, best >= 0
}

// fuzzyMatch slides a window of the needle's rune length across the
// normalized haystack and keeps the highest-scoring window at or above the
// threshold. Ties go to the window nearest the hint, measured in original
// byte offsets since that is the space the hint lives in. Returns normalized
// byte offsets.
func fuzzyMatch(n normalized, needle string, threshold float64, hint int) (start, end int, score float64, ok bool) {
	nr := []rune(needle)
	hr := []rune(n.text)
	if len(hr) < len(nr) {
		return 0, 0, 0, false
	}

	// Rune index -> normalized byte offset, one extra entry for the end.
	byteOff := make([]int, len(hr)+1)
	off := 0
	for i, r := range hr {
		byteOff[i] = off
		off += utf8.RuneLen(r)
	}
	byteOff[len(hr)] = off
	origDist := func(i int) int {
		return absInt(n.orig[byteOff[i]] - hint)
	}

	bestScore := -1.0
	bestStart := -1
	for i := 0; i+len(nr) <= len(hr); i++ {
		s := similarity(hr[i:i+len(nr)], nr)
		if s < threshold {
			continue
		}
		if s > bestScore || (s == bestScore && origDist(i) < origDist(bestStart)) {
			bestScore, bestStart = s, i
		}
	}
	if bestStart < 0 {
		return 0, 0, 0, false
	}
	return byteOff[bestStart], byteOff[bestStart+len(nr)], bestScore, true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
