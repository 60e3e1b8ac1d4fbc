// Package index flattens a document into one addressable string and maps
// byte offsets in that string back to run coordinates.
package index

import (
	"strings"

	"github.com/panelzero/redline/core/annot"
	"github.com/panelzero/redline/core/docx"
	"github.com/panelzero/redline/core/errors"
)

// paragraphSep joins paragraphs in the flat text. One byte, never part of
// run text (runs encode breaks as \n too, but those bytes belong to a run
// span and resolve back to it).
const paragraphSep = "\n"

// span is one run's slice of the flat text.
type span struct {
	start, end int // byte offsets, [start, end)
	para, run  int
}

// OffsetMap resolves byte offsets in the flattened text back to (paragraph,
// run, offset-in-run) coordinates. It is valid only for the document state it
// was built from; splitting runs invalidates it.
type OffsetMap struct {
	spans     []span
	paraStart []int // flat offset of each paragraph's first byte
	length    int
}

// Flatten renders the document's visible text as a single string, paragraphs
// joined by a newline, and builds the offset map over it.
func Flatten(doc *docx.Document) (string, *OffsetMap) {
	var sb strings.Builder
	m := &OffsetMap{}

	for pi := 0; pi < doc.ParagraphCount(); pi++ {
		if pi > 0 {
			sb.WriteString(paragraphSep)
		}
		m.paraStart = append(m.paraStart, sb.Len())
		p := doc.Paragraph(pi)
		for ri := 0; ri < p.RunCount(); ri++ {
			text := p.Run(ri).Text()
			if text == "" {
				continue
			}
			m.spans = append(m.spans, span{
				start: sb.Len(),
				end:   sb.Len() + len(text),
				para:  pi,
				run:   ri,
			})
			sb.WriteString(text)
		}
	}
	m.length = sb.Len()
	return sb.String(), m
}

// Len is the byte length of the flattened text.
func (m *OffsetMap) Len() int { return m.length }

// ParagraphStart is the flat byte offset of paragraph pi's first byte.
func (m *OffsetMap) ParagraphStart(pi int) int {
	if pi < 0 || pi >= len(m.paraStart) {
		return 0
	}
	return m.paraStart[pi]
}

// ParagraphEnd is the flat byte offset one past paragraph pi's last byte.
func (m *OffsetMap) ParagraphEnd(pi int) int {
	if pi < 0 || pi >= len(m.paraStart) {
		return m.length
	}
	if pi == len(m.paraStart)-1 {
		return m.length
	}
	return m.paraStart[pi+1] - len(paragraphSep)
}

// Resolve maps a flat byte offset to the paragraph that contains it.
// Separator bytes resolve to the preceding paragraph.
func (m *OffsetMap) Resolve(off int) int {
	lo, hi := 0, len(m.paraStart)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.paraStart[mid] <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// RunSpans maps the flat byte range [start, end) to the run coordinates that
// cover it. Paragraph separators inside the range carry no runs and produce
// no spans. Returns an error when the range is out of bounds or covers no
// run text.
func (m *OffsetMap) RunSpans(start, end int) ([]annot.RunSpan, error) {
	if start < 0 || end > m.length || start >= end {
		return nil, errors.NewValidation("offset range", "out of bounds")
	}
	var out []annot.RunSpan
	for _, s := range m.spans {
		if s.end <= start {
			continue
		}
		if s.start >= end {
			break
		}
		lo, hi := max(start, s.start), min(end, s.end)
		out = append(out, annot.RunSpan{
			Para:   s.para,
			Run:    s.run,
			Start:  lo - s.start,
			Length: hi - lo,
		})
	}
	if len(out) == 0 {
		return nil, errors.NewValidation("offset range", "covers no run text")
	}
	return out, nil
}
