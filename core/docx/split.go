package docx

import (
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/panelzero/redline/core/annot"
	"github.com/panelzero/redline/core/errors"
)

// Highlight colors per severity, matching the reviewer convention: major
// findings are red, everything else yellow.
const (
	HighlightMajor = "red"
	HighlightMinor = "yellow"
)

// HighlightColor maps a severity onto its highlight color.
func HighlightColor(s annot.Severity) string {
	if s == annot.SeverityMajor {
		return HighlightMajor
	}
	return HighlightMinor
}

// SetHighlight sets the run's highlight color, replacing any existing one.
// All other formatting properties are untouched.
func (r *Run) SetHighlight(color string) {
	rPr := childElement(r.node, "w", "rPr")
	if rPr == nil {
		rPr = newWElement("rPr")
		prependChild(r.node, rPr)
	}
	removeChildren(rPr, "w", "highlight")
	appendChild(rPr, newWElement("highlight", wAttr("val", color)))
}

// Highlight returns the run's highlight color, or "".
func (r *Run) Highlight() string {
	rPr := childElement(r.node, "w", "rPr")
	if rPr == nil {
		return ""
	}
	h := childElement(rPr, "w", "highlight")
	if h == nil {
		return ""
	}
	return selectWAttr(h, "val")
}

// SplitRun splits run ri at the byte range [start, start+length) of its
// visible text, producing up to three sibling runs whose formatting
// properties are cloned verbatim from the original. It returns the arena
// index of the target fragment. A range covering the whole run is a no-op
// split: the original run is the target.
func (p *Paragraph) SplitRun(ri, start, length int) (int, error) {
	if ri < 0 || ri >= len(p.runs) {
		return 0, errors.NewValidation("run", "run index out of range")
	}
	r := p.runs[ri]
	end := start + length
	if start < 0 || length <= 0 || end > len(r.text) {
		return 0, errors.NewValidation("span", "byte range outside run text")
	}
	if start == 0 && end == len(r.text) {
		return ri, nil
	}

	rPr := childElement(r.node, "w", "rPr")
	buckets := [3]*xmlquery.Node{} // before, target, after
	bucketText := [3]strings.Builder{}

	bucketFor := func(off int) int {
		switch {
		case off < start:
			return 0
		case off < end:
			return 1
		default:
			return 2
		}
	}
	ensureBucket := func(i int) *xmlquery.Node {
		if buckets[i] == nil {
			buckets[i] = newWElement("r")
			if rPr != nil {
				appendChild(buckets[i], cloneNode(rPr))
			}
		}
		return buckets[i]
	}

	off := 0
	for child := r.node.FirstChild; child != nil; {
		next := child.NextSibling
		switch {
		case isW(child, "rPr"):
			// Cloned per bucket above.
		case isW(child, "t"):
			text := child.InnerText()
			pos := 0
			for pos < len(text) {
				bi := bucketFor(off + pos)
				// Extend to the end of this bucket's range within the text.
				limit := len(text)
				switch bi {
				case 0:
					if start-off < limit {
						limit = start - off
					}
				case 1:
					if end-off < limit {
						limit = end - off
					}
				}
				piece := text[pos:limit]
				t := newWElement("t")
				t.Attr = append([]xmlquery.Attr(nil), child.Attr...)
				appendChild(t, newTextNode(piece))
				if hasEdgeSpace(piece) {
					ensurePreserveSpace(t)
				}
				appendChild(ensureBucket(bi), t)
				bucketText[bi].WriteString(piece)
				pos = limit
			}
			off += len(text)
		case isW(child, "tab"), isW(child, "br"), isW(child, "cr"):
			bi := bucketFor(off)
			detach(child)
			appendChild(ensureBucket(bi), child)
			if isW(child, "tab") {
				bucketText[bi].WriteByte('\t')
			} else {
				bucketText[bi].WriteByte('\n')
			}
			off++
		default:
			// Zero-width content (bookmarks, proofing marks, drawings)
			// travels with whichever fragment owns the current offset.
			bi := bucketFor(off)
			detach(child)
			appendChild(ensureBucket(bi), child)
		}
		child = next
	}

	// Splice the fragments in place of the original run and rebuild the
	// arena slice with an insert, never a reorder.
	newRuns := make([]*Run, 0, 3)
	ref := r.node
	for bi := 0; bi < 3; bi++ {
		if buckets[bi] == nil {
			continue
		}
		insertAfter(ref, buckets[bi])
		ref = buckets[bi]
		newRuns = append(newRuns, &Run{node: buckets[bi], text: bucketText[bi].String()})
	}
	detach(r.node)

	replaced := make([]*Run, 0, len(p.runs)+2)
	replaced = append(replaced, p.runs[:ri]...)
	replaced = append(replaced, newRuns...)
	replaced = append(replaced, p.runs[ri+1:]...)
	p.runs = replaced

	target := ri
	if start > 0 {
		target++
	}
	return target, nil
}

// ApplyResult summarizes one injection pass.
type ApplyResult struct {
	Applied   int // plan entries injected
	Fragments int // highlighted run fragments
	Comments  int // comment bubbles attached
}

// Apply injects an edit plan into the document: for every plan entry the
// touched runs are split at the span boundaries and the target fragments are
// highlighted; when the winning finding carries a note and withComments is
// set, a comment range is anchored around the fragments. Runs not referenced
// by the plan are never touched, and applying an empty plan is a no-op.
//
// The plan's run coordinates address the arena as it was when the plan was
// built; entries are applied back-to-front so pending coordinates stay valid.
// After Apply any flattened index built from this document is stale and must
// be rebuilt.
func (d *Document) Apply(plan annot.EditPlan, author string, withComments bool) (*ApplyResult, error) {
	res := &ApplyResult{}
	entries := make([]annot.PlanEntry, len(plan))
	copy(entries, plan)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Start < entries[j].Start })

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if len(entry.Spans) == 0 {
			continue
		}
		color := HighlightColor(entry.Finding.Severity)

		targets := make([]*Run, 0, len(entry.Spans))
		for si := len(entry.Spans) - 1; si >= 0; si-- {
			span := entry.Spans[si]
			if span.Para < 0 || span.Para >= len(d.paras) {
				return nil, errors.NewValidation("plan", "paragraph index out of range")
			}
			p := d.paras[span.Para]
			ti, err := p.SplitRun(span.Run, span.Start, span.Length)
			if err != nil {
				return nil, err
			}
			target := p.runs[ti]
			target.SetHighlight(color)
			targets = append(targets, target)
			res.Fragments++
		}
		// targets were collected back-to-front.
		for l, r := 0, len(targets)-1; l < r; l, r = l+1, r-1 {
			targets[l], targets[r] = targets[r], targets[l]
		}

		if withComments && entry.Finding.Note != "" {
			if err := d.anchorComment(entry, targets); err != nil {
				return nil, err
			}
			res.Comments++
		}
		res.Applied++
	}
	return res, nil
}
