package docx

import (
	"fmt"

	"github.com/panelzero/redline/core/errors"
)

// Snapshot captures the structural invariants of a document before an
// injection pass so VerifyRoundtrip can prove the pass was surgical.
type Snapshot struct {
	Paragraphs   int
	Runs         int
	VisibleChars int

	paraTexts []string
	paraProps []map[string]int // formatting fingerprint -> run count, per paragraph
}

// Snapshot records the document's current structure.
func (d *Document) Snapshot() *Snapshot {
	s := &Snapshot{
		Paragraphs:   len(d.paras),
		Runs:         d.RunCount(),
		VisibleChars: d.VisibleChars(),
		paraTexts:    make([]string, len(d.paras)),
		paraProps:    make([]map[string]int, len(d.paras)),
	}
	for i, p := range d.paras {
		s.paraTexts[i] = p.Text()
		props := make(map[string]int)
		for _, r := range p.runs {
			props[r.propsFingerprint()]++
		}
		s.paraProps[i] = props
	}
	return s
}

// propsFingerprint serializes the run's formatting properties with the
// highlight marker stripped, so an intentionally highlighted fragment still
// matches its source run's formatting.
func (r *Run) propsFingerprint() string {
	rPr := childElement(r.node, "w", "rPr")
	if rPr == nil {
		return ""
	}
	clone := cloneNode(rPr)
	removeChildren(clone, "w", "highlight")
	if clone.FirstChild == nil {
		return ""
	}
	return clone.OutputXML(true)
}

// VerifyRoundtrip checks the post-injection invariants against a snapshot
// taken before injection: paragraph count and visible text unchanged, run
// count only ever grown, and every original run's formatting present
// unmodified on at least one resulting fragment. Any violation is fatal: the
// caller must discard the mutated document.
func VerifyRoundtrip(before *Snapshot, after *Document) error {
	if len(after.paras) != before.Paragraphs {
		return errors.NewRoundtrip("paragraph count",
			fmt.Sprintf("before=%d after=%d", before.Paragraphs, len(after.paras)))
	}
	if after.RunCount() < before.Runs {
		return errors.NewRoundtrip("run count",
			fmt.Sprintf("decreased: before=%d after=%d", before.Runs, after.RunCount()))
	}
	if after.VisibleChars() != before.VisibleChars {
		return errors.NewRoundtrip("visible character count",
			fmt.Sprintf("before=%d after=%d", before.VisibleChars, after.VisibleChars()))
	}
	for i, p := range after.paras {
		if p.Text() != before.paraTexts[i] {
			return errors.NewRoundtrip("paragraph text",
				fmt.Sprintf("paragraph %d changed", i))
		}
		afterProps := make(map[string]int)
		for _, r := range p.runs {
			afterProps[r.propsFingerprint()]++
		}
		for fp, count := range before.paraProps[i] {
			if afterProps[fp] < count {
				return errors.NewRoundtrip("run formatting",
					fmt.Sprintf("paragraph %d lost formatting properties", i))
			}
		}
	}
	return nil
}
