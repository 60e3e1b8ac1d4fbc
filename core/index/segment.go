package index

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/panelzero/redline/core/docx"
)

// DefaultMaxChapterChars caps chapter size when headings are sparse or absent.
const DefaultMaxChapterChars = 12000

// DefaultHeadingStyles are paragraph style ids that open a new chapter.
var DefaultHeadingStyles = []string{"Heading1", "Heading 1"}

// SegmentOptions control chapter segmentation.
type SegmentOptions struct {
	// MaxChars is the chapter size budget in visible characters. Zero means
	// DefaultMaxChapterChars.
	MaxChars int
	// HeadingStyles are style ids that start a chapter. Nil means
	// DefaultHeadingStyles.
	HeadingStyles []string
	// HeadingPattern additionally matches paragraph text (e.g. `^Chapter \d+`).
	// Nil disables text matching.
	HeadingPattern *regexp.Regexp
}

// Chapter is one contiguous paragraph range of the document. Offsets are byte
// offsets into the flattened text, [Start, End).
type Chapter struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartPara int    `json:"start_para"`
	EndPara   int    `json:"end_para"` // inclusive
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

// Segment splits the document into chapters. A heading paragraph always opens
// a chapter; a chapter that hits the character budget closes at the next
// paragraph boundary. A document with no headings degrades to budget-only
// chunks. Chapters never split a paragraph.
func Segment(doc *docx.Document, m *OffsetMap, opts SegmentOptions) []Chapter {
	if doc.ParagraphCount() == 0 {
		return nil
	}
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChapterChars
	}
	styles := opts.HeadingStyles
	if styles == nil {
		styles = DefaultHeadingStyles
	}
	styleSet := make(map[string]bool, len(styles))
	for _, s := range styles {
		styleSet[s] = true
	}

	isHeading := func(pi int) bool {
		p := doc.Paragraph(pi)
		if styleSet[p.Style()] {
			return true
		}
		return opts.HeadingPattern != nil && opts.HeadingPattern.MatchString(p.Text())
	}

	var out []Chapter
	var cur *Chapter
	chars := 0

	flush := func(endPara int) {
		if cur == nil {
			return
		}
		cur.EndPara = endPara
		cur.End = m.ParagraphEnd(endPara)
		out = append(out, *cur)
		cur = nil
		chars = 0
	}
	open := func(pi int, title string) {
		cur = &Chapter{
			ID:        fmt.Sprintf("ch%04d", len(out)+1),
			Title:     title,
			StartPara: pi,
			Start:     m.ParagraphStart(pi),
		}
	}

	for pi := 0; pi < doc.ParagraphCount(); pi++ {
		if isHeading(pi) && cur != nil {
			flush(pi - 1)
		}
		if cur == nil {
			title := ""
			if isHeading(pi) {
				title = doc.Paragraph(pi).Text()
			}
			open(pi, title)
		}
		chars += utf8.RuneCountInString(doc.Paragraph(pi).Text())
		if chars >= maxChars {
			flush(pi)
		}
	}
	flush(doc.ParagraphCount() - 1)
	return out
}

// ChapterFor returns the chapter containing the flat byte offset, or -1.
func ChapterFor(chapters []Chapter, off int) int {
	for i, ch := range chapters {
		if off >= ch.Start && off < ch.End {
			return i
		}
	}
	return -1
}

// FindChapter returns the chapter with the given id, or -1.
func FindChapter(chapters []Chapter, id string) int {
	for i, ch := range chapters {
		if ch.ID == id {
			return i
		}
	}
	return -1
}
