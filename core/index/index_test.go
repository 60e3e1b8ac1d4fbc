package index_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/panelzero/redline/core/docx"
	"github.com/panelzero/redline/core/index"
	"github.com/panelzero/redline/internal/doctest"
)

func load(t *testing.T, paras ...doctest.Para) *docx.Document {
	t.Helper()
	doc, err := docx.Load(doctest.Docx(paras...))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestFlattenJoinsParagraphs(t *testing.T) {
	doc := load(t,
		doctest.P("first"),
		doctest.Para{Runs: []doctest.Run{{Text: "sec"}, {Text: "ond"}}},
	)
	text, m := index.Flatten(doc)
	if text != "first\nsecond" {
		t.Fatalf("flat text = %q", text)
	}
	if m.Len() != len(text) {
		t.Errorf("Len = %d, want %d", m.Len(), len(text))
	}
	if got := m.ParagraphStart(1); got != 6 {
		t.Errorf("ParagraphStart(1) = %d, want 6", got)
	}
	if got := m.ParagraphEnd(0); got != 5 {
		t.Errorf("ParagraphEnd(0) = %d, want 5", got)
	}
}

func TestResolve(t *testing.T) {
	doc := load(t, doctest.P("aaa"), doctest.P("bbb"), doctest.P("ccc"))
	_, m := index.Flatten(doc)
	tests := []struct{ off, para int }{
		{0, 0}, {2, 0},
		{3, 0}, // separator belongs to the preceding paragraph
		{4, 1}, {6, 1},
		{8, 2}, {10, 2},
	}
	for _, tt := range tests {
		if got := m.Resolve(tt.off); got != tt.para {
			t.Errorf("Resolve(%d) = %d, want %d", tt.off, got, tt.para)
		}
	}
}

func TestRunSpansAcrossRuns(t *testing.T) {
	doc := load(t, doctest.Para{Runs: []doctest.Run{
		{Text: "The data "},
		{Text: "will be "},
		{Text: "gathered"},
		{Text: " by researchers."},
	}})
	text, m := index.Flatten(doc)
	start := strings.Index(text, "will be gathered")
	spans, err := m.RunSpans(start, start+len("will be gathered"))
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 2 {
		t.Fatalf("got %d spans %+v, want 2", len(spans), spans)
	}
	if spans[0].Run != 1 || spans[0].Start != 0 || spans[0].Length != 8 {
		t.Errorf("span 0 = %+v", spans[0])
	}
	if spans[1].Run != 2 || spans[1].Start != 0 || spans[1].Length != 8 {
		t.Errorf("span 1 = %+v", spans[1])
	}
}

func TestRunSpansPartialRun(t *testing.T) {
	doc := load(t, doctest.P("alpha beta gamma"))
	_, m := index.Flatten(doc)
	spans, err := m.RunSpans(6, 10) // "beta"
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 1 || spans[0].Start != 6 || spans[0].Length != 4 {
		t.Errorf("spans = %+v", spans)
	}
}

func TestRunSpansSkipsSeparator(t *testing.T) {
	doc := load(t, doctest.P("end"), doctest.P("start"))
	_, m := index.Flatten(doc)
	// Range covering "nd\nst": the separator byte yields no span.
	spans, err := m.RunSpans(1, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 2 {
		t.Fatalf("got %d spans %+v, want 2", len(spans), spans)
	}
	if spans[0].Para != 0 || spans[0].Length != 2 {
		t.Errorf("span 0 = %+v", spans[0])
	}
	if spans[1].Para != 1 || spans[1].Start != 0 || spans[1].Length != 2 {
		t.Errorf("span 1 = %+v", spans[1])
	}
}

func TestRunSpansRejectsBadRange(t *testing.T) {
	doc := load(t, doctest.P("x"))
	_, m := index.Flatten(doc)
	for _, r := range [][2]int{{-1, 1}, {0, 99}, {1, 1}, {2, 1}} {
		if _, err := m.RunSpans(r[0], r[1]); err == nil {
			t.Errorf("RunSpans(%d, %d) should fail", r[0], r[1])
		}
	}
}

func TestSegmentByHeadings(t *testing.T) {
	doc := load(t,
		doctest.Heading("Introduction"),
		doctest.P("Intro body."),
		doctest.Heading("Methods"),
		doctest.P("Methods body."),
		doctest.P("More methods."),
	)
	text, m := index.Flatten(doc)
	chapters := index.Segment(doc, m, index.SegmentOptions{})
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters %+v, want 2", len(chapters), chapters)
	}
	if chapters[0].ID != "ch0001" || chapters[1].ID != "ch0002" {
		t.Errorf("ids = %q, %q", chapters[0].ID, chapters[1].ID)
	}
	if chapters[0].Title != "Introduction" || chapters[1].Title != "Methods" {
		t.Errorf("titles = %q, %q", chapters[0].Title, chapters[1].Title)
	}
	if chapters[0].StartPara != 0 || chapters[0].EndPara != 1 {
		t.Errorf("chapter 1 paras = [%d, %d]", chapters[0].StartPara, chapters[0].EndPara)
	}
	if chapters[1].StartPara != 2 || chapters[1].EndPara != 4 {
		t.Errorf("chapter 2 paras = [%d, %d]", chapters[1].StartPara, chapters[1].EndPara)
	}
	// Chapter text slices are exact.
	if got := text[chapters[0].Start:chapters[0].End]; got != "Introduction\nIntro body." {
		t.Errorf("chapter 1 text = %q", got)
	}
	if got := text[chapters[1].Start:chapters[1].End]; got != "Methods\nMethods body.\nMore methods." {
		t.Errorf("chapter 2 text = %q", got)
	}
}

func TestSegmentNoHeadingsUsesBudget(t *testing.T) {
	long := strings.Repeat("word ", 20) // 100 chars
	doc := load(t, doctest.P(long), doctest.P(long), doctest.P(long))
	_, m := index.Flatten(doc)
	chapters := index.Segment(doc, m, index.SegmentOptions{MaxChars: 150})
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
	// Budget closes at a paragraph boundary, never inside one.
	if chapters[0].EndPara != 1 || chapters[1].StartPara != 2 {
		t.Errorf("chapters = %+v", chapters)
	}
	if chapters[0].Title != "" {
		t.Errorf("budget chapter should have no title, got %q", chapters[0].Title)
	}
}

func TestSegmentHeadingPattern(t *testing.T) {
	doc := load(t,
		doctest.P("Chapter 1: Setup"),
		doctest.P("body"),
		doctest.P("Chapter 2: Results"),
		doctest.P("body"),
	)
	_, m := index.Flatten(doc)
	chapters := index.Segment(doc, m, index.SegmentOptions{
		HeadingPattern: regexp.MustCompile(`^Chapter \d+`),
	})
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
	if chapters[1].Title != "Chapter 2: Results" {
		t.Errorf("title = %q", chapters[1].Title)
	}
}

func TestSegmentLeadingBodyBeforeFirstHeading(t *testing.T) {
	doc := load(t,
		doctest.P("preamble"),
		doctest.Heading("One"),
		doctest.P("body"),
	)
	_, m := index.Flatten(doc)
	chapters := index.Segment(doc, m, index.SegmentOptions{})
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
	if chapters[0].Title != "" || chapters[0].StartPara != 0 || chapters[0].EndPara != 0 {
		t.Errorf("preamble chapter = %+v", chapters[0])
	}
}

func TestChapterLookups(t *testing.T) {
	doc := load(t, doctest.Heading("A"), doctest.P("aaa"), doctest.Heading("B"), doctest.P("bbb"))
	_, m := index.Flatten(doc)
	chapters := index.Segment(doc, m, index.SegmentOptions{})

	if got := index.ChapterFor(chapters, chapters[1].Start); got != 1 {
		t.Errorf("ChapterFor = %d, want 1", got)
	}
	if got := index.ChapterFor(chapters, -5); got != -1 {
		t.Errorf("ChapterFor out of range = %d, want -1", got)
	}
	if got := index.FindChapter(chapters, "ch0002"); got != 1 {
		t.Errorf("FindChapter = %d, want 1", got)
	}
	if got := index.FindChapter(chapters, "nope"); got != -1 {
		t.Errorf("FindChapter missing = %d, want -1", got)
	}
}
