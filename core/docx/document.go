package docx

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/xmlquery"

	"github.com/panelzero/redline/core/errors"
)

// Document is an in-memory WordprocessingML document: the package container,
// the parsed document.xml DOM, and an arena of paragraphs and runs indexed by
// position. Paragraph order is never changed; runs are only ever split or
// extended, so (paragraph, run) coordinates stay meaningful across an
// injection pass.
type Document struct {
	pkg        *Package
	root       *xmlquery.Node // document.xml, DocumentNode
	body       *xmlquery.Node
	stylesRoot *xmlquery.Node // word/styles.xml, nil if absent
	paras      []*Paragraph
	comments   *commentStore
}

// Paragraph is one top-level w:p element and its direct runs. Paragraphs
// nested in tables or other containers are foreign content and round-trip
// untouched.
type Paragraph struct {
	node  *xmlquery.Node
	style string
	runs  []*Run
}

// Run is the smallest unit of uniformly formatted text. It is immutable
// until split.
type Run struct {
	node *xmlquery.Node
	text string
}

// Load verifies the package and parses the document structure.
func Load(data []byte) (*Document, error) {
	if err := Verify(data); err != nil {
		return nil, err
	}
	pkg, err := OpenPackage(data)
	if err != nil {
		return nil, err
	}

	docPart, _ := pkg.Part(partDocument)
	root, err := xmlquery.Parse(bytes.NewReader(docPart.Data))
	if err != nil {
		return nil, errors.NewCorruptPackage(partDocument, "cannot parse document body", err)
	}

	docElem := childElement(root, "w", "document")
	if docElem == nil {
		return nil, errors.NewCorruptPackage(partDocument, "w:document element missing", nil)
	}
	body := childElement(docElem, "w", "body")
	if body == nil {
		return nil, errors.NewCorruptPackage(partDocument, "w:body element missing", nil)
	}

	d := &Document{pkg: pkg, root: root, body: body}

	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if isW(child, "p") {
			d.paras = append(d.paras, buildParagraph(child))
		}
	}

	if stylesPart, ok := pkg.Part(partStyles); ok {
		stylesRoot, err := xmlquery.Parse(bytes.NewReader(stylesPart.Data))
		if err != nil {
			return nil, errors.NewCorruptPackage(partStyles, "cannot parse styles", err)
		}
		d.stylesRoot = stylesRoot
	}

	return d, nil
}

func buildParagraph(node *xmlquery.Node) *Paragraph {
	p := &Paragraph{node: node}
	if pPr := childElement(node, "w", "pPr"); pPr != nil {
		if pStyle := childElement(pPr, "w", "pStyle"); pStyle != nil {
			p.style = selectWAttr(pStyle, "val")
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if isW(child, "r") {
			p.runs = append(p.runs, buildRun(child))
		}
	}
	return p
}

func buildRun(node *xmlquery.Node) *Run {
	var b strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		switch {
		case isW(child, "t"):
			text := child.InnerText()
			if hasEdgeSpace(text) {
				// The serializer trims unprotected edge whitespace.
				ensurePreserveSpace(child)
			}
			b.WriteString(text)
		case isW(child, "tab"):
			b.WriteByte('\t')
		case isW(child, "br"), isW(child, "cr"):
			b.WriteByte('\n')
		}
	}
	return &Run{node: node, text: b.String()}
}

// ParagraphCount returns the number of top-level paragraphs.
func (d *Document) ParagraphCount() int {
	return len(d.paras)
}

// Paragraph returns the paragraph at index i.
func (d *Document) Paragraph(i int) *Paragraph {
	return d.paras[i]
}

// RunCount returns the total number of runs across all paragraphs.
func (d *Document) RunCount() int {
	total := 0
	for _, p := range d.paras {
		total += len(p.runs)
	}
	return total
}

// VisibleText returns the document's visible text, paragraphs joined by
// newlines.
func (d *Document) VisibleText() string {
	texts := make([]string, len(d.paras))
	for i, p := range d.paras {
		texts[i] = p.Text()
	}
	return strings.Join(texts, "\n")
}

// VisibleChars returns the number of visible characters (runes) in the
// document, excluding paragraph separators.
func (d *Document) VisibleChars() int {
	total := 0
	for _, p := range d.paras {
		for _, r := range p.runs {
			total += utf8.RuneCountInString(r.text)
		}
	}
	return total
}

// Style returns the paragraph's style name (e.g., "Heading1"), or "".
func (p *Paragraph) Style() string {
	return p.style
}

// RunCount returns the number of runs in the paragraph.
func (p *Paragraph) RunCount() int {
	return len(p.runs)
}

// Run returns the run at index i.
func (p *Paragraph) Run(i int) *Run {
	return p.runs[i]
}

// Text returns the concatenated visible text of the paragraph's runs.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.runs {
		b.WriteString(r.text)
	}
	return b.String()
}

// Text returns the run's visible text.
func (r *Run) Text() string {
	return r.text
}

// Serialize writes the mutated parts back into the package and returns the
// full container bytes. Untouched parts are copied verbatim.
func (d *Document) Serialize() ([]byte, error) {
	d.pkg.SetPart(partDocument, []byte(d.root.OutputXML(false)))
	if d.comments != nil && d.comments.dirty {
		if err := d.comments.flush(d.pkg); err != nil {
			return nil, err
		}
	}
	return d.pkg.Bytes()
}
