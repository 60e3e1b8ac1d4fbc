// Package doctest builds minimal WordprocessingML packages for tests.
package doctest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/><Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/></Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`

// DefaultStylesXML declares Times New Roman 12pt document defaults.
const DefaultStylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman"/><w:sz w:val="24"/></w:rPr></w:rPrDefault></w:docDefaults></w:styles>`

// Run is one run of a test paragraph.
type Run struct {
	Text string
	// Props is raw rPr inner XML, e.g. `<w:b></w:b>` for bold.
	Props string
}

// Para is one paragraph of a test document.
type Para struct {
	Style string // e.g. "Heading1"
	Runs  []Run
}

// P is shorthand for a single-run unstyled paragraph.
func P(text string) Para {
	return Para{Runs: []Run{{Text: text}}}
}

// Heading is shorthand for a single-run Heading1 paragraph.
func Heading(text string) Para {
	return Para{Style: "Heading1", Runs: []Run{{Text: text}}}
}

// SectPr describes the page geometry of a test document, in twips.
type SectPr struct {
	Left, Right, Top, Bottom int
}

// Inches converts inches to twips.
func Inches(in float64) int {
	return int(in * 1440)
}

// Builder assembles a test package.
type Builder struct {
	Paras   []Para
	Sect    *SectPr
	Styles  string // styles.xml content; empty omits the part
	BodyXML string // raw extra body XML, appended after paragraphs
}

// New returns a builder with the given paragraphs and default styles.
func New(paras ...Para) *Builder {
	return &Builder{Paras: paras, Styles: DefaultStylesXML}
}

// WithSect sets the section page margins.
func (b *Builder) WithSect(s SectPr) *Builder {
	b.Sect = &s
	return b
}

// DocumentXML renders the word/document.xml part.
func (b *Builder) DocumentXML() string {
	var body strings.Builder
	for _, para := range b.Paras {
		body.WriteString("<w:p>")
		if para.Style != "" {
			fmt.Fprintf(&body, `<w:pPr><w:pStyle w:val="%s"></w:pStyle></w:pPr>`, para.Style)
		}
		for _, run := range para.Runs {
			body.WriteString("<w:r>")
			if run.Props != "" {
				body.WriteString("<w:rPr>" + run.Props + "</w:rPr>")
			}
			space := ""
			if strings.TrimSpace(run.Text) != run.Text {
				space = ` xml:space="preserve"`
			}
			fmt.Fprintf(&body, "<w:t%s>%s</w:t>", space, escapeText(run.Text))
			body.WriteString("</w:r>")
		}
		body.WriteString("</w:p>")
	}
	if b.BodyXML != "" {
		body.WriteString(b.BodyXML)
	}
	if b.Sect != nil {
		fmt.Fprintf(&body,
			`<w:sectPr><w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d"></w:pgMar></w:sectPr>`,
			b.Sect.Top, b.Sect.Right, b.Sect.Bottom, b.Sect.Left)
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// Bytes assembles the zip container.
func (b *Builder) Bytes() []byte {
	parts := []struct {
		name string
		data string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"word/document.xml", b.DocumentXML()},
		{"word/_rels/document.xml.rels", documentRelsXML},
	}
	if b.Styles != "" {
		parts = append(parts, struct{ name, data string }{"word/styles.xml", b.Styles})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(part.data)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Docx builds a package from plain paragraphs.
func Docx(paras ...Para) []byte {
	return New(paras...).Bytes()
}
