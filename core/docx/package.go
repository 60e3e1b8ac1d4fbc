// Package docx provides surgical access to WordprocessingML packages: loading
// the paragraph/run structure, splitting runs to inject highlights and
// comments, and serializing the package back with every untouched part copied
// byte-for-byte.
package docx

import (
	"archive/zip"
	"bytes"
	"io"

	"github.com/antchfx/xmlquery"

	"github.com/panelzero/redline/core/errors"
)

// Well-known part names.
const (
	partContentTypes = "[Content_Types].xml"
	partRootRels     = "_rels/.rels"
	partDocument     = "word/document.xml"
	partStyles       = "word/styles.xml"
	partComments     = "word/comments.xml"
	partDocumentRels = "word/_rels/document.xml.rels"
)

// requiredParts must be present and well-formed for a package to pass Verify.
var requiredParts = []string{partContentTypes, partRootRels, partDocument}

// Part is one file inside the package container.
type Part struct {
	Name string
	Data []byte

	// method preserves the original zip compression method so untouched
	// parts round-trip with their original storage mode.
	method uint16
}

// Package is an opened document container. Part order is preserved.
type Package struct {
	parts  []*Part
	byName map[string]*Part
}

// OpenPackage reads a zip container into memory.
func OpenPackage(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewCorruptPackage("", "not a zip container", err)
	}

	pkg := &Package{byName: make(map[string]*Part)}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, errors.NewCorruptPackage(f.Name, "cannot open part", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.NewCorruptPackage(f.Name, "cannot read part", err)
		}
		part := &Part{Name: f.Name, Data: content, method: f.Method}
		pkg.parts = append(pkg.parts, part)
		pkg.byName[f.Name] = part
	}
	return pkg, nil
}

// Part returns the named part, if present.
func (p *Package) Part(name string) (*Part, bool) {
	part, ok := p.byName[name]
	return part, ok
}

// SetPart replaces the named part's content, or appends a new deflated part.
func (p *Package) SetPart(name string, data []byte) {
	if part, ok := p.byName[name]; ok {
		part.Data = data
		return
	}
	part := &Part{Name: name, Data: data, method: zip.Deflate}
	p.parts = append(p.parts, part)
	p.byName[name] = part
}

// PartNames returns all part names in container order.
func (p *Package) PartNames() []string {
	names := make([]string, len(p.parts))
	for i, part := range p.parts {
		names[i] = part.Name
	}
	return names
}

// Bytes serializes the package, preserving part order and compression methods.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range p.parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   part.Name,
			Method: part.method,
		})
		if err != nil {
			return nil, errors.NewIO("write part header", part.Name, err)
		}
		if _, err := w.Write(part.Data); err != nil {
			return nil, errors.NewIO("write part", part.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.NewIO("close container", "", err)
	}
	return buf.Bytes(), nil
}

// Verify checks that the bytes are an openable package with all required
// parts present and parseable. It never attempts partial recovery: the first
// defect aborts with a CorruptPackageError.
func Verify(data []byte) error {
	pkg, err := OpenPackage(data)
	if err != nil {
		return err
	}
	for _, name := range requiredParts {
		part, ok := pkg.Part(name)
		if !ok {
			return errors.NewCorruptPackage(name, "required part missing", nil)
		}
		if _, err := xmlquery.Parse(bytes.NewReader(part.Data)); err != nil {
			return errors.NewCorruptPackage(name, "part is not well-formed XML", err)
		}
	}
	return nil
}
