package docx

import (
	"fmt"
	"math"
	"strconv"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/panelzero/redline/core/annot"
)

// Twips per inch (twentieths of a point).
const twipsPerInch = 1440.0

var (
	pgMarQuery       = xpath.MustCompile("//w:sectPr/w:pgMar")
	docDefaultsQuery = xpath.MustCompile("//w:docDefaults/w:rPrDefault/w:rPr")
)

// Margins are page margins in inches.
type Margins struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// FontDefaults are the document-default run font family and size in points.
type FontDefaults struct {
	Family string  `json:"family"`
	Size   float64 `json:"size"`
}

// PageGeometry is the structural read used for rubric comparison. Reading it
// never mutates the document.
type PageGeometry struct {
	Margins     Margins      `json:"margins"`
	DefaultFont FontDefaults `json:"default_font"`
}

// ReadPageGeometry reads the first section's page margins and the
// document-default font. Missing values stay zero.
func (d *Document) ReadPageGeometry() PageGeometry {
	var g PageGeometry

	if pgMar := xmlquery.QuerySelector(d.body, pgMarQuery); pgMar != nil {
		g.Margins.Left = twipsAttrInches(pgMar, "left")
		g.Margins.Right = twipsAttrInches(pgMar, "right")
		g.Margins.Top = twipsAttrInches(pgMar, "top")
		g.Margins.Bottom = twipsAttrInches(pgMar, "bottom")
	}

	if d.stylesRoot != nil {
		if rPr := xmlquery.QuerySelector(d.stylesRoot, docDefaultsQuery); rPr != nil {
			if fonts := childElement(rPr, "w", "rFonts"); fonts != nil {
				g.DefaultFont.Family = selectWAttr(fonts, "ascii")
			}
			if sz := childElement(rPr, "w", "sz"); sz != nil {
				if halfPoints, err := strconv.ParseFloat(selectWAttr(sz, "val"), 64); err == nil {
					g.DefaultFont.Size = halfPoints / 2
				}
			}
		}
	}

	return g
}

func twipsAttrInches(n *xmlquery.Node, local string) float64 {
	v, err := strconv.ParseFloat(selectWAttr(n, local), 64)
	if err != nil {
		return 0
	}
	return v / twipsPerInch
}

// GeometryProfile is the configured rubric the geometry is compared against.
type GeometryProfile struct {
	Margins         Margins
	MarginTolerance float64 // inches; 0 means the 0.02" default
	FontFamily      string  // empty disables the check
	FontSize        float64 // points; 0 disables the check
}

// DefaultMarginTolerance is the margin comparison tolerance in inches.
const DefaultMarginTolerance = 0.02

// Deviation is one geometry value outside the profile's tolerance. The check
// is binary: a value is either within tolerance or flagged.
type Deviation struct {
	Field    string         `json:"field"`
	Required string         `json:"required"`
	Actual   string         `json:"actual"`
	Severity annot.Severity `json:"severity"`
}

// CheckGeometry compares a geometry read against a profile with fixed
// numeric tolerances.
func CheckGeometry(g PageGeometry, p GeometryProfile) []Deviation {
	tol := p.MarginTolerance
	if tol == 0 {
		tol = DefaultMarginTolerance
	}

	var out []Deviation
	margin := func(field string, required, actual float64) {
		if math.Abs(actual-required) > tol {
			out = append(out, Deviation{
				Field:    "margin_" + field,
				Required: fmt.Sprintf("%.2f", required),
				Actual:   fmt.Sprintf("%.2f", actual),
				Severity: annot.SeverityMajor,
			})
		}
	}
	margin("left", p.Margins.Left, g.Margins.Left)
	margin("right", p.Margins.Right, g.Margins.Right)
	margin("top", p.Margins.Top, g.Margins.Top)
	margin("bottom", p.Margins.Bottom, g.Margins.Bottom)

	if p.FontFamily != "" && g.DefaultFont.Family != "" && g.DefaultFont.Family != p.FontFamily {
		out = append(out, Deviation{
			Field:    "font_family",
			Required: p.FontFamily,
			Actual:   g.DefaultFont.Family,
			Severity: annot.SeverityMajor,
		})
	}
	if p.FontSize > 0 && g.DefaultFont.Size > 0 && math.Abs(g.DefaultFont.Size-p.FontSize) > 0.1 {
		out = append(out, Deviation{
			Field:    "font_size",
			Required: fmt.Sprintf("%g", p.FontSize),
			Actual:   fmt.Sprintf("%g", g.DefaultFont.Size),
			Severity: annot.SeverityMinor,
		})
	}
	return out
}
