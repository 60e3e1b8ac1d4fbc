package docx_test

import (
	"math"
	"testing"

	"github.com/panelzero/redline/core/annot"
	"github.com/panelzero/redline/core/docx"
	"github.com/panelzero/redline/internal/doctest"
)

func TestReadPageGeometry(t *testing.T) {
	data := doctest.New(doctest.P("body")).
		WithSect(doctest.SectPr{
			Left:   doctest.Inches(1.5),
			Right:  doctest.Inches(1.0),
			Top:    doctest.Inches(1.0),
			Bottom: doctest.Inches(1.25),
		}).Bytes()
	doc, err := docx.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	g := doc.ReadPageGeometry()

	if math.Abs(g.Margins.Left-1.5) > 1e-9 {
		t.Errorf("left margin = %v, want 1.5", g.Margins.Left)
	}
	if math.Abs(g.Margins.Bottom-1.25) > 1e-9 {
		t.Errorf("bottom margin = %v, want 1.25", g.Margins.Bottom)
	}
	if g.DefaultFont.Family != "Times New Roman" {
		t.Errorf("font family = %q", g.DefaultFont.Family)
	}
	if g.DefaultFont.Size != 12 {
		t.Errorf("font size = %v, want 12", g.DefaultFont.Size)
	}
}

func TestReadPageGeometryMissingSection(t *testing.T) {
	doc, err := docx.Load(doctest.Docx(doctest.P("no sectPr")))
	if err != nil {
		t.Fatal(err)
	}
	g := doc.ReadPageGeometry()
	if g.Margins != (docx.Margins{}) {
		t.Errorf("margins should be zero without sectPr, got %+v", g.Margins)
	}
}

func TestCheckGeometryTolerance(t *testing.T) {
	profile := docx.GeometryProfile{
		Margins:    docx.Margins{Left: 1.5, Right: 1.0, Top: 1.0, Bottom: 1.0},
		FontFamily: "Times New Roman",
		FontSize:   12,
	}

	tests := []struct {
		name   string
		g      docx.PageGeometry
		fields []string
	}{
		{
			name: "within tolerance",
			g: docx.PageGeometry{
				Margins:     docx.Margins{Left: 1.49, Right: 1.0, Top: 1.0, Bottom: 1.0},
				DefaultFont: docx.FontDefaults{Family: "Times New Roman", Size: 12},
			},
		},
		{
			name: "left margin out",
			g: docx.PageGeometry{
				Margins:     docx.Margins{Left: 1.2, Right: 1.0, Top: 1.0, Bottom: 1.0},
				DefaultFont: docx.FontDefaults{Family: "Times New Roman", Size: 12},
			},
			fields: []string{"margin_left"},
		},
		{
			name: "wrong font family and size",
			g: docx.PageGeometry{
				Margins:     docx.Margins{Left: 1.5, Right: 1.0, Top: 1.0, Bottom: 1.0},
				DefaultFont: docx.FontDefaults{Family: "Arial", Size: 11},
			},
			fields: []string{"font_family", "font_size"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devs := docx.CheckGeometry(tt.g, profile)
			if len(devs) != len(tt.fields) {
				t.Fatalf("got %d deviations %+v, want %d", len(devs), devs, len(tt.fields))
			}
			for i, field := range tt.fields {
				if devs[i].Field != field {
					t.Errorf("deviation %d field = %q, want %q", i, devs[i].Field, field)
				}
			}
		})
	}
}

func TestCheckGeometrySeverities(t *testing.T) {
	profile := docx.GeometryProfile{
		Margins:    docx.Margins{Left: 1.0, Right: 1.0, Top: 1.0, Bottom: 1.0},
		FontFamily: "Times New Roman",
		FontSize:   12,
	}
	g := docx.PageGeometry{
		Margins:     docx.Margins{Left: 2.0, Right: 1.0, Top: 1.0, Bottom: 1.0},
		DefaultFont: docx.FontDefaults{Family: "Times New Roman", Size: 11},
	}
	devs := docx.CheckGeometry(g, profile)
	if len(devs) != 2 {
		t.Fatalf("got %d deviations, want 2", len(devs))
	}
	if devs[0].Severity != annot.SeverityMajor {
		t.Errorf("margin deviation severity = %v, want major", devs[0].Severity)
	}
	if devs[1].Severity != annot.SeverityMinor {
		t.Errorf("font size deviation severity = %v, want minor", devs[1].Severity)
	}
}
