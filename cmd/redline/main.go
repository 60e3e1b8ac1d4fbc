// Command redline annotates packaged review documents: it locates reviewer
// findings in the text, highlights them by severity, anchors comments, and
// proves the result changed nothing else.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/panelzero/redline/core/annot"
	"github.com/panelzero/redline/core/docx"
	"github.com/panelzero/redline/core/index"
	"github.com/panelzero/redline/core/review"
	"github.com/panelzero/redline/core/rules"
	"github.com/panelzero/redline/internal/audit"
	"github.com/panelzero/redline/internal/bundle"
	"github.com/panelzero/redline/internal/logging"
	"github.com/panelzero/redline/internal/profile"
	"github.com/panelzero/redline/internal/validation"
)

const version = "0.2.0"

// CLI defines the command-line interface for redline.
var CLI struct {
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log output format"`

	Verify   VerifyCmd   `cmd:"" help:"Check a document package's structural integrity"`
	Chapters ChaptersCmd `cmd:"" help:"List the document's chapter segmentation"`
	Geometry GeometryCmd `cmd:"" help:"Read page margins and default font, optionally against a profile"`
	Review   ReviewCmd   `cmd:"" help:"Annotate a document with findings"`
	Export   ExportCmd   `cmd:"" help:"Unpack a review bundle"`
	Reports  ReportsCmd  `cmd:"" help:"List or show audited review reports"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

func initLogging() {
	level := map[string]logging.Level{
		"debug": logging.LevelDebug,
		"info":  logging.LevelInfo,
		"warn":  logging.LevelWarn,
		"error": logging.LevelError,
	}[CLI.LogLevel]
	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

type VerifyCmd struct {
	Path string `arg:"" help:"Document to verify" type:"path"`
}

func (c *VerifyCmd) Run() error {
	data, err := validation.ReadDocument(c.Path)
	if err != nil {
		return err
	}
	if err := docx.Verify(data); err != nil {
		return err
	}
	doc, err := docx.Load(data)
	if err != nil {
		return err
	}
	fmt.Printf("ok: %d paragraphs, %d runs, %d visible characters\n",
		doc.ParagraphCount(), doc.RunCount(), doc.VisibleChars())
	return nil
}

type ChaptersCmd struct {
	Path    string `arg:"" help:"Document to segment" type:"path"`
	Profile string `help:"Review profile (YAML)" type:"path"`
	JSON    bool   `help:"Emit JSON instead of a table"`
}

func (c *ChaptersCmd) Run() error {
	data, err := validation.ReadDocument(c.Path)
	if err != nil {
		return err
	}
	doc, err := docx.Load(data)
	if err != nil {
		return err
	}
	prof, err := loadProfile(c.Profile)
	if err != nil {
		return err
	}
	_, m := index.Flatten(doc)
	eng := review.New(prof)
	chapters := index.Segment(doc, m, eng.SegmentOptions())

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(chapters)
	}
	for _, ch := range chapters {
		title := ch.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  paras %d-%d  %6d chars  %s\n",
			ch.ID, ch.StartPara, ch.EndPara, ch.End-ch.Start, title)
	}
	return nil
}

type GeometryCmd struct {
	Path    string `arg:"" help:"Document to read" type:"path"`
	Profile string `help:"Review profile (YAML); enables rubric checking" type:"path"`
	JSON    bool   `help:"Emit JSON instead of text"`
}

func (c *GeometryCmd) Run() error {
	data, err := validation.ReadDocument(c.Path)
	if err != nil {
		return err
	}
	doc, err := docx.Load(data)
	if err != nil {
		return err
	}
	g := doc.ReadPageGeometry()

	var deviations []docx.Deviation
	if c.Profile != "" {
		prof, err := profile.Load(c.Profile)
		if err != nil {
			return err
		}
		deviations = docx.CheckGeometry(g, prof.Geometry())
	}

	if c.JSON {
		out := struct {
			Geometry   docx.PageGeometry `json:"geometry"`
			Deviations []docx.Deviation  `json:"deviations,omitempty"`
		}{g, deviations}
		return json.NewEncoder(os.Stdout).Encode(out)
	}
	fmt.Printf("margins: left %.2f\" right %.2f\" top %.2f\" bottom %.2f\"\n",
		g.Margins.Left, g.Margins.Right, g.Margins.Top, g.Margins.Bottom)
	if g.DefaultFont.Family != "" {
		fmt.Printf("default font: %s %gpt\n", g.DefaultFont.Family, g.DefaultFont.Size)
	}
	for _, d := range deviations {
		fmt.Printf("DEVIATION [%s] %s: required %s, actual %s\n",
			d.Severity, d.Field, d.Required, d.Actual)
	}
	if c.Profile != "" && len(deviations) == 0 {
		fmt.Println("geometry matches profile")
	}
	return nil
}

type ReviewCmd struct {
	Path       string `arg:"" help:"Document to review" type:"path"`
	Findings   string `help:"Findings file (JSON array)" type:"path"`
	Profile    string `help:"Review profile (YAML)" type:"path"`
	Out        string `help:"Annotated output path" default:"reviewed.docx" type:"path"`
	Report     string `help:"Write the run report (JSON) to this path" type:"path"`
	Bundle     string `help:"Also pack original+reviewed+report into this archive" type:"path"`
	Audit      string `help:"Record the report in this SQLite audit database" type:"path"`
	NoComments bool   `name:"no-comments" help:"Highlight only; skip anchored comments"`
}

func (c *ReviewCmd) Run() error {
	input, err := validation.ReadDocument(c.Path)
	if err != nil {
		return err
	}
	prof, err := loadProfile(c.Profile)
	if err != nil {
		return err
	}
	extra, err := loadFindings(c.Findings)
	if err != nil {
		return err
	}
	if err := validation.SafeOutputPath(c.Out); err != nil {
		return err
	}

	eng := review.New(prof, rules.New(prof.Rules))
	eng.Comments = !c.NoComments

	ctx := context.Background()
	out, report, err := eng.Run(ctx, input, extra)
	if err != nil {
		// A failed safety check still yields a report worth keeping.
		if report != nil && c.Report != "" {
			writeReport(c.Report, report)
		}
		return err
	}

	if err := os.WriteFile(c.Out, out, 0o644); err != nil {
		return err
	}
	if c.Report != "" {
		if err := writeReport(c.Report, report); err != nil {
			return err
		}
	}
	if c.Bundle != "" {
		f, err := os.Create(c.Bundle)
		if err != nil {
			return err
		}
		defer f.Close()
		b := &bundle.Bundle{Original: input, Reviewed: out, Report: report}
		compression := bundle.CompressionXZ
		if strings.HasSuffix(c.Bundle, ".gz") || strings.HasSuffix(c.Bundle, ".tgz") {
			compression = bundle.CompressionGzip
		}
		if err := bundle.Pack(f, b, compression); err != nil {
			return err
		}
	}
	if c.Audit != "" {
		store, err := audit.Open(c.Audit)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Record(ctx, report); err != nil {
			return err
		}
	}

	fmt.Printf("reviewed %s: %d findings, %d applied, %d not found, %d comments -> %s\n",
		c.Path, report.Findings, report.Applied, report.NotFound, report.Comments, c.Out)
	for _, d := range report.Deviations {
		fmt.Printf("DEVIATION [%s] %s: required %s, actual %s\n",
			d.Severity, d.Field, d.Required, d.Actual)
	}
	return nil
}

type ExportCmd struct {
	Bundle string `arg:"" help:"Bundle archive to unpack" type:"path"`
	Dir    string `help:"Output directory" default:"." type:"path"`
}

func (c *ExportCmd) Run() error {
	f, err := os.Open(c.Bundle)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := bundle.Unpack(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	reportJSON, err := json.MarshalIndent(b.Report, "", "  ")
	if err != nil {
		return err
	}
	members := []struct {
		name string
		data []byte
	}{
		{bundle.OriginalName, b.Original},
		{bundle.ReviewedName, b.Reviewed},
		{bundle.ReportName, reportJSON},
	}
	for _, m := range members {
		path := filepath.Join(c.Dir, m.name)
		if err := os.WriteFile(path, m.data, 0o644); err != nil {
			return err
		}
		fmt.Println(path)
	}
	return nil
}

type ReportsCmd struct {
	List ReportsListCmd `cmd:"" help:"List recent reports"`
	Show ReportsShowCmd `cmd:"" help:"Show one report as JSON"`
}

type ReportsListCmd struct {
	Audit string `help:"Audit database path" default:"redline-audit.db" type:"path"`
	Doc   string `help:"Filter by input document hash"`
	Limit int    `help:"Maximum rows" default:"20"`
}

func (c *ReportsListCmd) Run() error {
	store, err := audit.Open(c.Audit)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	var rows []audit.Summary
	if c.Doc != "" {
		rows, err = store.ForDocument(ctx, c.Doc, c.Limit)
	} else {
		rows, err = store.List(ctx, c.Limit)
	}
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Printf("%s  %s  in=%.12s  applied=%d  not_found=%d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.InputHash, r.Applied, r.NotFound)
	}
	return nil
}

type ReportsShowCmd struct {
	ID    string `arg:"" help:"Report id"`
	Audit string `help:"Audit database path" default:"redline-audit.db" type:"path"`
}

func (c *ReportsShowCmd) Run() error {
	store, err := audit.Open(c.Audit)
	if err != nil {
		return err
	}
	defer store.Close()
	r, err := store.Get(context.Background(), c.ID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("redline version %s\n", version)
	return nil
}

func loadProfile(path string) (profile.Profile, error) {
	if path == "" {
		return profile.Default(), nil
	}
	return profile.Load(path)
}

func loadFindings(path string) ([]annot.Finding, error) {
	if path == "" {
		return nil, nil
	}
	data, err := validation.ReadFindings(path)
	if err != nil {
		return nil, err
	}
	var findings []annot.Finding
	if err := json.Unmarshal(data, &findings); err != nil {
		return nil, fmt.Errorf("parse findings %s: %w", path, err)
	}
	return findings, nil
}

func writeReport(path string, r *review.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("redline"),
		kong.Description("Surgical review annotation for packaged documents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogging()
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
