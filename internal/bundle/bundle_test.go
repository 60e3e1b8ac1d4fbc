package bundle_test

import (
	"bytes"
	"testing"

	"github.com/panelzero/redline/core/review"
	"github.com/panelzero/redline/internal/bundle"
)

func sample() *bundle.Bundle {
	return &bundle.Bundle{
		Original: []byte("original bytes"),
		Reviewed: []byte("reviewed bytes"),
		Report:   &review.Report{ID: "r1", InputHash: "abc", Applied: 2},
	}
}

func TestPackUnpackXZ(t *testing.T) {
	var buf bytes.Buffer
	if err := bundle.Pack(&buf, sample(), bundle.CompressionXZ); err != nil {
		t.Fatal(err)
	}
	got, err := bundle.Unpack(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Original) != "original bytes" || string(got.Reviewed) != "reviewed bytes" {
		t.Errorf("members = %q / %q", got.Original, got.Reviewed)
	}
	if got.Report.ID != "r1" || got.Report.Applied != 2 {
		t.Errorf("report = %+v", got.Report)
	}
}

func TestPackUnpackGzip(t *testing.T) {
	var buf bytes.Buffer
	if err := bundle.Pack(&buf, sample(), bundle.CompressionGzip); err != nil {
		t.Fatal(err)
	}
	got, err := bundle.Unpack(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Report.ID != "r1" {
		t.Errorf("report = %+v", got.Report)
	}
}

func TestPackDefaultsToXZ(t *testing.T) {
	var buf bytes.Buffer
	if err := bundle.Pack(&buf, sample(), ""); err != nil {
		t.Fatal(err)
	}
	magic := buf.Bytes()[:6]
	want := []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	if !bytes.Equal(magic, want) {
		t.Errorf("magic = %x, want xz", magic)
	}
}

func TestPackRejectsUnknownCompression(t *testing.T) {
	var buf bytes.Buffer
	if err := bundle.Pack(&buf, sample(), "zstd"); err == nil {
		t.Error("unknown compression should fail")
	}
}

func TestUnpackRejectsGarbage(t *testing.T) {
	if _, err := bundle.Unpack(bytes.NewReader([]byte("garbage stream"))); err == nil {
		t.Error("garbage should fail")
	}
}

func TestUnpackEmptyMember(t *testing.T) {
	var buf bytes.Buffer
	b := sample()
	b.Reviewed = nil
	if err := bundle.Pack(&buf, b, bundle.CompressionGzip); err != nil {
		t.Fatal(err)
	}
	got, err := bundle.Unpack(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Reviewed) != 0 {
		t.Errorf("reviewed = %q", got.Reviewed)
	}
}
