// Package bundle packs a review run into a single portable archive: the
// untouched input, the annotated output, and the run report.
package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/panelzero/redline/core/errors"
	"github.com/panelzero/redline/core/review"
)

// Archive member names.
const (
	OriginalName = "original.docx"
	ReviewedName = "reviewed.docx"
	ReportName   = "report.json"
)

// CompressionType selects the archive compression.
type CompressionType string

const (
	// CompressionXZ is the default, best ratio.
	CompressionXZ CompressionType = "xz"
	// CompressionGzip is faster and stdlib-decodable.
	CompressionGzip CompressionType = "gzip"
)

// Bundle is one review run's artifacts.
type Bundle struct {
	Original []byte
	Reviewed []byte
	Report   *review.Report
}

// Pack writes the bundle as a compressed tar stream.
func Pack(w io.Writer, b *Bundle, compression CompressionType) error {
	var cw io.WriteCloser
	switch compression {
	case CompressionGzip:
		cw = gzip.NewWriter(w)
	case CompressionXZ, "":
		xw, err := xz.NewWriter(w)
		if err != nil {
			return errors.Wrap(err, "xz writer")
		}
		cw = xw
	default:
		return errors.NewValidation("compression", string(compression))
	}

	reportJSON, err := json.MarshalIndent(b.Report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode report")
	}

	tw := tar.NewWriter(cw)
	now := time.Now().UTC()
	members := []struct {
		name string
		data []byte
	}{
		{OriginalName, b.Original},
		{ReviewedName, b.Reviewed},
		{ReportName, reportJSON},
	}
	for _, m := range members {
		hdr := &tar.Header{
			Name:    m.name,
			Mode:    0o644,
			Size:    int64(len(m.data)),
			ModTime: now,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return errors.Wrapf(err, "tar header %s", m.name)
		}
		if _, err := tw.Write(m.data); err != nil {
			return errors.Wrapf(err, "tar write %s", m.name)
		}
	}
	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "close tar")
	}
	return cw.Close()
}

// Unpack reads a bundle produced by Pack, detecting the compression from the
// stream's magic bytes.
func Unpack(r io.Reader) (*Bundle, error) {
	br := newPeekReader(r)
	magic, err := br.peek(6)
	if err != nil {
		return nil, errors.NewParse("bundle", "", "short read")
	}

	var cr io.Reader
	switch {
	case bytes.HasPrefix(magic, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}):
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "xz reader")
		}
		cr = xr
	case bytes.HasPrefix(magic, []byte{0x1F, 0x8B}):
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "gzip reader")
		}
		cr = gr
	default:
		return nil, errors.NewParse("bundle", "", "unrecognized compression magic")
	}

	b := &Bundle{}
	tr := tar.NewReader(cr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read tar")
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, errors.Wrapf(err, "read member %s", hdr.Name)
		}
		switch strings.TrimPrefix(hdr.Name, "./") {
		case OriginalName:
			b.Original = data
		case ReviewedName:
			b.Reviewed = data
		case ReportName:
			var rep review.Report
			if err := json.Unmarshal(data, &rep); err != nil {
				return nil, errors.NewParse("json", hdr.Name, err.Error())
			}
			b.Report = &rep
		}
	}
	if b.Original == nil || b.Reviewed == nil || b.Report == nil {
		return nil, errors.NewParse("bundle", "", "missing required member")
	}
	return b, nil
}

// peekReader buffers just enough of the stream to sniff the magic bytes.
type peekReader struct {
	r   io.Reader
	buf []byte
}

func newPeekReader(r io.Reader) *peekReader {
	return &peekReader{r: r}
}

func (p *peekReader) peek(n int) ([]byte, error) {
	for len(p.buf) < n {
		chunk := make([]byte, n-len(p.buf))
		m, err := p.r.Read(chunk)
		p.buf = append(p.buf, chunk[:m]...)
		if err != nil {
			return p.buf, err
		}
	}
	return p.buf[:n], nil
}

func (p *peekReader) Read(b []byte) (int, error) {
	if len(p.buf) > 0 {
		n := copy(b, p.buf)
		p.buf = p.buf[n:]
		return n, nil
	}
	return p.r.Read(b)
}
