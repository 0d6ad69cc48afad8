// Package ingest loads the source CSV exports into Postgres
package ingest

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	perr "storepulse/internal/platform/errors"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Reader streams header keyed records from a CSV file, optionally gzip compressed
type Reader struct {
	closers []io.Closer
	cr      *csv.Reader
	index   map[string]int
	line    int
	records int
}

// Open opens path for reading, *.gz files are decompressed on the fly
func Open(path string, required ...string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "open %s", path)
	}
	closers := []io.Closer{f}
	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "gzip %s", path)
		}
		closers = append([]io.Closer{gz}, closers...)
		src = gz
	}
	rd, err := NewReader(src, required...)
	if err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, perr.Wrapf(err, perr.CodeOf(err), "%s", path)
	}
	rd.closers = closers
	return rd, nil
}

// NewReader reads the header of r and checks every required column is present
// a leading UTF-8 or UTF-16 BOM is stripped
func NewReader(r io.Reader, required ...string) (*Reader, error) {
	dec := unicode.BOMOverride(encoding.Nop.NewDecoder())
	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, perr.Validationf("empty file, no header")
	}
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "read header")
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, perr.Validationf("missing columns %s", strings.Join(missing, ", "))
	}
	return &Reader{cr: cr, index: index, line: 1}, nil
}

// Record is one data line, valid until the next call to Next
type Record struct {
	Line   int
	fields []string
	index  map[string]int
}

// Get returns the trimmed value of col, "" when the line is short
func (r Record) Get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// Next returns the next record; io.EOF when done
// malformed lines come back as Validation errors and the reader stays usable
func (rd *Reader) Next() (Record, error) {
	fields, err := rd.cr.Read()
	rd.line++
	if errors.Is(err, io.EOF) {
		return Record{}, io.EOF
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return Record{Line: rd.line}, perr.Wrapf(err, perr.ErrorCodeValidation, "line %d", rd.line)
		}
		return Record{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "line %d", rd.line)
	}
	rd.records++
	return Record{Line: rd.line, fields: fields, index: rd.index}, nil
}

// Records returns how many well formed records were read so far
func (rd *Reader) Records() int { return rd.records }

// Close closes the decompressor and the file
func (rd *Reader) Close() error {
	var first error
	for _, c := range rd.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
