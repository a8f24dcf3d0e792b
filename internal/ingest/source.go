package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/contacts/internal/contact"
)

// FirstDataLine is the ordinal of the first data row; line 1 is the header.
const FirstDataLine = 2

// ImportColumns are the CSV columns the bulk import requires.
var ImportColumns = []string{contact.ColFirstName, contact.ColLastName, contact.ColEmail, contact.ColAge}

// Source yields raw rows one at a time, in order. Next returns io.EOF once
// the data is exhausted. Any other error is a read fault that ends the
// sequence; Next must not be called again after it.
type Source interface {
	Next() (contact.RawRow, error)
}

// CSVSource reads contact rows from CSV text with a header line.
type CSVSource struct {
	frames   []*csvFrame
	counter  *CountingReader
	required []string

	header  []string
	ordinal int
	started bool
	err     error
}

// csvFrame reads one span of the input. The first frame covers the whole
// stream; later frames re-read lines swallowed by an unterminated quote.
type csvFrame struct {
	r    *csv.Reader
	tap  *tapReader
	base int // physical line before the frame's first line
}

func newFrame(r io.Reader, base int, lazy bool) *csvFrame {
	tap := &tapReader{r: r}
	cr := csv.NewReader(tap)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = lazy
	cr.ReuseRecord = false
	return &csvFrame{r: cr, tap: tap, base: base}
}

// NewCSVSource reads CSV from r after BOM stripping and UTF-8 sanitizing.
// size is used for progress reporting only and may be 0. The header must
// contain every column in required (case-insensitive).
func NewCSVSource(r io.Reader, size int64, required []string) *CSVSource {
	counter := PrepareStream(r, size)

	return &CSVSource{
		frames:   []*csvFrame{newFrame(counter, 0, true)},
		counter:  counter,
		required: required,
		ordinal:  FirstDataLine - 1,
	}
}

// Progress returns the percentage of input consumed, when the size is known.
func (s *CSVSource) Progress() int {
	return s.counter.Percent()
}

// BytesRead returns the number of input bytes consumed.
func (s *CSVSource) BytesRead() int64 {
	return s.counter.BytesRead()
}

// Next returns the next data row.
func (s *CSVSource) Next() (contact.RawRow, error) {
	if s.err != nil {
		return contact.RawRow{}, s.err
	}

	if !s.started {
		s.started = true
		if err := s.readHeader(); err != nil {
			s.err = err
			return contact.RawRow{}, err
		}
	}

	for {
		f := s.frames[len(s.frames)-1]
		from := f.r.InputOffset()
		record, err := f.r.Read()
		if err == io.EOF {
			if len(s.frames) > 1 {
				s.frames = s.frames[:len(s.frames)-1]
				continue
			}
			s.err = io.EOF
			return contact.RawRow{}, io.EOF
		}
		raw := f.tap.cut(from, f.r.InputOffset())

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				s.ordinal = f.base + parseErr.StartLine
				return contact.RawRow{Line: s.ordinal, Malformed: parseErr.Err.Error()}, nil
			}
			s.err = fmt.Errorf("read line %d: %w", s.ordinal+1, err)
			return contact.RawRow{}, s.err
		}

		// Ordinals follow physical lines so rejections point at the file.
		line, _ := f.r.FieldPos(0)
		s.ordinal = f.base + line

		if isBlankRecord(record) {
			continue
		}

		row := s.toRow(record)
		if s.swallowsLines(record, row) {
			row = s.splitRecord(raw, f.r.LazyQuotes)
		}
		return row, nil
	}
}

// swallowsLines reports whether a record ran past its first physical line in
// a way no contact row can: a malformed record holding a line break, or a
// line break inside a contact column.
func (s *CSVSource) swallowsLines(record []string, row contact.RawRow) bool {
	if row.Malformed != "" {
		for _, v := range record {
			if strings.Contains(v, "\n") {
				return true
			}
		}
		return false
	}
	for _, col := range contact.Columns {
		if strings.Contains(row.Fields[col], "\n") {
			return true
		}
	}
	return false
}

// splitRecord rejects the first physical line of raw and queues the rest to
// be read again as ordinary rows, so a stray quote costs one row.
func (s *CSVSource) splitRecord(raw []byte, lazy bool) contact.RawRow {
	// Empty lines skipped by the reader precede the record.
	raw = bytes.TrimLeft(raw, "\r\n")
	last := s.ordinal + bytes.Count(bytes.TrimRight(raw, "\r\n"), []byte{'\n'})

	if i := bytes.IndexByte(raw, '\n'); i >= 0 && i+1 < len(raw) {
		s.frames = append(s.frames, newFrame(bytes.NewReader(raw[i+1:]), s.ordinal, lazy))
	}
	return contact.RawRow{
		Line:      s.ordinal,
		Malformed: fmt.Sprintf("unterminated quoted field (lines %d-%d); following lines read separately", s.ordinal, last),
	}
}

func (s *CSVSource) readHeader() error {
	f := s.frames[0]
	record, err := f.r.Read()
	f.tap.cut(0, f.r.InputOffset())
	if err == io.EOF {
		return io.EOF
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	header := make([]string, len(record))
	seen := make(map[string]bool, len(record))
	for i, h := range record {
		header[i] = cleanHeader(h)
		seen[header[i]] = true
	}

	var missing []string
	for _, col := range s.required {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required column %s", strings.Join(missing, ", "))
	}

	s.header = header
	return nil
}

func (s *CSVSource) toRow(record []string) contact.RawRow {
	row := contact.RawRow{Line: s.ordinal}

	if len(record) < len(s.header) {
		row.Malformed = fmt.Sprintf("expected %d columns, got %d", len(s.header), len(record))
		return row
	}
	for _, extra := range record[len(s.header):] {
		if strings.TrimSpace(extra) != "" {
			row.Malformed = fmt.Sprintf("expected %d columns, got %d", len(s.header), len(record))
			return row
		}
	}

	row.Fields = make(map[string]string, len(s.header))
	for i, col := range s.header {
		if col == "" {
			continue
		}
		row.Fields[col] = record[i]
	}
	return row
}

// cleanHeader lowercases a header cell and strips spreadsheet artifacts
// such as surrounding quotes and a leading '='.
func cleanHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "=")
	h = strings.Trim(h, `"'`)
	return strings.ToLower(strings.TrimSpace(h))
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// SliceSource yields pre-built rows. It is used for in-memory imports and
// tests. Err, when set, is returned after all rows instead of io.EOF.
type SliceSource struct {
	Rows []contact.RawRow
	Err  error
	pos  int
}

// Next returns the next row.
func (s *SliceSource) Next() (contact.RawRow, error) {
	if s.pos >= len(s.Rows) {
		if s.Err != nil {
			return contact.RawRow{}, s.Err
		}
		return contact.RawRow{}, io.EOF
	}
	row := s.Rows[s.pos]
	s.pos++
	return row, nil
}

// tapReader keeps the bytes a csv.Reader has pulled but not yet consumed,
// so a record's raw text can be recovered from its input offsets.
type tapReader struct {
	r     io.Reader
	buf   []byte
	start int64 // input offset of buf[0]
}

func (t *tapReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	t.buf = append(t.buf, p[:n]...)
	return n, err
}

// cut returns the bytes in [from, to) and releases everything before to.
// The result stays valid after later reads.
func (t *tapReader) cut(from, to int64) []byte {
	if from < t.start {
		from = t.start
	}
	end := to - t.start
	if end > int64(len(t.buf)) {
		end = int64(len(t.buf))
	}
	if end < 0 {
		return nil
	}
	raw := t.buf[from-t.start : end : end]
	t.buf = t.buf[end:]
	t.start += end
	return raw
}
