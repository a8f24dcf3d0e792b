package ingest

// streaming.go wraps raw CSV bytes before they reach encoding/csv.
//
// Files exported from spreadsheet tools often start with a UTF-8 byte order
// mark and occasionally contain stray Latin-1 bytes. Both are handled on the
// fly so memory stays O(buffer) regardless of file size:
//
//   - bomStripper drops a leading EF BB BF
//   - utf8Sanitizer replaces each invalid byte with '?'
//   - CountingReader tracks bytes consumed for progress logging
//
// PrepareStream applies all three in that order.

import (
	"bufio"
	"bytes"
	"io"
	"sync/atomic"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomStripper skips a UTF-8 BOM at the start of the stream.
type bomStripper struct {
	br      *bufio.Reader
	checked bool
}

func newBOMStripper(r io.Reader) *bomStripper {
	return &bomStripper{br: bufio.NewReader(r)}
}

func (b *bomStripper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.br.Peek(len(utf8BOM))
		if bytes.Equal(head, utf8BOM) {
			b.br.Discard(len(utf8BOM))
		} else if err != nil && err != io.EOF {
			return 0, err
		}
	}
	return b.br.Read(p)
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?'. Valid multi-byte
// sequences split across reads are reassembled by the bufio layer.
type utf8Sanitizer struct {
	br      *bufio.Reader
	pending []byte // encoded rune bytes that did not fit in the last p
	err     error
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{br: bufio.NewReader(r)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]

	var buf [utf8.UTFMax]byte
	for n < len(p) && s.err == nil {
		r, size, err := s.br.ReadRune()
		if err != nil {
			s.err = err
			break
		}

		var enc []byte
		if r == utf8.RuneError && size == 1 {
			enc = []byte{'?'}
		} else {
			enc = buf[:utf8.EncodeRune(buf[:], r)]
		}

		c := copy(p[n:], enc)
		n += c
		if c < len(enc) {
			s.pending = append(s.pending[:0], enc[c:]...)
		}
	}

	if n > 0 {
		return n, nil
	}
	return 0, s.err
}

// CountingReader tracks bytes read. BytesRead is safe to call from another
// goroutine while the stream is being consumed.
type CountingReader struct {
	reader io.Reader
	read   atomic.Int64
	Total  int64 // 0 if unknown
}

// NewCountingReader wraps r. total may be 0 when the size is unknown.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.read.Add(int64(n))
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (c *CountingReader) BytesRead() int64 {
	return c.read.Load()
}

// Percent returns progress 0-100, or 0 when Total is unknown.
func (c *CountingReader) Percent() int {
	if c.Total <= 0 {
		return 0
	}
	p := int(c.BytesRead() * 100 / c.Total)
	if p > 100 {
		p = 100
	}
	return p
}

// PrepareStream strips a BOM, sanitizes UTF-8 and counts bytes.
func PrepareStream(r io.Reader, totalSize int64) *CountingReader {
	return NewCountingReader(newUTF8Sanitizer(newBOMStripper(r)), totalSize)
}
