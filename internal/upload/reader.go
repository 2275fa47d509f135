package upload

// reader.go cleans CSV input before it reaches encoding/csv:
//
//   - a leading UTF-8 BOM, as written by spreadsheet exports, is dropped
//   - invalid UTF-8 bytes are replaced with '?'
//   - input past the size limit fails with ErrTooLarge
//
// The wrappers stream; memory use is bounded by the csv reader's buffer.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewReader wraps r with BOM removal, UTF-8 sanitizing and, when maxBytes
// is positive, a size limit.
func NewReader(r io.Reader, maxBytes int64) io.Reader {
	if maxBytes > 0 {
		r = &limitReader{r: r, left: maxBytes, max: maxBytes}
	}
	return &sanitizer{r: skipBOM(r)}
}

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// limitReader is io.LimitReader that reports overflow instead of EOF.
type limitReader struct {
	r    io.Reader
	left int64
	max  int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.left <= 0 {
		// One more byte tells a file of exactly max bytes from a larger one.
		var extra [1]byte
		if n, _ := l.r.Read(extra[:]); n > 0 {
			return 0, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, l.max)
		}
		return 0, io.EOF
	}
	if int64(len(p)) > l.left {
		p = p[:l.left]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	return n, err
}

// sanitizer replaces invalid UTF-8 bytes with '?'. A multi-byte sequence
// split across reads is held back until the next read completes it.
type sanitizer struct {
	r       io.Reader
	pending []byte
	err     error
}

func (s *sanitizer) Read(p []byte) (int, error) {
	if len(p) < utf8.UTFMax {
		return 0, io.ErrShortBuffer
	}
	if s.err != nil && len(s.pending) == 0 {
		return 0, s.err
	}

	n := copy(p, s.pending)
	s.pending = s.pending[:0]
	if s.err == nil {
		var m int
		m, s.err = s.r.Read(p[n:])
		n += m
	}
	atEOF := s.err != nil

	buf := p[:n]
	w := 0
	for i := 0; i < len(buf); {
		if buf[i] < utf8.RuneSelf {
			buf[w] = buf[i]
			w++
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(buf[i:]) {
			s.pending = append(s.pending, buf[i:]...)
			break
		}
		r, size := utf8.DecodeRune(buf[i:])
		if r == utf8.RuneError && size == 1 {
			buf[w] = '?'
			w++
			i++
			continue
		}
		copy(buf[w:], buf[i:i+size])
		w += size
		i += size
	}

	if w == 0 && len(s.pending) == 0 {
		return 0, s.err
	}
	if len(s.pending) > 0 {
		return w, nil
	}
	return w, s.err
}
