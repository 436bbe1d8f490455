package protocol

import (
	"bufio"
	"errors"
	"io"
	"unicode/utf8"
)

// DefaultMaxLineLength mirrors a 1 KiB receive buffer less its terminator.
const DefaultMaxLineLength = 1023

// LineReader reads newline-delimited lines of bounded length. A line longer
// than the limit is cut at the limit and the rest of it, up to the next
// newline, is discarded. Lines are never reassembled beyond the limit.
type LineReader struct {
	r     *bufio.Reader
	limit int
}

// NewLineReader wraps r. A non-positive limit selects DefaultMaxLineLength.
func NewLineReader(r io.Reader, limit int) *LineReader {
	if limit <= 0 {
		limit = DefaultMaxLineLength
	}
	size := limit + 1
	if size < 16 {
		size = 16
	}
	return &LineReader{r: bufio.NewReaderSize(r, size), limit: limit}
}

// ReadLine returns the next line without its "\n" or "\r\n" terminator. A
// final line that ends at EOF without a newline is still returned; the
// following call reports the error.
func (l *LineReader) ReadLine() (string, error) {
	var (
		line      []byte
		truncated bool
	)
	for {
		chunk, err := l.r.ReadSlice('\n')
		if err == nil {
			chunk = chunk[:len(chunk)-1]
		}
		if !truncated {
			if room := l.limit - len(line); len(chunk) > room {
				chunk = chunk[:room]
				truncated = true
			}
			line = append(line, chunk...)
		}

		switch {
		case err == nil:
			return finishLine(line, truncated), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case len(line) > 0 && errors.Is(err, io.EOF):
			return finishLine(line, truncated), nil
		default:
			return "", err
		}
	}
}

func finishLine(line []byte, truncated bool) string {
	if truncated {
		line = trimPartialRune(line)
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return string(line)
}

// trimPartialRune drops an incomplete UTF-8 sequence left at the end of b by
// truncation.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			break
		}
	}
	return b
}
