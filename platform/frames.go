package platform

import (
	"bytes"
	"io"
)

// lineReader reassembles newline-delimited text lines from arbitrarily
// chunked reads. Lines are emitted in the exact order bytes were received,
// split only at terminator boundaries. A trailing partial line without a
// terminator is emitted as a final complete line at EOF.
//
// Unlike bufio.Scanner, lineReader surfaces each underlying read through
// onChunk, which the stream layer uses to reset its idle timer.
type lineReader struct {
	r       io.Reader
	buf     []byte
	pending []byte
	eof     bool
	onChunk func()
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: r, buf: make([]byte, 4096)}
}

// ReadLine returns the next complete line without its terminator. CR before
// LF is stripped. Returns io.EOF once all lines are consumed.
func (lr *lineReader) ReadLine() (string, error) {
	for {
		if i := bytes.IndexByte(lr.pending, '\n'); i >= 0 {
			line := trimCR(lr.pending[:i])
			lr.pending = lr.pending[i+1:]
			return string(line), nil
		}

		if lr.eof {
			if len(lr.pending) > 0 {
				line := trimCR(lr.pending)
				lr.pending = nil
				return string(line), nil
			}
			return "", io.EOF
		}

		n, err := lr.r.Read(lr.buf)
		if n > 0 {
			lr.pending = append(lr.pending, lr.buf[:n]...)
			if lr.onChunk != nil {
				lr.onChunk()
			}
		}
		switch {
		case err == io.EOF:
			lr.eof = true
		case err != nil:
			return "", err
		}
	}
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}
