package interactive

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// maxLineSize bounds a single line read by ScannerReader.
const maxLineSize = 1 << 20

// ScannerReader reads lines from a non-interactive source such as a pipe. It
// prints no prompts. A line longer than maxLineSize is discarded and reported
// as ErrLineTooLong; reading continues with the next line.
type ScannerReader struct {
	r   *bufio.Reader
	c   io.Closer
	max int
}

var _ LineReader = (*ScannerReader)(nil)

// NewScannerReader reads lines from r. Close closes r when it is an
// io.Closer.
func NewScannerReader(r io.Reader) *ScannerReader {
	c, _ := r.(io.Closer)
	return &ScannerReader{r: bufio.NewReader(r), c: c, max: maxLineSize}
}

func (r *ScannerReader) ReadLine(string) (string, error) {
	var (
		line    []byte
		tooLong bool
	)
	for {
		chunk, err := r.r.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if len(line) > r.max+2 {
				tooLong, line = true, nil
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && (!errors.Is(err, io.EOF) || (len(line) == 0 && !tooLong)) {
			return "", err
		}
		break
	}
	s := strings.TrimSuffix(string(line), "\n")
	s = strings.TrimSuffix(s, "\r")
	if tooLong || len(s) > r.max {
		return "", ErrLineTooLong
	}
	return s, nil
}

func (r *ScannerReader) Close() error {
	if r.c == nil {
		return nil
	}
	return r.c.Close()
}
