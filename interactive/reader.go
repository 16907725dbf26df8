package interactive

import (
	"io"
	"os"

	"golang.org/x/term"
)

// NewLineReader picks the reader for stdin: a ScannerReader when stdin is not
// a terminal, a TeaReader when useTUI is set, and a ReadlineReader otherwise.
func NewLineReader(stdin io.Reader, stdout, stderr io.Writer, useTUI bool) (LineReader, error) {
	f, ok := stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return NewScannerReader(stdin), nil
	}
	if useTUI {
		return NewTeaReader(f, stdout), nil
	}
	return NewReadlineReader(f, stdout, stderr)
}
