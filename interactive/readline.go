package interactive

import (
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

// ReadlineReader reads lines from a terminal using chzyer/readline. History is
// kept in memory for the session only.
type ReadlineReader struct {
	rl *readline.Instance
}

var _ LineReader = (*ReadlineReader)(nil)

// NewReadlineReader creates a reader on stdin, echoing to stdout.
func NewReadlineReader(stdin io.ReadCloser, stdout, stderr io.Writer) (*ReadlineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            DefaultPrompt,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             stdin,
		Stdout:            stdout,
		Stderr:            stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return &ReadlineReader{rl: rl}, nil
}

func (r *ReadlineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}
	return line, err
}

func (r *ReadlineReader) Close() error {
	return r.rl.Close()
}
