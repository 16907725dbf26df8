// Package interactive implements the chat prompt loop: it reads lines, runs
// the control commands and directives, and hands everything else to the chat
// session as a turn.
package interactive

import (
	"context"
	"errors"

	"github.com/tmc/cligpt/provider"
)

// ErrInterrupted is returned by a LineReader when the user interrupts input.
var ErrInterrupted = errors.New("interrupted")

// ErrLineTooLong is returned by a LineReader for a line it had to discard.
// The next call reads the following line.
var ErrLineTooLong = errors.New("input line too long")

// LineReader reads one line of user input at a time. ReadLine returns io.EOF
// when no more input is available and ErrInterrupted on an interrupt.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// Session runs chat turns.
type Session interface {
	Turn(ctx context.Context, input string) error
}

// ImageClient generates and edits images.
type ImageClient interface {
	GenerateImage(ctx context.Context, req provider.ImageRequest) (provider.Image, error)
	EditImage(ctx context.Context, req provider.ImageEditRequest) (provider.Image, error)
}

// State is the dispatcher state.
type State int

const (
	AwaitingInput State = iota
	CollectingMultilineBlock
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "AwaitingInput"
	case CollectingMultilineBlock:
		return "CollectingMultilineBlock"
	case Terminated:
		return "Terminated"
	}
	return "State(?)"
}

// Config defines parameters for the prompt loop.
type Config struct {
	// WorkingDirectory resolves relative file names in directives. Empty
	// means the process working directory.
	WorkingDirectory string

	ImageModel    string
	ImageSize     string
	ImageStyle    string
	ImageEditSize string

	Prompt      string
	BlockPrompt string
}

// Defaults
var (
	DefaultPrompt      = "> "
	DefaultBlockPrompt = "... "
)

var (
	quitTokens       = []string{"bye", "stop", "quit", "q"}
	blockStartTokens = []string{"s", "start", "start_prompt"}
	blockEndTokens   = []string{"e", "end", "end_prompt"}
	helpTokens       = []string{"help", "?"}
)

const helpText = `Commands:
  bye, stop, quit, q          end the session
  s, start, start_prompt      begin a multi-line prompt
  e, end, end_prompt          send the multi-line prompt
  F <file>                    send the contents of file
  img [standard|hd] <prompt>  generate an image
  imgedit <file> <prompt>     edit an image
  help, ?                     show this help
`
