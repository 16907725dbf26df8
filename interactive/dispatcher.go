package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tmc/cligpt/provider"
	"go.uber.org/zap"
)

// Dispatcher reads user input and routes it to chat turns, directives and
// control commands. It is not safe for concurrent use.
type Dispatcher struct {
	cfg     Config
	session Session
	images  ImageClient
	reader  LineReader

	stdout io.Writer
	stderr io.Writer
	logger *zap.SugaredLogger

	state State
	block strings.Builder
}

type Option func(*Dispatcher)

// WithStdout sets the writer for directive output.
func WithStdout(w io.Writer) Option {
	return func(d *Dispatcher) { d.stdout = w }
}

// WithStderr sets the writer for diagnostics.
func WithStderr(w io.Writer) Option {
	return func(d *Dispatcher) { d.stderr = w }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher returns a Dispatcher in the AwaitingInput state.
func NewDispatcher(cfg Config, session Session, images ImageClient, reader LineReader, opts ...Option) *Dispatcher {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.BlockPrompt == "" {
		cfg.BlockPrompt = DefaultBlockPrompt
	}
	d := &Dispatcher{
		cfg:     cfg,
		session: session,
		images:  images,
		reader:  reader,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		state:   AwaitingInput,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop().Sugar()
	}
	return d
}

// State returns the current state.
func (d *Dispatcher) State() State {
	return d.state
}

// Run sends first, when not empty, as a chat turn and then reads input until
// the user quits or input ends. It returns nil on a normal end of session,
// including end of input, an interrupt and cancellation of ctx.
//
// Errors from the session other than cancellation are returned unchanged, as
// is a *MissingFileError from a directive. The dispatcher is Terminated when
// Run returns.
func (d *Dispatcher) Run(ctx context.Context, first string) error {
	defer d.setState(Terminated)

	if first != "" {
		if err := d.turn(ctx, first); err != nil {
			return d.exit(err)
		}
	}
	for d.state != Terminated {
		if ctx.Err() != nil {
			return nil
		}
		line, err := d.reader.ReadLine(d.prompt())
		if errors.Is(err, ErrLineTooLong) {
			fmt.Fprintf(d.stderr, "Input error: %v, line skipped\n", err)
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrInterrupted) {
				d.logger.Debugw("input ended", "state", d.state, "reason", err)
				return nil
			}
			return err
		}
		if err := d.Handle(ctx, line); err != nil {
			return d.exit(err)
		}
	}
	return nil
}

// Handle processes one line of input in the current state.
func (d *Dispatcher) Handle(ctx context.Context, line string) error {
	if d.state == CollectingMultilineBlock {
		return d.handleBlockLine(ctx, line)
	}

	switch {
	case isToken(line, quitTokens):
		d.setState(Terminated)
		return nil
	case isToken(line, blockStartTokens):
		d.block.Reset()
		d.setState(CollectingMultilineBlock)
		return nil
	case isToken(line, helpTokens):
		fmt.Fprint(d.stdout, helpText)
		return nil
	case strings.TrimSpace(line) == "":
		return nil
	}

	input, err := d.inlineFile(line)
	if err != nil {
		return err
	}
	if img, ok := parseImageDirective(input); ok {
		return d.generateImage(ctx, img)
	}
	if edit, ok := parseImageEditDirective(input); ok {
		return d.editImage(ctx, edit)
	}
	return d.turn(ctx, input)
}

func (d *Dispatcher) handleBlockLine(ctx context.Context, line string) error {
	if isToken(line, blockEndTokens) {
		input := d.block.String()
		d.block.Reset()
		d.setState(AwaitingInput)
		return d.turn(ctx, input)
	}
	resolved, err := d.inlineFile(line)
	if err != nil {
		return err
	}
	d.block.WriteString(resolved)
	d.block.WriteString("\n")
	return nil
}

func (d *Dispatcher) turn(ctx context.Context, input string) error {
	return d.session.Turn(ctx, input)
}

func (d *Dispatcher) generateImage(ctx context.Context, img imageDirective) error {
	if img.prompt == "" {
		fmt.Fprintln(d.stderr, "usage: img [standard|hd] <prompt>")
		return nil
	}
	fmt.Fprintln(d.stdout, "Generating image...")
	res, err := d.images.GenerateImage(ctx, provider.ImageRequest{
		Prompt:  img.prompt,
		Model:   d.cfg.ImageModel,
		Size:    d.cfg.ImageSize,
		Quality: img.quality,
		Style:   d.cfg.ImageStyle,
	})
	if err != nil {
		return d.imageFailed(ctx, "Image generation error", err)
	}
	fmt.Fprintln(d.stdout, res.URL)
	return nil
}

func (d *Dispatcher) editImage(ctx context.Context, edit imageEditDirective) error {
	path := d.resolvePath(edit.file)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &MissingFileError{Path: path, Err: err}
		}
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	fmt.Fprintln(d.stdout, "Generating image edit...")
	res, err := d.images.EditImage(ctx, provider.ImageEditRequest{
		Image:    f,
		Filename: path,
		Prompt:   edit.prompt,
		Size:     d.cfg.ImageEditSize,
	})
	if err != nil {
		return d.imageFailed(ctx, "Image edit error", err)
	}
	fmt.Fprintln(d.stdout, res.URL)
	return nil
}

// imageFailed reports an image API failure and keeps the session going
// unless ctx is done.
func (d *Dispatcher) imageFailed(ctx context.Context, what string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	fmt.Fprintf(d.stderr, "%s: %v\n", what, err)
	return nil
}

// exit maps cancellation to a clean end of session.
func (d *Dispatcher) exit(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (d *Dispatcher) prompt() string {
	if d.state == CollectingMultilineBlock {
		return d.cfg.BlockPrompt
	}
	return d.cfg.Prompt
}

func (d *Dispatcher) setState(s State) {
	if d.state != s {
		d.logger.Debugw("state change", "from", d.state, "to", s)
	}
	d.state = s
}
