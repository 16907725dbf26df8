// Package completion runs chat turns: it keeps the session transcript, sends
// it with every request and renders the streamed reply.
package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tmc/cligpt/message"
	"github.com/tmc/cligpt/provider"
	"go.uber.org/zap"
)

// ErrMaxTokens is returned by Turn when the reply was cut short by the token
// limit. The reply is not added to the transcript.
var ErrMaxTokens = errors.New("maximum number of tokens exceeded")

// Service is the main entry point for the completion service.
type Service struct {
	cfg    *Config
	client provider.Client
	logger *zap.SugaredLogger
	opts   *Options

	transcript *message.Transcript
	style      lipgloss.Style
}

// Config holds the static configuration for the Service.
type Config struct {
	Model string
	// Temperature controls randomness in generation.
	Temperature float64
	// MaxTokens of zero leaves the limit to the service.
	MaxTokens int
	// SystemPrompt, when set, is the first message of the transcript.
	SystemPrompt string
	// Color is the assistant color, see ParseColor.
	Color string
}

// Options is the configuration for the Service.
type Options struct {
	// Stdout is the writer for standard output. If nil, os.Stdout will be used.
	Stdout io.Writer
	// Stderr is the writer for standard error. If nil, os.Stderr will be used.
	Stderr io.Writer

	// ShowSpinner shows a spinner on Stderr until the first fragment
	// arrives. It only takes effect when Stderr is a terminal.
	ShowSpinner bool
}

type ServiceOption func(*Service)

// WithStdout sets the stdout writer
func WithStdout(w io.Writer) ServiceOption {
	return func(s *Service) {
		s.opts.Stdout = w
	}
}

// WithStderr sets the stderr writer
func WithStderr(w io.Writer) ServiceOption {
	return func(s *Service) {
		s.opts.Stderr = w
	}
}

// WithLogger sets the logger for the completion service.
func WithLogger(l *zap.SugaredLogger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithShowSpinner enables the waiting spinner.
func WithShowSpinner(show bool) ServiceOption {
	return func(s *Service) {
		s.opts.ShowSpinner = show
	}
}

// New creates a new Service with the given configuration.
func New(cfg *Config, client provider.Client, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}
	s := &Service{
		cfg:        cfg,
		client:     client,
		opts:       &Options{Stdout: os.Stdout, Stderr: os.Stderr},
		transcript: message.NewTranscript(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop().Sugar()
	}

	color, ok := ParseColor(cfg.Color)
	if !ok {
		s.logger.Warnf("unknown assistant color %q, using the terminal default", cfg.Color)
	}
	s.style = lipgloss.NewRenderer(s.opts.Stdout).NewStyle().
		Foreground(color).
		TabWidth(lipgloss.NoTabConversion)

	if cfg.SystemPrompt != "" {
		s.transcript.Append(message.System(cfg.SystemPrompt))
	}
	return s, nil
}

// Transcript returns the session transcript.
func (s *Service) Transcript() *message.Transcript {
	return s.transcript
}

// Turn sends input as a user message and appends the streamed reply.
//
// Transport errors are reported on Stderr and the partial reply is kept. The
// returned error is ErrMaxTokens on truncation, or the context error when ctx
// is done.
func (s *Service) Turn(ctx context.Context, input string) error {
	s.transcript.Append(message.User(input))

	stopSpinner := s.spin()
	stream, err := s.client.StreamChat(ctx, provider.ChatRequest{
		Model:       s.cfg.Model,
		Messages:    s.transcript.Payload(),
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		stopSpinner()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		stream = provider.SliceStream(err)
	}
	defer stream.Close()

	reply, err := s.accumulate(ctx, stream, stopSpinner)
	if err != nil {
		return err
	}
	s.transcript.Append(reply)
	return nil
}

// Accumulate drains stream, rendering each fragment as it arrives, and returns
// the reply as an assistant message.
func (s *Service) Accumulate(ctx context.Context, stream provider.Stream) (message.Message, error) {
	return s.accumulate(ctx, stream, nil)
}

func (s *Service) accumulate(ctx context.Context, stream provider.Stream, onFirst func()) (message.Message, error) {
	var (
		content   strings.Builder
		truncated bool
		fragments int
	)
	fmt.Fprint(s.opts.Stdout, "\n")
	for {
		f, err := stream.Recv()
		if onFirst != nil {
			onFirst()
			onFirst = nil
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				fmt.Fprint(s.opts.Stdout, "\n\n")
				return message.Message{}, ctxErr
			}
			fmt.Fprintf(s.opts.Stderr, "Response (streaming) error: %v\n", err)
			break
		}
		fragments++
		if f.FinishReason == provider.FinishReasonLength {
			truncated = true
			continue
		}
		if f.Text != "" {
			content.WriteString(f.Text)
			s.render(f.Text)
		}
	}
	fmt.Fprint(s.opts.Stdout, "\n\n")
	s.logger.Debugw("stream drained", "fragments", fragments, "bytes", content.Len(), "truncated", truncated)

	if truncated {
		fmt.Fprintln(s.opts.Stdout, "Maximum number of tokens exceeded.")
		return message.Message{}, ErrMaxTokens
	}
	return message.Assistant(content.String()), nil
}

// render writes text in the assistant color. Lines are styled one at a time
// so that the renderer never pads them to a common width.
func (s *Service) render(text string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			io.WriteString(s.opts.Stdout, "\n")
		}
		if line != "" {
			io.WriteString(s.opts.Stdout, s.style.Render(line))
		}
	}
}

func (s *Service) spin() func() {
	if !s.opts.ShowSpinner || !isTerminal(s.opts.Stderr) {
		return func() {}
	}
	return spin(0, s.opts.Stderr)
}
