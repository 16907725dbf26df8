package dummy

import (
	"context"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// Model is a deterministic llms.Model that streams a fixed text word by word.
type Model struct {
	GenerateText func() string
	// Delay is slept between streamed words.
	Delay time.Duration
}

// NewModel creates a Model with the default text and no delay.
func NewModel() *Model {
	return &Model{
		GenerateText: func() string { return DefaultText },
	}
}

// DefaultText is the response of a default Model.
var DefaultText = `This is a dummy backend response. The quick brown fox jumps over the lazy dog.`

// Call implements the llms.Model interface
func (d *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, d, prompt, options...)
}

// GenerateContent implements the llms.Model interface. With a positive
// MaxTokens, output stops after that many words with a "length" stop reason.
func (d *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	words := strings.Fields(d.GenerateText())
	stopReason := "stop"
	if opts.MaxTokens > 0 && len(words) > opts.MaxTokens {
		words = words[:opts.MaxTokens]
		stopReason = "length"
	}
	text := strings.Join(words, " ")
	response := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:    text,
			StopReason: stopReason,
		}},
	}
	if opts.StreamingFunc == nil {
		return response, nil
	}

	for i, word := range words {
		if i < len(words)-1 {
			word += " "
		}
		if err := opts.StreamingFunc(ctx, []byte(word)); err != nil {
			return response, err
		}
		if d.Delay > 0 {
			select {
			case <-ctx.Done():
				return response, ctx.Err()
			case <-time.After(d.Delay):
			}
		}
	}
	return response, nil
}
