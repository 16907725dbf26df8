// Package langchain adapts langchaingo models to the provider.Client
// interface. Only chat streaming is offered; the image, audio and model
// listing operations report provider.ErrUnsupported.
package langchain

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tmc/cligpt/internal/retry"
	"github.com/tmc/cligpt/message"
	"github.com/tmc/cligpt/provider"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// Client streams chat completions from a langchaingo model.
type Client struct {
	name   string
	model  llms.Model
	logger *zap.SugaredLogger
	pacer  *retry.Pacer
}

// New wraps model. name identifies the backend in errors and logs.
func New(name string, model llms.Model, logger *zap.SugaredLogger, pacer *retry.Pacer) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{name: name, model: model, logger: logger, pacer: pacer}
}

var _ provider.Client = (*Client)(nil)

// StreamChat starts a completion in the background and returns a Stream fed
// by the model's streaming callback.
func (c *Client) StreamChat(ctx context.Context, req provider.ChatRequest) (provider.Stream, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &stream{
		chunks: make(chan string),
		cancel: cancel,
	}

	callOpts := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			select {
			case s.chunks <- string(chunk):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
	}
	if req.Model != "" {
		callOpts = append(callOpts, llms.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	msgs := toMessageContent(req.Messages)
	c.logger.Debugw("starting completion", "backend", c.name, "model", req.Model, "messages", len(msgs))
	go func() {
		defer close(s.chunks)
		resp, err := c.model.GenerateContent(ctx, msgs, callOpts...)
		if err != nil {
			s.err = fmt.Errorf("%s: %w", c.name, err)
			return
		}
		if resp != nil && len(resp.Choices) > 0 {
			s.finishReason = normalizeStopReason(resp.Choices[0].StopReason)
		}
	}()
	return s, nil
}

func (c *Client) GenerateImage(context.Context, provider.ImageRequest) (provider.Image, error) {
	return provider.Image{}, fmt.Errorf("%s image generation: %w", c.name, provider.ErrUnsupported)
}

func (c *Client) EditImage(context.Context, provider.ImageEditRequest) (provider.Image, error) {
	return provider.Image{}, fmt.Errorf("%s image editing: %w", c.name, provider.ErrUnsupported)
}

func (c *Client) ListModels(context.Context) ([]string, error) {
	return nil, fmt.Errorf("%s model listing: %w", c.name, provider.ErrUnsupported)
}

func (c *Client) Transcribe(context.Context, provider.TranscriptionRequest) (string, error) {
	return "", fmt.Errorf("%s transcription: %w", c.name, provider.ErrUnsupported)
}

// Validate accepts any credential; a rejected one surfaces on the first
// completion instead.
func (c *Client) Validate(context.Context) error { return nil }

type stream struct {
	chunks chan string
	cancel context.CancelFunc

	// Written before chunks is closed.
	err          error
	finishReason string

	once     sync.Once
	finished bool
}

func (s *stream) Recv() (provider.Fragment, error) {
	if s.finished {
		return provider.Fragment{}, io.EOF
	}
	if chunk, ok := <-s.chunks; ok {
		return provider.Fragment{Text: chunk}, nil
	}
	s.finished = true
	if s.err != nil {
		return provider.Fragment{}, s.err
	}
	if s.finishReason != "" {
		return provider.Fragment{FinishReason: s.finishReason}, nil
	}
	return provider.Fragment{}, io.EOF
}

func (s *stream) Close() error {
	s.once.Do(s.cancel)
	return nil
}

func toMessageContent(msgs []message.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		var role llms.ChatMessageType
		switch m.Role() {
		case message.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case message.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, m.Content()))
	}
	return out
}

// normalizeStopReason maps the token limit reasons of the various services
// to provider.FinishReasonLength.
func normalizeStopReason(reason string) string {
	switch strings.ToLower(reason) {
	case "length", "max_tokens", "maxtokens", "finishreasonmaxtokens", "finish_reason_max_tokens":
		return provider.FinishReasonLength
	case "":
		return ""
	}
	return reason
}
