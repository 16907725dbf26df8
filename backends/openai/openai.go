// Package openai provides the OpenAI backend implementation. It is the only
// backend offering image generation, image edits, transcription and model
// listing.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/tmc/cligpt/backends/registry"
	"github.com/tmc/cligpt/internal/retry"
	"github.com/tmc/cligpt/options"
	"github.com/tmc/cligpt/provider"
	"go.uber.org/zap"
)

func init() {
	registry.Register("openai", Constructor)
}

// Constructor creates a new OpenAI backend
func Constructor(cfg *options.Config, opts *options.InferenceProviderOptions) (provider.Client, error) {
	apiKey := cfg.OpenAIAPIKey
	if apiKey == "" && opts.EnvLookupFunc != nil {
		apiKey = opts.EnvLookupFunc("OPENAI_API_KEY")
	}

	conf := goopenai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		conf.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		conf.HTTPClient = opts.HTTPClient
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	rc := retry.DefaultConfig
	rc.Retryable = isRetryable
	return &Client{
		client: goopenai.NewClientWithConfig(conf),
		logger: logger,
		retry:  rc,
		pacer:  retry.NewPacer(cfg.RequestsPerSecond),
	}, nil
}

// Client talks to the OpenAI API.
type Client struct {
	client *goopenai.Client
	logger *zap.SugaredLogger
	retry  retry.Config
	pacer  *retry.Pacer
}

var _ provider.Client = (*Client)(nil)

func (c *Client) StreamChat(ctx context.Context, req provider.ChatRequest) (provider.Stream, error) {
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    string(m.Role()),
			Content: m.Content(),
		})
	}
	creq := goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	}

	c.logger.Debugw("opening chat stream", "model", req.Model, "messages", len(msgs))
	s, err := retry.Do(ctx, c.retry, func(ctx context.Context) (*goopenai.ChatCompletionStream, error) {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		return c.client.CreateChatCompletionStream(ctx, creq)
	})
	if err != nil {
		return nil, c.wrap(err)
	}
	return &stream{s: s}, nil
}

func (c *Client) GenerateImage(ctx context.Context, req provider.ImageRequest) (provider.Image, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return provider.Image{}, err
	}
	resp, err := c.client.CreateImage(ctx, goopenai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          req.Model,
		N:              1,
		Size:           req.Size,
		Quality:        req.Quality,
		Style:          req.Style,
		ResponseFormat: goopenai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return provider.Image{}, c.wrap(err)
	}
	return firstImage(resp)
}

func (c *Client) EditImage(ctx context.Context, req provider.ImageEditRequest) (provider.Image, error) {
	f, cleanup, err := asFile(req.Image, req.Filename)
	if err != nil {
		return provider.Image{}, err
	}
	defer cleanup()

	if err := c.pacer.Wait(ctx); err != nil {
		return provider.Image{}, err
	}
	resp, err := c.client.CreateEditImage(ctx, goopenai.ImageEditRequest{
		Image:          f,
		Prompt:         req.Prompt,
		N:              1,
		Size:           req.Size,
		ResponseFormat: goopenai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return provider.Image{}, c.wrap(err)
	}
	return firstImage(resp)
}

func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	list, err := retry.Do(ctx, c.retry, func(ctx context.Context) (goopenai.ModelsList, error) {
		if err := c.pacer.Wait(ctx); err != nil {
			return goopenai.ModelsList{}, err
		}
		return c.client.ListModels(ctx)
	})
	if err != nil {
		return nil, c.wrap(err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (c *Client) Transcribe(ctx context.Context, req provider.TranscriptionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = goopenai.Whisper1
	}
	if err := c.pacer.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := c.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    model,
		FilePath: req.Path,
		Language: req.Language,
	})
	if err != nil {
		return "", c.wrap(err)
	}
	return resp.Text, nil
}

// Validate lists the models, which fails with 401 for a bad key.
func (c *Client) Validate(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}

// wrap turns authentication failures into *provider.CredentialError.
func (c *Client) wrap(err error) error {
	if statusCode(err) == http.StatusUnauthorized {
		return &provider.CredentialError{Backend: "openai", Err: err}
	}
	return fmt.Errorf("openai: %w", err)
}

func statusCode(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// isRetryable retries rate limits and server errors only.
func isRetryable(err error) bool {
	code := statusCode(err)
	return code == http.StatusTooManyRequests || code >= 500
}

func firstImage(resp goopenai.ImageResponse) (provider.Image, error) {
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return provider.Image{}, errors.New("openai: response contained no image")
	}
	return provider.Image{URL: resp.Data[0].URL}, nil
}

// asFile returns r as an *os.File, spooling it to a temporary file when it is
// not one already. The multipart upload takes its name from the file.
func asFile(r io.Reader, name string) (*os.File, func(), error) {
	if f, ok := r.(*os.File); ok {
		return f, func() {}, nil
	}
	if name == "" {
		name = "image.png"
	}
	dir, err := os.MkdirTemp("", "cligpt-edit-")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }
	f, err := os.Create(filepath.Join(dir, filepath.Base(name)))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		cleanup()
		return nil, nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		cleanup()
		return nil, nil, err
	}
	return f, func() { f.Close(); cleanup() }, nil
}

type stream struct {
	s *goopenai.ChatCompletionStream
}

func (s *stream) Recv() (provider.Fragment, error) {
	for {
		resp, err := s.s.Recv()
		if err != nil {
			return provider.Fragment{}, err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]
		return provider.Fragment{
			Text:         choice.Delta.Content,
			FinishReason: string(choice.FinishReason),
		}, nil
	}
}

func (s *stream) Close() error {
	return s.s.Close()
}
