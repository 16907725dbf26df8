// Package dummy provides an offline backend for tests and demos. Chat goes
// through a deterministic llms.Model; images, transcripts and the model list
// are canned.
package dummy

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tmc/cligpt/backends/langchain"
	"github.com/tmc/cligpt/backends/registry"
	"github.com/tmc/cligpt/options"
	"github.com/tmc/cligpt/provider"
	"go.uber.org/zap"
)

func init() {
	registry.Register("dummy", Constructor)
}

// Models is the canned model list.
var Models = []string{
	"babbage-002",
	"chatgpt-4o-latest",
	"dall-e-3",
	"dummy",
	"gpt-4o",
	"gpt-4o-mini",
	"o1-mini",
	"o3-mini",
	"tts-1",
	"whisper-1",
}

// Backend is the dummy provider.Client.
type Backend struct {
	*langchain.Client
	Model *Model
}

// Constructor creates a new dummy backend
func Constructor(cfg *options.Config, opts *options.InferenceProviderOptions) (provider.Client, error) {
	return New(opts), nil
}

// New returns a Backend streaming DefaultText.
func New(opts *options.InferenceProviderOptions) *Backend {
	var logger *zap.SugaredLogger
	if opts != nil {
		logger = opts.Logger
	}
	m := NewModel()
	return &Backend{Client: langchain.New("dummy", m, logger, nil), Model: m}
}

func (b *Backend) GenerateImage(_ context.Context, req provider.ImageRequest) (provider.Image, error) {
	return provider.Image{URL: "https://dummy.invalid/images/" + slug(req.Prompt) + ".png"}, nil
}

func (b *Backend) EditImage(_ context.Context, req provider.ImageEditRequest) (provider.Image, error) {
	n, err := io.Copy(io.Discard, req.Image)
	if err != nil {
		return provider.Image{}, err
	}
	return provider.Image{URL: fmt.Sprintf("https://dummy.invalid/edits/%s-%d.png", slug(req.Prompt), n)}, nil
}

func (b *Backend) ListModels(context.Context) ([]string, error) {
	return append([]string(nil), Models...), nil
}

func (b *Backend) Transcribe(_ context.Context, req provider.TranscriptionRequest) (string, error) {
	return "dummy transcript of " + filepath.Base(req.Path), nil
}

func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
