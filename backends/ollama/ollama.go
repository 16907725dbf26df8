// Package ollama provides the Ollama backend implementation
package ollama

import (
	"net/url"

	"github.com/tmc/cligpt/backends/langchain"
	"github.com/tmc/cligpt/backends/registry"
	"github.com/tmc/cligpt/internal/retry"
	"github.com/tmc/cligpt/options"
	"github.com/tmc/cligpt/provider"
	"github.com/tmc/langchaingo/llms/ollama"
)

func init() {
	registry.Register("ollama", Constructor)
}

// Constructor creates a new Ollama backend
func Constructor(cfg *options.Config, opts *options.InferenceProviderOptions) (provider.Client, error) {
	ollamaOpts := []ollama.Option{
		ollama.WithModel(cfg.Model),
	}
	if opts.HTTPClient != nil {
		ollamaOpts = append(ollamaOpts, ollama.WithHTTPClient(opts.HTTPClient))
	}
	if opts.BaseURL != "" {
		if _, err := url.Parse(opts.BaseURL); err != nil {
			return nil, err
		}
		ollamaOpts = append(ollamaOpts, ollama.WithServerURL(opts.BaseURL))
	}
	model, err := ollama.New(ollamaOpts...)
	if err != nil {
		return nil, err
	}
	return langchain.New("ollama", model, opts.Logger, retry.NewPacer(cfg.RequestsPerSecond)), nil
}
