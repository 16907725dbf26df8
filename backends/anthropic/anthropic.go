// Package anthropic provides the Anthropic backend implementation
package anthropic

import (
	"github.com/tmc/cligpt/backends/langchain"
	"github.com/tmc/cligpt/backends/registry"
	"github.com/tmc/cligpt/internal/retry"
	"github.com/tmc/cligpt/options"
	"github.com/tmc/cligpt/provider"
	"github.com/tmc/langchaingo/llms/anthropic"
)

func init() {
	registry.Register("anthropic", Constructor)
}

// Constructor creates a new Anthropic backend
func Constructor(cfg *options.Config, opts *options.InferenceProviderOptions) (provider.Client, error) {
	apiKey := cfg.AnthropicAPIKey
	if apiKey == "" && opts.EnvLookupFunc != nil {
		apiKey = opts.EnvLookupFunc("ANTHROPIC_API_KEY")
	}

	anthropicOpts := []anthropic.Option{
		anthropic.WithToken(apiKey),
		anthropic.WithModel(cfg.Model),
	}
	if opts.HTTPClient != nil {
		anthropicOpts = append(anthropicOpts, anthropic.WithHTTPClient(opts.HTTPClient))
	}
	if opts.BaseURL != "" {
		anthropicOpts = append(anthropicOpts, anthropic.WithBaseURL(opts.BaseURL))
	}
	model, err := anthropic.New(anthropicOpts...)
	if err != nil {
		return nil, err
	}
	return langchain.New("anthropic", model, opts.Logger, retry.NewPacer(cfg.RequestsPerSecond)), nil
}
