// Package googleai provides the Google AI backend implementation
package googleai

import (
	"context"

	"github.com/tmc/cligpt/backends/langchain"
	"github.com/tmc/cligpt/backends/registry"
	"github.com/tmc/cligpt/internal/retry"
	"github.com/tmc/cligpt/options"
	"github.com/tmc/cligpt/provider"
	"github.com/tmc/langchaingo/llms/googleai"
)

func init() {
	registry.Register("googleai", Constructor)
}

// Constructor creates a new GoogleAI backend
func Constructor(cfg *options.Config, opts *options.InferenceProviderOptions) (provider.Client, error) {
	apiKey := cfg.GoogleAPIKey
	if apiKey == "" && opts.EnvLookupFunc != nil {
		apiKey = opts.EnvLookupFunc("GOOGLE_API_KEY")
	}

	googleOpts := []googleai.Option{
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(cfg.Model),
	}
	if opts.HTTPClient != nil {
		googleOpts = append(googleOpts, googleai.WithHTTPClient(opts.HTTPClient))
	}

	model, err := googleai.New(context.Background(), googleOpts...)
	if err != nil {
		return nil, err
	}
	return langchain.New("googleai", model, opts.Logger, retry.NewPacer(cfg.RequestsPerSecond)), nil
}
