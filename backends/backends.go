// Package backends provides a unified interface to the completion backends
package backends

import (
	"net/http"

	"github.com/tmc/cligpt/backends/registry"
	"github.com/tmc/cligpt/options"
	"github.com/tmc/cligpt/provider"
	"go.uber.org/zap"

	// Register all backends
	_ "github.com/tmc/cligpt/backends/anthropic"
	_ "github.com/tmc/cligpt/backends/dummy"
	_ "github.com/tmc/cligpt/backends/googleai"
	_ "github.com/tmc/cligpt/backends/ollama"
	_ "github.com/tmc/cligpt/backends/openai"
)

type InferenceProviderOption = options.InferenceProviderOption

// InitializeClient initializes the client based on the given configuration
func InitializeClient(cfg *options.Config, providerOpts ...options.InferenceProviderOption) (provider.Client, error) {
	return registry.InitializeClient(cfg, providerOpts...)
}

// Names lists the available backends.
func Names() []string {
	return registry.Names()
}

// WithHTTPClient returns an option to set the HTTP client for the inference provider
func WithHTTPClient(client *http.Client) options.InferenceProviderOption {
	return registry.WithHTTPClient(client)
}

// WithBaseURL returns an option to override the service endpoint
func WithBaseURL(url string) options.InferenceProviderOption {
	return registry.WithBaseURL(url)
}

// WithLogger returns an option to set the backend logger
func WithLogger(logger *zap.SugaredLogger) options.InferenceProviderOption {
	return registry.WithLogger(logger)
}
