// Package registry provides a registry for completion backends
package registry

import (
	"fmt"
	"net/http"
	"os"
	"sort"

	"github.com/tmc/cligpt/options"
	"github.com/tmc/cligpt/provider"
	"go.uber.org/zap"
)

// BackendConstructor is a function that creates a new client instance
type BackendConstructor func(*options.Config, *options.InferenceProviderOptions) (provider.Client, error)

// Registry holds all the registered backend constructors
var registry = map[string]BackendConstructor{}

// Register registers a new backend constructor
func Register(name string, constructor BackendConstructor) {
	registry[name] = constructor
}

// Get returns a backend constructor by name
func Get(name string) (BackendConstructor, bool) {
	constructor, ok := registry[name]
	return constructor, ok
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithHTTPClient returns an option to set the HTTP client for the inference provider
func WithHTTPClient(client *http.Client) options.InferenceProviderOption {
	return func(opts *options.InferenceProviderOptions) {
		opts.HTTPClient = client
	}
}

// WithBaseURL returns an option to override the service endpoint
func WithBaseURL(url string) options.InferenceProviderOption {
	return func(opts *options.InferenceProviderOptions) {
		opts.BaseURL = url
	}
}

// WithLogger returns an option to set the backend logger
func WithLogger(logger *zap.SugaredLogger) options.InferenceProviderOption {
	return func(opts *options.InferenceProviderOptions) {
		opts.Logger = logger
	}
}

// WithEnvLookupFunc returns an option to resolve credentials from somewhere
// other than the process environment
func WithEnvLookupFunc(fn func(string) string) options.InferenceProviderOption {
	return func(opts *options.InferenceProviderOptions) {
		opts.EnvLookupFunc = fn
	}
}

// InitializeClient initializes the client based on the given configuration
func InitializeClient(cfg *options.Config, providerOpts ...options.InferenceProviderOption) (provider.Client, error) {
	opts := &options.InferenceProviderOptions{
		EnvLookupFunc: os.Getenv,
		Logger:        zap.NewNop().Sugar(),
	}
	for _, option := range providerOpts {
		option(opts)
	}

	constructor, ok := registry[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
	return constructor(cfg, opts)
}
