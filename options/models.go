package options

import (
	"net/http"

	"go.uber.org/zap"
)

// InferenceProviderOptions contains options for backend initialization.
type InferenceProviderOptions struct {
	// HTTPClient is the HTTP client to use for the backend.
	HTTPClient *http.Client

	// BaseURL overrides the service endpoint (proxies, tests).
	BaseURL string

	// Logger receives backend diagnostics.
	Logger *zap.SugaredLogger

	// EnvLookupFunc resolves credentials missing from the settings file.
	EnvLookupFunc func(string) string
}

// InferenceProviderOption is a function that modifies the backend options.
type InferenceProviderOption func(*InferenceProviderOptions)
