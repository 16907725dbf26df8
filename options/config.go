// Package options provides configuration management for the cligpt CLI.
package options

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings keys. The settings file is a flat INI file with a single
// [settings] section; keys are case-insensitive.
const (
	KeyBackend           = "settings.backend"
	KeyModel             = "settings.openai_model"
	KeyTemperature       = "settings.openai_temperature"
	KeyColor             = "settings.assistant_color"
	KeySystemPrompt      = "settings.system_prompt"
	KeyMaxTokens         = "settings.max_tokens"
	KeyWorkingDirectory  = "settings.working_directory"
	KeyImageModel        = "settings.image_model"
	KeyImageSize         = "settings.image_size"
	KeyImageStyle        = "settings.image_style"
	KeyImageEditSize     = "settings.image_edit_size"
	KeyRequestsPerSecond = "settings.requests_per_second"
	KeyOpenAIAPIKey      = "settings.openai_api_key"
	KeyAnthropicAPIKey   = "settings.anthropic_api_key"
	KeyGoogleAPIKey      = "settings.google_api_key"
)

// DefaultBackend is the default backend to use if none is specified.
var DefaultBackend = "openai" // Configurable via CLIGPT_BACKEND (or the settings file).

// DefaultModels is a map of backend names to their default models.
var DefaultModels = map[string]string{
	"openai":    "gpt-4o",
	"anthropic": "claude-3-7-sonnet-20250219",
	"ollama":    "llama3.2",
	"googleai":  "gemini-pro",
	"dummy":     "dummy",
}

// credentialKeys maps the backends that need a credential to its settings key.
var credentialKeys = map[string]string{
	"openai":    KeyOpenAIAPIKey,
	"anthropic": KeyAnthropicAPIKey,
	"googleai":  KeyGoogleAPIKey,
}

// flagKeys binds command line flags to settings keys.
var flagKeys = map[string]string{
	"backend":           KeyBackend,
	"model":             KeyModel,
	"temperature":       KeyTemperature,
	"color":             KeyColor,
	"system-prompt":     KeySystemPrompt,
	"max-tokens":        KeyMaxTokens,
	"working-directory": KeyWorkingDirectory,
}

// Config holds the configuration for the cligpt CLI.
type Config struct {
	Backend          string  `yaml:"backend"`
	Model            string  `yaml:"model"`
	Temperature      float64 `yaml:"temperature"`
	Color            string  `yaml:"color"`
	SystemPrompt     string  `yaml:"systemPrompt"`
	MaxTokens        int     `yaml:"maxTokens"`
	WorkingDirectory string  `yaml:"workingDirectory"`

	ImageModel    string `yaml:"imageModel"`
	ImageSize     string `yaml:"imageSize"`
	ImageStyle    string `yaml:"imageStyle"`
	ImageEditSize string `yaml:"imageEditSize"`

	// RequestsPerSecond paces remote calls; zero disables pacing.
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`

	OpenAIAPIKey    string `yaml:"openaiAPIKey"`
	AnthropicAPIKey string `yaml:"anthropicAPIKey"`
	GoogleAPIKey    string `yaml:"googleAPIKey"`

	// Path is the settings file in use. Persist writes here.
	Path string `yaml:"-"`
}

// LoadConfig loads the configuration from various sources in the following order of precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Settings file
// 4. Default values (lowest priority)
//
// When no settings file exists one is created with the defaults, at the
// --config path if given and at $HOME/.cligpt/config.ini otherwise.
func LoadConfig(stderr io.Writer, flagSet *pflag.FlagSet) (*Config, error) {
	if flagSet == nil {
		flagSet = pflag.CommandLine
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	v := viper.New()
	SetupViper(v)

	path, err := HandleConfigFile(v, stderr, flagSet)
	if err != nil {
		return nil, err
	}

	for name, key := range flagKeys {
		if f := flagSet.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("unable to bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{
		Backend:           v.GetString(KeyBackend),
		Model:             v.GetString(KeyModel),
		Temperature:       v.GetFloat64(KeyTemperature),
		Color:             v.GetString(KeyColor),
		SystemPrompt:      v.GetString(KeySystemPrompt),
		MaxTokens:         v.GetInt(KeyMaxTokens),
		WorkingDirectory:  v.GetString(KeyWorkingDirectory),
		ImageModel:        v.GetString(KeyImageModel),
		ImageSize:         v.GetString(KeyImageSize),
		ImageStyle:        v.GetString(KeyImageStyle),
		ImageEditSize:     v.GetString(KeyImageEditSize),
		RequestsPerSecond: v.GetFloat64(KeyRequestsPerSecond),
		OpenAIAPIKey:      v.GetString(KeyOpenAIAPIKey),
		AnthropicAPIKey:   v.GetString(KeyAnthropicAPIKey),
		GoogleAPIKey:      v.GetString(KeyGoogleAPIKey),
		Path:              path,
	}

	verbose, _ := flagSet.GetBool("verbose")
	if verbose {
		fmt.Fprintf(stderr, "cligpt: backend is %q\n", cfg.Backend)
	}
	if cfg.Model == "" {
		if defaultModel, ok := DefaultModels[cfg.Backend]; ok {
			cfg.Model = defaultModel
			if verbose {
				fmt.Fprintf(stderr, "cligpt: using default model for %s backend: %s\n", cfg.Backend, defaultModel)
			}
		}
	}
	return cfg, nil
}

// SetupViper configures viper with default values and environment bindings.
func SetupViper(v *viper.Viper) {
	v.SetDefault(KeyBackend, DefaultBackend)
	v.SetDefault(KeyTemperature, 0.7)
	v.SetDefault(KeyColor, "ansiblue")
	v.SetDefault(KeyImageModel, "dall-e-3")
	v.SetDefault(KeyImageSize, "1792x1024")
	v.SetDefault(KeyImageStyle, "natural")
	v.SetDefault(KeyImageEditSize, "1024x1024")

	v.BindEnv(KeyBackend, "CLIGPT_BACKEND")
	v.BindEnv(KeyModel, "CLIGPT_MODEL")
	v.BindEnv(KeyTemperature, "CLIGPT_TEMPERATURE")
	v.BindEnv(KeyColor, "CLIGPT_COLOR")
	v.BindEnv(KeyWorkingDirectory, "CLIGPT_WORKING_DIRECTORY")
	v.BindEnv(KeyOpenAIAPIKey, "OPENAI_API_KEY")
	v.BindEnv(KeyAnthropicAPIKey, "ANTHROPIC_API_KEY")
	v.BindEnv(KeyGoogleAPIKey, "GOOGLE_API_KEY")
}

// DefaultConfigPath returns the settings file used when none is found.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.ini"
	}
	return filepath.Join(home, ".cligpt", "config.ini")
}

// FindConfigFile returns the settings file to use: the --config flag if set,
// then ./config.ini, then the default path.
func FindConfigFile(flagSet *pflag.FlagSet) string {
	if f := flagSet.Lookup("config"); f != nil && f.Value.String() != "" {
		return f.Value.String()
	}
	if _, err := os.Stat("config.ini"); err == nil {
		return "config.ini"
	}
	return DefaultConfigPath()
}

// HandleConfigFile reads the settings file into v, creating it first when it
// does not exist. It returns the path in use.
func HandleConfigFile(v *viper.Viper, stderr io.Writer, flagSet *pflag.FlagSet) (string, error) {
	path := FindConfigFile(flagSet)
	verbose, _ := flagSet.GetBool("verbose")

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if verbose {
			fmt.Fprintf(stderr, "cligpt: creating settings file %s\n", path)
		}
		if err := Persist(path, map[string]any{
			KeyOpenAIAPIKey: "",
			KeyTemperature:  0.7,
			KeyColor:        "ansiblue",
		}); err != nil {
			return "", fmt.Errorf("unable to create settings file: %w", err)
		}
	}

	v.SetConfigFile(path)
	setConfigType(v, path)
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("unable to read settings file: %w", err)
	}
	if verbose {
		fmt.Fprintf(stderr, "cligpt: successfully read settings from %s\n", v.ConfigFileUsed())
	}
	return path, nil
}

// Persist writes values into the settings file at path, keeping every other
// key already stored there.
func Persist(path string, values map[string]any) error {
	store := viper.New()
	store.SetConfigFile(path)
	setConfigType(store, path)
	if err := store.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for k, val := range values {
		store.Set(k, val)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := store.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// SetModel persists model as the active model.
func (c *Config) SetModel(model string) error {
	if err := Persist(c.Path, map[string]any{KeyModel: model}); err != nil {
		return err
	}
	c.Model = model
	return nil
}

func setConfigType(v *viper.Viper, path string) {
	if filepath.Ext(path) == "" {
		v.SetConfigType("ini")
	}
}

// CredentialKey returns the settings key holding the active backend's
// credential, or "" when the backend needs none.
func (c *Config) CredentialKey() string {
	return credentialKeys[c.Backend]
}

// Credential returns the active backend's credential.
func (c *Config) Credential() string {
	switch c.CredentialKey() {
	case KeyOpenAIAPIKey:
		return c.OpenAIAPIKey
	case KeyAnthropicAPIKey:
		return c.AnthropicAPIKey
	case KeyGoogleAPIKey:
		return c.GoogleAPIKey
	}
	return ""
}

// SetCredential sets the active backend's credential in memory.
func (c *Config) SetCredential(s string) {
	switch c.CredentialKey() {
	case KeyOpenAIAPIKey:
		c.OpenAIAPIKey = s
	case KeyAnthropicAPIKey:
		c.AnthropicAPIKey = s
	case KeyGoogleAPIKey:
		c.GoogleAPIKey = s
	}
}

// NeedsCredential reports whether the active backend requires a credential
// that is missing. Anything shorter than 5 characters counts as missing.
func (c *Config) NeedsCredential() bool {
	return c.CredentialKey() != "" && len(strings.TrimSpace(c.Credential())) < 5
}
