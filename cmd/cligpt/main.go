// Command cligpt is an interactive terminal chat client for Large Language Models (LLMs).
//
// Usage:
//
//	cligpt [flags]
//
// Flags:
//
//	-b, --backend string             The backend to use (default "openai")
//	-m, --model string               The model to use (default depends on the backend)
//	    --temperature float          Sampling temperature (default 0.7)
//	    --color string               Color of the assistant replies (default "ansiblue")
//	-s, --system-prompt string       System prompt to use
//	-t, --max-tokens int             Maximum tokens to generate, 0 leaves it to the service
//	-f, --input-file string          File holding the first message of the session
//	-w, --working-directory string   Directory that file names are resolved against
//	    --list-models                List the available models
//	    --set-model string           Persist the model to use
//	    --get-model                  Print the model in use
//	    --transcribe string          Transcribe an audio file
//	    --config string              Path to the settings file (default "$HOME/.cligpt/config.ini")
//	    --tui                        Use the full screen line editor
//	-v, --verbose                    Verbose output
//	    --debug                      Debug output
//	-h, --help                       Display help information
//
// Inside a session, type a message and press enter to send it. The commands
// bye, stop, quit and q end the session, s/start and e/end bracket a
// multi-line message, "F <file>" sends the contents of a file, and
// "img [hd] <prompt>" and "imgedit <file> <prompt>" generate and edit images.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"
	"github.com/tmc/langchaingo/httputil"
	"go.uber.org/zap"

	"github.com/tmc/cligpt/backends"
	"github.com/tmc/cligpt/completion"
	"github.com/tmc/cligpt/interactive"
	"github.com/tmc/cligpt/options"
	"github.com/tmc/cligpt/provider"
)

// chatModelPrefixes selects the chat models among the openai model list.
var chatModelPrefixes = []string{"gpt", "chatgpt", "o1", "o3", "o4"}

// stopSignals cancel the session context.
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	opts, fs, err := initFlags(os.Args, os.Stdin)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), stopSignals...)
	err = run(ctx, opts, fs)
	cancel()
	if code := exitCode(err); code != 0 {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(code)
	}
}

// exitCode maps the result of run to the process exit status. Running out
// of tokens ends the session normally once it has been reported.
func exitCode(err error) int {
	if err == nil || errors.Is(err, completion.ErrMaxTokens) || errors.Is(err, context.Canceled) {
		return 0
	}
	return 1
}

func initFlags(args []string, stdin io.Reader) (options.RunOptions, *flag.FlagSet, error) {
	opts := options.RunOptions{
		Stdin:  stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	name := "cligpt"
	if len(args) > 0 {
		name = filepath.Base(args[0])
		args = args[1:]
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SortFlags = false

	fs.StringP("backend", "b", options.DefaultBackend, "The backend to use: "+strings.Join(backends.Names(), ", "))
	fs.StringP("model", "m", "", "The model to use (default depends on the backend)")
	fs.Float64("temperature", 0.7, "Sampling temperature")
	fs.String("color", "ansiblue", "Color of the assistant replies")
	fs.StringP("system-prompt", "s", "", "System prompt to use")
	fs.IntP("max-tokens", "t", 0, "Maximum tokens to generate, 0 leaves it to the service")
	fs.StringVarP(&opts.InputFile, "input-file", "f", "", "File holding the first message of the session")
	fs.StringP("working-directory", "w", "", "Directory that file names are resolved against")

	fs.BoolVar(&opts.ListModels, "list-models", false, "List the available models")
	fs.StringVar(&opts.SetModel, "set-model", "", "Persist the model to use")
	fs.BoolVar(&opts.GetModel, "get-model", false, "Print the model in use")
	fs.StringVar(&opts.Transcribe, "transcribe", "", "Transcribe an audio file")

	fs.String("config", "", "Path to the settings file (default \"$HOME/.cligpt/config.ini\")")
	fs.BoolVar(&opts.UseTUI, "tui", false, "Use the full screen line editor")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose output")
	fs.BoolVar(&opts.DebugMode, "debug", false, "Debug output")

	// hidden flags
	fs.BoolVar(&opts.ShowSpinner, "show-spinner", true, "Show spinner while waiting for a reply")
	fs.MarkHidden("show-spinner")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "cligpt is an interactive terminal client for generative AI models")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", name)
		fs.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Session commands:
	bye, stop, quit, q          end the session
	s, start / e, end           bracket a multi-line message
	F <file>                    send the contents of a file
	img [standard|hd] <prompt>  generate an image
	imgedit <file> <prompt>     edit an image

Examples:
	$ cligpt --input-file report.md --working-directory ~/notes
	$ cligpt --backend ollama --model llama3.2
	$ echo "explain plan 9 in one sentence" | cligpt --backend anthropic
`)
	}
	if err := fs.Parse(args); err != nil {
		return opts, fs, err
	}
	if fs.NArg() > 0 {
		return opts, fs, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, fs, nil
}

func run(ctx context.Context, opts options.RunOptions, fs *flag.FlagSet) error {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	logger, err := NewLogger(opts.Stderr, opts.Verbose, opts.DebugMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger = logger.With("session", uuid.NewString())
	defer logger.Sync()

	cfg, err := options.LoadConfig(opts.Stderr, fs)
	if err != nil {
		return err
	}
	opts.Config = cfg

	switch {
	case opts.GetModel:
		fmt.Fprintln(opts.Stdout, cfg.Model)
		return nil
	case opts.SetModel != "":
		if err := cfg.SetModel(opts.SetModel); err != nil {
			return fmt.Errorf("failed to set model: %w", err)
		}
		logger.Infow("model saved", "model", cfg.Model, "path", cfg.Path)
		return nil
	}

	client, err := connect(ctx, opts, logger)
	if err != nil {
		return err
	}

	switch {
	case opts.ListModels:
		return listModels(ctx, opts, client)
	case opts.Transcribe != "":
		text, err := client.Transcribe(ctx, provider.TranscriptionRequest{
			Path:     resolvePath(cfg.WorkingDirectory, opts.Transcribe),
			Language: "en",
		})
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}
		fmt.Fprintln(opts.Stdout, text)
		return nil
	}
	return chat(ctx, opts, client, logger)
}

// connect initializes the backend, asking for its credential when none is
// configured. A credential entered at the prompt is saved once the service
// accepts it.
func connect(ctx context.Context, opts options.RunOptions, logger *zap.SugaredLogger) (provider.Client, error) {
	cfg := opts.Config
	prompted := false
	if cfg.NeedsCredential() {
		if _, err := options.PromptCredential(cfg, opts.Stdin, opts.Stderr); err != nil {
			return nil, err
		}
		prompted = true
	}

	providerOpts := []options.InferenceProviderOption{backends.WithLogger(logger.Named(cfg.Backend))}
	if opts.DebugMode {
		providerOpts = append(providerOpts, backends.WithHTTPClient(httputil.DebugHTTPClient))
	}
	client, err := backends.InitializeClient(cfg, providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize backend: %w", err)
	}

	if err := client.Validate(ctx); err != nil {
		var credErr *provider.CredentialError
		if errors.As(err, &credErr) {
			return nil, fmt.Errorf("this %s API key is invalid, or the service could not be reached: %w", cfg.Backend, err)
		}
		return nil, err
	}
	if prompted {
		if err := cfg.PersistCredential(); err != nil {
			return nil, fmt.Errorf("failed to save credential: %w", err)
		}
		logger.Infow("credential saved", "path", cfg.Path)
	}
	return client, nil
}

func listModels(ctx context.Context, opts options.RunOptions, client provider.Client) error {
	ids, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	var models []string
	for _, id := range ids {
		if opts.Backend == "openai" && !hasAnyPrefix(id, chatModelPrefixes) {
			continue
		}
		models = append(models, id)
	}
	slices.Sort(models)
	for _, m := range models {
		fmt.Fprintln(opts.Stdout, m)
	}
	return nil
}

func chat(ctx context.Context, opts options.RunOptions, client provider.Client, logger *zap.SugaredLogger) error {
	cfg := opts.Config

	var first string
	if opts.InputFile != "" {
		path := resolvePath(cfg.WorkingDirectory, opts.InputFile)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return &interactive.MissingFileError{Path: path, Err: err}
		}
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		first = string(data)
	}

	svc, err := completion.New(&completion.Config{
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		SystemPrompt: cfg.SystemPrompt,
		Color:        cfg.Color,
	}, client,
		completion.WithStdout(opts.Stdout),
		completion.WithStderr(opts.Stderr),
		completion.WithLogger(logger.Named("completion")),
		completion.WithShowSpinner(opts.ShowSpinner),
	)
	if err != nil {
		return fmt.Errorf("failed to create completion service: %w", err)
	}

	reader, err := interactive.NewLineReader(opts.Stdin, opts.Stdout, opts.Stderr, opts.UseTUI)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer reader.Close()

	d := interactive.NewDispatcher(interactive.Config{
		WorkingDirectory: cfg.WorkingDirectory,
		ImageModel:       cfg.ImageModel,
		ImageSize:        cfg.ImageSize,
		ImageStyle:       cfg.ImageStyle,
		ImageEditSize:    cfg.ImageEditSize,
	}, svc, client, reader,
		interactive.WithStdout(opts.Stdout),
		interactive.WithStderr(opts.Stderr),
		interactive.WithLogger(logger.Named("interactive")),
	)
	return d.Run(ctx, first)
}

func resolvePath(dir, name string) string {
	if dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
