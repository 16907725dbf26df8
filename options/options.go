package options

import (
	"io"
)

// RunOptions contains all the options that are relevant to run cligpt.
type RunOptions struct {
	// Config options
	*Config `json:"config,omitempty" yaml:"config,omitempty"`

	// --- Actions ---
	ListModels bool   `json:"listModels,omitempty" yaml:"listModels,omitempty"`
	SetModel   string `json:"setModel,omitempty" yaml:"setModel,omitempty"`
	GetModel   bool   `json:"getModel,omitempty" yaml:"getModel,omitempty"`
	Transcribe string `json:"transcribe,omitempty" yaml:"transcribe,omitempty"` // Audio file to transcribe

	// InputFile holds the first message of the session, resolved against
	// the working directory.
	InputFile string `json:"inputFile,omitempty" yaml:"inputFile,omitempty"`

	// Output options
	ShowSpinner bool `json:"showSpinner,omitempty" yaml:"showSpinner,omitempty"`
	UseTUI      bool `json:"useTUI,omitempty" yaml:"useTUI,omitempty"` // Use BubbleTea prompt for interactive mode

	// Verbosity options
	Verbose   bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	DebugMode bool `json:"debugMode,omitempty" yaml:"debugMode,omitempty"`

	// --- I/O handles passed in ---
	Stdout io.Writer `json:"-" yaml:"-"`
	Stderr io.Writer `json:"-" yaml:"-"`
	Stdin  io.Reader `json:"-" yaml:"-"`
}
