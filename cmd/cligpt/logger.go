package main

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	grey   = "\033[38;5;240m"
	yellow = "\033[38;5;11m"
	red    = "\033[38;5;9m"
	reset  = "\033[0m"
)

// levelColorEncoder colors the whole log line by level.
func levelColorEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var color string
	switch {
	case l <= zapcore.InfoLevel:
		color = grey
	case l == zapcore.WarnLevel:
		color = yellow
	default:
		color = red
	}
	enc.AppendString(color + l.CapitalString())
}

// NewLogger returns a console logger writing to stderr. It logs warnings and
// above by default, info with verbose and everything with debug.
func NewLogger(stderr io.Writer, verbose, debug bool) (*zap.SugaredLogger, error) {
	if stderr == nil {
		stderr = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.LevelKey = "L"
	encCfg.NameKey = "N"
	encCfg.MessageKey = "M"
	encCfg.StacktraceKey = "S"
	encCfg.FunctionKey = ""
	encCfg.CallerKey = ""
	encCfg.ConsoleSeparator = " "
	encCfg.LineEnding = reset + zapcore.DefaultLineEnding
	encCfg.EncodeLevel = levelColorEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		level.SetLevel(zapcore.InfoLevel)
	}
	var zapOpts []zap.Option
	if debug {
		level.SetLevel(zapcore.DebugLevel)
		encCfg.CallerKey = "C"
		zapOpts = append(zapOpts, zap.AddCaller())
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(stderr), level)
	return zap.New(core, zapOpts...).Sugar(), nil
}
