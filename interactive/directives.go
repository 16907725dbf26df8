package interactive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// MissingFileError reports a file named by a directive that cannot be read.
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

func (e *MissingFileError) Unwrap() error { return e.Err }

var (
	imageKeywords     = []string{"img", "image"}
	imageEditKeywords = []string{"imgedit"}
	imageQualities    = []string{"standard", "hd"}
)

// isToken reports whether line, ignoring case and surrounding space, is one
// of tokens.
func isToken(line string, tokens []string) bool {
	return slices.Contains(tokens, strings.ToLower(strings.TrimSpace(line)))
}

// resolvePath joins name to the working directory unless it is absolute.
func (d *Dispatcher) resolvePath(name string) string {
	if d.cfg.WorkingDirectory == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.cfg.WorkingDirectory, name)
}

// inlineFile replaces an "F <file>" line with the contents of the file.
// Other input is returned unchanged.
func (d *Dispatcher) inlineFile(input string) (string, error) {
	if len(input) < 2 || !strings.EqualFold(input[:2], "F ") {
		return input, nil
	}
	name := strings.TrimSpace(input[2:])
	if name == "" {
		return input, nil
	}
	path := d.resolvePath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &MissingFileError{Path: path, Err: err}
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	d.logger.Debugw("inlined file", "path", path, "bytes", len(data))
	return string(data), nil
}

type imageDirective struct {
	quality string
	prompt  string
}

// parseImageDirective parses "img [quality] prompt". ok is false when input
// is not an image directive.
func parseImageDirective(input string) (d imageDirective, ok bool) {
	fields := strings.Fields(input)
	if len(fields) == 0 || !slices.Contains(imageKeywords, strings.ToLower(fields[0])) {
		return imageDirective{}, false
	}
	rest := fields[1:]
	quality := "standard"
	if len(rest) > 0 && slices.Contains(imageQualities, strings.ToLower(rest[0])) {
		quality = strings.ToLower(rest[0])
		rest = rest[1:]
	}
	return imageDirective{quality: quality, prompt: strings.Join(rest, " ")}, true
}

type imageEditDirective struct {
	file   string
	prompt string
}

func parseImageEditDirective(input string) (imageEditDirective, bool) {
	fields := strings.Fields(input)
	if len(fields) < 3 || !slices.Contains(imageEditKeywords, strings.ToLower(fields[0])) {
		return imageEditDirective{}, false
	}
	return imageEditDirective{file: fields[1], prompt: strings.Join(fields[2:], " ")}, true
}
