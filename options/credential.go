package options

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoCredential is returned when the credential prompt yields nothing.
var ErrNoCredential = errors.New("no credential entered")

// PromptCredential asks for the active backend's credential and stores it in
// cfg. Input is hidden when stdin is a terminal. The caller persists the
// credential once the service has accepted it.
func PromptCredential(cfg *Config, stdin io.Reader, stderr io.Writer) (string, error) {
	fmt.Fprintf(stderr, "Enter your %s secret key: ", cfg.Backend)

	var (
		secret string
		err    error
	)
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		var b []byte
		b, err = term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(stderr)
		secret = string(b)
	} else {
		secret, err = readLine(stdin)
	}
	if err != nil && !(errors.Is(err, io.EOF) && secret != "") {
		return "", fmt.Errorf("reading credential: %w", err)
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", ErrNoCredential
	}
	cfg.SetCredential(secret)
	return secret, nil
}

// PersistCredential writes the active backend's credential to the settings file.
func (c *Config) PersistCredential() error {
	key := c.CredentialKey()
	if key == "" {
		return nil
	}
	return Persist(c.Path, map[string]any{key: c.Credential()})
}

// readLine reads up to a newline one byte at a time so that nothing past the
// line is consumed from r.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return sb.String(), nil
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			return sb.String(), err
		}
	}
}
