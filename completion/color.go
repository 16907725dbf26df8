package completion

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var basicColors = []string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

// ParseColor converts an assistant color setting into a terminal color.
// Accepted forms are prompt_toolkit names ("ansiblue", "ansibrightred",
// "ansigray"), plain names ("blue", "brightred"), ANSI numbers ("33") and
// hex values ("#ff8800"). The empty string and "default" select the terminal
// default. ok is false for anything else, which also yields the default.
func ParseColor(name string) (color lipgloss.TerminalColor, ok bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "default", "ansidefault":
		return lipgloss.NoColor{}, true
	}
	if strings.HasPrefix(n, "#") {
		if _, err := strconv.ParseUint(n[1:], 16, 32); err == nil && (len(n) == 4 || len(n) == 7) {
			return lipgloss.Color(n), true
		}
		return lipgloss.NoColor{}, false
	}
	if v, err := strconv.Atoi(n); err == nil {
		if v >= 0 && v <= 255 {
			return lipgloss.Color(n), true
		}
		return lipgloss.NoColor{}, false
	}

	n = strings.TrimPrefix(n, "ansi")
	switch n {
	case "gray", "grey":
		return lipgloss.Color("7"), true
	case "brightblack", "darkgray", "darkgrey":
		return lipgloss.Color("8"), true
	case "white":
		// prompt_toolkit's ansiwhite is the bright variant.
		return lipgloss.Color("15"), true
	}
	offset := 0
	if rest, found := strings.CutPrefix(n, "bright"); found {
		n, offset = rest, 8
	}
	for i, c := range basicColors {
		if c == n {
			return lipgloss.Color(strconv.Itoa(i + offset)), true
		}
	}
	return lipgloss.NoColor{}, false
}
