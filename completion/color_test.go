package completion

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in     string
		want   lipgloss.TerminalColor
		wantOK bool
	}{
		{"", lipgloss.NoColor{}, true},
		{"default", lipgloss.NoColor{}, true},
		{"ansiblue", lipgloss.Color("4"), true},
		{"AnsiBlue", lipgloss.Color("4"), true},
		{"blue", lipgloss.Color("4"), true},
		{"ansibrightred", lipgloss.Color("9"), true},
		{"ansigray", lipgloss.Color("7"), true},
		{"ansibrightblack", lipgloss.Color("8"), true},
		{"ansiwhite", lipgloss.Color("15"), true},
		{"33", lipgloss.Color("33"), true},
		{"#ff8800", lipgloss.Color("#ff8800"), true},
		{"#f80", lipgloss.Color("#f80"), true},
		{"256", lipgloss.NoColor{}, false},
		{"#zzzzzz", lipgloss.NoColor{}, false},
		{"ansiplaid", lipgloss.NoColor{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseColor(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseColor(%q) = %#v, %v; want %#v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
