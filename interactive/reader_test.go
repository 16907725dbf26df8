package interactive

import (
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestScannerReader(t *testing.T) {
	r := NewScannerReader(strings.NewReader("one\n\nthree\r\nfour"))
	var got []string
	for {
		line, err := r.ReadLine("> ")
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, line)
	}
	if diff := cmp.Diff([]string{"one", "", "three", "four"}, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestScannerReaderSkipsLongLines(t *testing.T) {
	input := "short\n" +
		strings.Repeat("x", 20) + "\n" +
		"12345678\r\n" +
		strings.Repeat("y", 10000) + "\n" +
		"after\n" +
		strings.Repeat("z", 9)
	r := NewScannerReader(strings.NewReader(input))
	r.max = 8

	type result struct {
		Line string
		Err  error
	}
	var got []result
	for {
		line, err := r.ReadLine("")
		if errors.Is(err, io.EOF) {
			break
		}
		got = append(got, result{line, err})
		if len(got) > 10 {
			t.Fatal("reader did not reach EOF")
		}
	}
	want := []result{
		{"short", nil},
		{"", ErrLineTooLong},
		{"12345678", nil},
		{"", ErrLineTooLong},
		{"after", nil},
		{"", ErrLineTooLong},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLineReaderFallsBackToScanner(t *testing.T) {
	r, err := NewLineReader(strings.NewReader("x\n"), io.Discard, io.Discard, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*ScannerReader); !ok {
		t.Errorf("NewLineReader() = %T, want *ScannerReader", r)
	}
}

// typeKeys feeds msgs to m and reports whether the prompt finished.
func typeKeys(m lineModel, msgs ...tea.Msg) (lineModel, bool) {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(lineModel)
	}
	return m, m.done || m.err != nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLineModel(t *testing.T) {
	t.Run("enter submits", func(t *testing.T) {
		m, quit := typeKeys(newLineModel("> ", nil), runes("hello"), tea.KeyMsg{Type: tea.KeyEnter})
		if !quit || !m.done || m.input.Value() != "hello" {
			t.Errorf("quit=%v done=%v value=%q", quit, m.done, m.input.Value())
		}
		if m.View() != "" {
			t.Errorf("View() after submit = %q, want empty", m.View())
		}
	})
	t.Run("ctrl-c interrupts", func(t *testing.T) {
		m, quit := typeKeys(newLineModel("> ", nil), runes("abc"), tea.KeyMsg{Type: tea.KeyCtrlC})
		if !quit || !errors.Is(m.err, ErrInterrupted) {
			t.Errorf("quit=%v err=%v", quit, m.err)
		}
	})
	t.Run("ctrl-d on empty line ends input", func(t *testing.T) {
		m, quit := typeKeys(newLineModel("> ", nil), tea.KeyMsg{Type: tea.KeyCtrlD})
		if !quit || !errors.Is(m.err, io.EOF) {
			t.Errorf("quit=%v err=%v", quit, m.err)
		}
	})
	t.Run("history", func(t *testing.T) {
		m, _ := typeKeys(newLineModel("> ", []string{"first", "second"}),
			tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp})
		if m.input.Value() != "first" {
			t.Errorf("after two ups value = %q", m.input.Value())
		}
		m, _ = typeKeys(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
		if m.input.Value() != "" {
			t.Errorf("after walking back down value = %q", m.input.Value())
		}
	})
}
