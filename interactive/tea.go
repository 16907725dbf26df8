package interactive

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TeaReader reads each line with a small Bubble Tea program around a
// textinput field.
type TeaReader struct {
	in  io.Reader
	out io.Writer

	promptStyle lipgloss.Style
	history     []string
}

var _ LineReader = (*TeaReader)(nil)

// NewTeaReader creates a reader on in, drawing to out.
func NewTeaReader(in io.Reader, out io.Writer) *TeaReader {
	return &TeaReader{
		in:          in,
		out:         out,
		promptStyle: lipgloss.NewRenderer(out).NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
	}
}

func (r *TeaReader) ReadLine(prompt string) (string, error) {
	m := newLineModel(r.promptStyle.Render(prompt), r.history)
	p := tea.NewProgram(m, tea.WithInput(r.in), tea.WithOutput(r.out))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("running prompt: %w", err)
	}
	lm := final.(lineModel)
	if lm.err != nil {
		return "", lm.err
	}
	line := lm.input.Value()
	fmt.Fprintln(r.out, lm.input.Prompt+line)
	if line != "" {
		r.history = append(r.history, line)
	}
	return line, nil
}

func (r *TeaReader) Close() error { return nil }

// lineModel is a single-line prompt. Up and down walk the session history.
type lineModel struct {
	input   textinput.Model
	history []string
	pos     int

	done bool
	err  error
}

func newLineModel(prompt string, history []string) lineModel {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Focus()
	return lineModel{input: ti, history: history, pos: len(history)}
}

func (m lineModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m lineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC:
			m.err = ErrInterrupted
			return m, tea.Quit
		case tea.KeyCtrlD:
			if m.input.Value() == "" {
				m.err = io.EOF
				return m, tea.Quit
			}
		case tea.KeyUp:
			if m.pos > 0 {
				m.pos--
				m.input.SetValue(m.history[m.pos])
				m.input.CursorEnd()
			}
			return m, nil
		case tea.KeyDown:
			if m.pos < len(m.history) {
				m.pos++
				if m.pos == len(m.history) {
					m.input.SetValue("")
				} else {
					m.input.SetValue(m.history[m.pos])
				}
				m.input.CursorEnd()
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m lineModel) View() string {
	if m.done || m.err != nil {
		return ""
	}
	return m.input.View()
}
