package completion

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/tmc/spinner"
	"golang.org/x/term"
)

// spin starts a spinner on out and returns a function stopping it. The
// returned function may be called more than once.
func spin(pos int, out io.Writer) func() {
	s := spinner.New(
		spinner.WithFrames(spinner.Dots8),
		spinner.WithWriter(out),
		spinner.WithIntervalFunc(
			spinner.SpeedupInterval(90*time.Millisecond, 40*time.Millisecond, time.Second*5),
		),
		spinner.WithColorFunc(spinner.GreyPulse(15*time.Millisecond)),
		spinner.WithPosition(pos),
	)
	s.Start()
	var once sync.Once
	return func() { once.Do(s.Stop) }
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
