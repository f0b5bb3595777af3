package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// spinnerLine owns one terminal line with a spinner and prints messages
// above it. In non-interactive mode the spinner is never started and
// spinner messages are printed as plain lines instead.
type spinnerLine struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	spinner     *spinner.Spinner
}

func newSpinnerLine(out io.Writer, interactive bool) *spinnerLine {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false
	_ = s.Color("cyan", "bold")
	return &spinnerLine{
		out:         out,
		interactive: interactive,
		spinner:     s,
	}
}

// spin shows message next to the spinner, or prints it when not interactive
func (l *spinnerLine) spin(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.interactive {
		fmt.Fprintln(l.out, message)
		return
	}
	l.spinner.Suffix = " " + message
	if !l.spinner.Active() {
		l.spinner.Start()
	}
}

// stop clears the spinner line
func (l *spinnerLine) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.spinner.Active() {
		l.spinner.Stop()
	}
}

// println prints a colored line, pausing the spinner around it
func (l *spinnerLine) println(c *color.Color, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	wasActive := l.spinner.Active()
	if wasActive {
		l.spinner.Stop()
	}
	c.Fprintln(l.out, message)
	if wasActive {
		l.spinner.Start()
	}
}
