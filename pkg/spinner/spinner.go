// Package spinner draws a progress indicator on a terminal while a batch
// is being identified.
package spinner

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// DefaultInterval is the frame period.
const DefaultInterval = 120 * time.Millisecond

// braille arrow
var frames = []string{
	"⣀⣀ ", "⣄⣀ ", "⣤⣀ ", "⣦⣄ ", "⣶⣤ ", "⣿⣦ ", "⣿⣷ ", "⣿⣿ ",
	"⣿⣿ ", "⣷⣿ ", "⣦⣿ ", "⣤⣷ ", "⣄⣦ ", "⣀⣤ ", "⣀⣄ ", "⣀⣀ ",
}

// Spinner redraws a frame and a label on one line until stopped.
type Spinner struct {
	out   io.Writer
	label string
	index int

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer, label string) *Spinner {
	return &Spinner{out: out, label: label, stop: make(chan struct{}), done: make(chan struct{})}
}

// Start draws frames every interval in a goroutine until Stop is called.
func (s *Spinner) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	fmt.Fprint(s.out, "\033[?25l") // hide cursor
	s.Update()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.Update()
			}
		}
	}()
}

// Update advances to the next frame and prints it.
func (s *Spinner) Update() {
	fmt.Fprintf(s.out, "\r%s%s", frames[s.index], s.label)
	s.index = (s.index + 1) % len(frames)
}

// Stop ends the animation, clears the line and shows the cursor. It is
// safe to call more than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
		fmt.Fprint(s.out, "\r\033[K")
		fmt.Fprint(s.out, "\033[?25h") // show cursor
	})
}
