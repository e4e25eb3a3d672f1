package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// ConnectSpinner renders a blocking spinner for the time a connect/retry
// loop spends off the happy path, the same pattern as the teacher's
// cli/internal/ui.RunConnectionSpinner but scoped to one helper since the
// fabric only ever spins on "connecting".
type ConnectSpinner struct {
	message string
	frames  []string
	done    chan struct{}
	stopped bool
}

func NewConnectSpinner(message string) *ConnectSpinner {
	return &ConnectSpinner{message: message, frames: spinner.Globe.Frames, done: make(chan struct{})}
}

func (s *ConnectSpinner) Start() {
	go func() {
		i := 0
		for {
			select {
			case <-s.done:
				return
			default:
				fmt.Printf("\r%s %s", SpinnerStyle.Render(s.frames[i%len(s.frames)]), s.message)
				i++
				time.Sleep(180 * time.Millisecond)
			}
		}
	}()
}

func (s *ConnectSpinner) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)
	fmt.Print("\r\033[K")
}

// RunConnectSpinner starts a spinner and returns its stop function.
func RunConnectSpinner(message string) func() {
	sp := NewConnectSpinner(message)
	sp.Start()
	return sp.Stop
}
