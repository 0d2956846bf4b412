package main

import (
	"io"
	"os"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"golang.org/x/term"
)

const (
	enterAltScreen = "\033[?1049h\033[?25l"
	leaveAltScreen = "\033[?25h\033[?1049l"
	homeAndClear   = "\033[H\033[2J"
)

// screen is the alternate terminal buffer the live view draws into. When
// stdout is not a terminal frames are appended as plain text.
type screen struct {
	out     io.Writer
	active  bool
	restore func()
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func openScreen() *screen {
	s := &screen{out: os.Stdout, restore: func() {}}
	if !isTerminal() {
		return s
	}

	s.active = true
	io.WriteString(s.out, enterAltScreen)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		restore, err := muteEcho(fd)
		if err != nil {
			logger.L().Warning("unable to suppress stdin echo", helpers.Error(err))
		} else {
			s.restore = restore
		}
	}
	return s
}

// draw replaces the visible frame.
func (s *screen) draw(frame string) {
	if s.active {
		frame = homeAndClear + frame
	}
	io.WriteString(s.out, frame)
}

// close gives the terminal back; calling it twice is harmless.
func (s *screen) close() {
	if !s.active {
		return
	}
	s.active = false
	s.restore()
	io.WriteString(s.out, leaveAltScreen)
}
