//go:build linux

package main

import "golang.org/x/sys/unix"

// muteEcho clears ECHO on fd and returns the call that puts the saved termios back.
func muteEcho(fd int) (func(), error) {
	saved, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}

	muted := *saved
	muted.Lflag &^= unix.ECHO
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &muted); err != nil {
		return nil, err
	}
	return func() { _ = unix.IoctlSetTermios(fd, unix.TCSETS, saved) }, nil
}
