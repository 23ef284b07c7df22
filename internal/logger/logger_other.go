//go:build !darwin && !linux
// +build !darwin,!linux

package logger

import (
	"os"

	"github.com/mattn/go-isatty"
)

const SupportsColorEscapes = false

// Without the termios ioctls the size is unknown, but interactive output can
// still be told apart from a pipe
func GetTerminalInfo(file *os.File) (info TerminalInfo) {
	fd := file.Fd()
	info.IsTTY = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return
}

func writeStringWithColor(file *os.File, text string) {
	file.WriteString(text)
}
