// Package cli implements the "lowerjs" command line. It's a thin layer over
// the "api" package that reads files, writes files, and prints messages.
package cli

import (
	"os"
)

// Runs the command line with the given arguments (without the program name)
// and returns the process exit code
func Run(osArgs []string) int {
	return runImpl(osArgs, stdio{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	})
}
