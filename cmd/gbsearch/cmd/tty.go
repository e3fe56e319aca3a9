package cmd

import (
	"os"

	"golang.org/x/term"
)

// noColor is set by --no-color.
var noColor bool

// isStdoutTTY returns true if stdout is connected to a terminal.
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// isStdinPipe returns true if stdin is not a terminal.
func isStdinPipe() bool {
	return !term.IsTerminal(int(os.Stdin.Fd()))
}

// useColor reports whether stdout output should be styled.
func useColor() bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isStdoutTTY()
}
