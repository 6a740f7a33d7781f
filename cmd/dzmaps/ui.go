package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgCyan, color.Bold)
)

// initColors enables or disables colored output.
func initColors(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// successf prints a success line to stderr.
func successf(format string, args ...any) {
	_, _ = successColor.Fprintf(os.Stderr, format+"\n", args...)
}

// warnf prints a warning line to stderr.
func warnf(format string, args ...any) {
	_, _ = warnColor.Fprintf(os.Stderr, format+"\n", args...)
}

// errorf prints an error line to stderr.
func errorf(format string, args ...any) {
	_, _ = errorColor.Fprintf(os.Stderr, format+"\n", args...)
}

// header prints a section header to stderr.
func header(format string, args ...any) {
	_, _ = headerColor.Fprintln(os.Stderr, fmt.Sprintf(format, args...))
}
