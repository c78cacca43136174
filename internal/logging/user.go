package logging

import (
	"fmt"
	"io"
	"os"
)

// User-facing CLI output, kept apart from the structured log. Progress goes
// to stdout; warnings and errors go to stderr so they survive piping.

// UserInfo prints an info message to stdout.
func UserInfo(format string, args ...interface{}) {
	userf(os.Stdout, "ℹ", format, args...)
}

// UserSuccess prints a success message to stdout.
func UserSuccess(format string, args ...interface{}) {
	userf(os.Stdout, "✓", format, args...)
}

// UserWarning prints a warning message to stderr.
func UserWarning(format string, args ...interface{}) {
	userf(os.Stderr, "⚠", format, args...)
}

// UserError prints an error message to stderr.
func UserError(format string, args ...interface{}) {
	userf(os.Stderr, "✗", format, args...)
}

func userf(w io.Writer, icon, format string, args ...interface{}) {
	fmt.Fprintf(w, icon+" "+format+"\n", args...)
}
