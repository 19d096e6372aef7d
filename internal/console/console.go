// Package console writes the operator-facing progress text of a setup run.
// Structured diagnostics go through slog; this package only covers the
// human-readable lines printed on stdout and stderr.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer handles CLI output formatting.
type Writer struct {
	out   io.Writer
	err   io.Writer
	color bool
	title cases.Caser
}

// New creates a Writer on stdout/stderr, colored when stdout is a terminal.
func New() *Writer {
	return &Writer{
		out:   os.Stdout,
		err:   os.Stderr,
		color: ColorEnabled(os.Stdout),
		title: cases.Title(language.English),
	}
}

// NewWithWriters creates a Writer with custom io.Writers (for testing).
func NewWithWriters(out, err io.Writer, color bool) *Writer {
	return &Writer{
		out:   out,
		err:   err,
		color: color,
		title: cases.Title(language.English),
	}
}

// ColorEnabled reports whether w is a terminal that should get ANSI styling.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Color reports whether the Writer emits ANSI styling.
func (w *Writer) Color() bool { return w.color }

// Out returns the stdout writer, e.g. to stream subprocess output.
func (w *Writer) Out() io.Writer { return w.out }

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...any) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(format string, args ...any) {
	fmt.Fprintf(w.err, format+"\n", args...)
}

// Step announces the start of a pipeline stage.
func (w *Writer) Step(stage string) {
	label := fmt.Sprintf("==> %s", w.title.String(stage))
	if w.color {
		w.Println("%s%s%s", bold, label, reset)
		return
	}
	w.Println("%s", label)
}

// Success prints a success message.
func (w *Writer) Success(format string, args ...any) {
	if w.color {
		w.Println(green+format+reset, args...)
		return
	}
	w.Println(format, args...)
}

// Warning prints a warning message on stderr.
func (w *Writer) Warning(format string, args ...any) {
	if w.color {
		w.Errorln(yellow+"warning: "+format+reset, args...)
		return
	}
	w.Errorln("warning: "+format, args...)
}

// Failure prints a failure message on stderr.
func (w *Writer) Failure(format string, args ...any) {
	if w.color {
		w.Errorln(red+format+reset, args...)
		return
	}
	w.Errorln(format, args...)
}

// List prints a list of items.
func (w *Writer) List(items []string) {
	for _, item := range items {
		w.Println("  - %s", item)
	}
}

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
)
