// Package terminal provides helpers for the interactive prompt: detecting a
// terminal, redrawing the prompt around asynchronous output, and clearing
// lines that held secrets.
package terminal

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Interactive reports whether w is a terminal.
func Interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Width returns the terminal width of w, or 80 when it is not a terminal.
func Width(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}

// LinesFor returns how many terminal rows textLength characters occupy at
// the given width, plus the row the cursor moved to after Enter.
func LinesFor(textLength, width int) int {
	if width <= 0 {
		width = 80
	}
	rows := (textLength + width - 1) / width
	if rows < 1 {
		rows = 1
	}
	return rows + 1
}

// ClearPreviousLines erases the last prompt and the line the operator typed
// after it. Used after reading a JWT so it does not stay on screen.
func ClearPreviousLines(w io.Writer, textLength int) {
	n := LinesFor(textLength, Width(w))
	for i := 0; i < n; i++ {
		fmt.Fprint(w, "\r\x1b[2K")
		if i < n-1 {
			fmt.Fprint(w, "\x1b[1A")
		}
	}
}
