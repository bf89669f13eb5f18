package terminal

import (
	"fmt"
	"io"

	"atomicgo.dev/cursor"
)

// DefaultPrompt is the REPL prompt string.
const DefaultPrompt = "> "

// Prompt prints the REPL prompt and keeps it consistent when output arrives
// while the operator is typing.
type Prompt struct {
	w      io.Writer
	text   string
	cursor *cursor.Cursor
	shown  bool
}

// NewPrompt returns a prompt writing text to w. Cursor control is used only
// when w is a terminal.
func NewPrompt(w io.Writer, text string) *Prompt {
	return newPrompt(w, text, Interactive(w))
}

func newPrompt(w io.Writer, text string, interactive bool) *Prompt {
	p := &Prompt{w: w, text: text}
	if cw, ok := w.(cursor.Writer); ok && interactive {
		p.cursor = cursor.NewCursor().WithWriter(cw)
	}
	return p
}

// Show prints the prompt.
func (p *Prompt) Show() {
	fmt.Fprint(p.w, p.text)
	p.shown = true
}

// Interrupt prepares the output for a message that is not a reply to the
// current line. On a terminal the visible prompt is erased; otherwise a
// newline ends the prompt line.
func (p *Prompt) Interrupt() {
	if !p.shown {
		return
	}
	if p.cursor != nil {
		p.cursor.HorizontalAbsolute(0)
		p.cursor.ClearLine()
	} else {
		fmt.Fprintln(p.w)
	}
	p.shown = false
}

// Accepted records that the operator submitted a line.
func (p *Prompt) Accepted() {
	p.shown = false
}
