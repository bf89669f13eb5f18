package terminal

import (
	"bytes"
	"testing"
)

func TestLinesFor(t *testing.T) {
	tests := []struct {
		name   string
		length int
		width  int
		want   int
	}{
		{"empty", 0, 80, 2},
		{"single row", 40, 80, 2},
		{"exact width", 80, 80, 2},
		{"wraps", 81, 80, 3},
		{"bad width", 100, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LinesFor(tt.length, tt.width); got != tt.want {
				t.Errorf("LinesFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInteractiveBuffer(t *testing.T) {
	if Interactive(&bytes.Buffer{}) {
		t.Error("Interactive() = true for a buffer, want false")
	}
}

func TestPromptInterruptOnPipe(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrompt(&buf, DefaultPrompt)

	p.Interrupt()
	if buf.Len() != 0 {
		t.Errorf("Interrupt() before Show wrote %q", buf.String())
	}

	p.Show()
	p.Interrupt()
	p.Interrupt()
	if got, want := buf.String(), "> \n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// fdBuffer stands in for a terminal file.
type fdBuffer struct {
	bytes.Buffer
}

func (*fdBuffer) Fd() uintptr { return 1 }

func TestPromptInterruptOnTerminalWritesToPromptWriter(t *testing.T) {
	var buf fdBuffer
	p := newPrompt(&buf, DefaultPrompt, true)

	p.Show()
	p.Interrupt()
	if got, want := buf.String(), "> \x1b[1G\x1b[2K"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestClearPreviousLines(t *testing.T) {
	var buf bytes.Buffer
	ClearPreviousLines(&buf, 10)
	want := "\r\x1b[2K\x1b[1A\r\x1b[2K"
	if got := buf.String(); got != want {
		t.Errorf("ClearPreviousLines() wrote %q, want %q", got, want)
	}
}
