package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// Screen redraws a block of lines at the bottom of a terminal.
type Screen struct {
	out   io.Writer
	drawn int
}

func NewScreen(out io.Writer) *Screen {
	return &Screen{out: out}
}

// Prime prints height blank lines to reserve the block that Redraw
// overwrites.
func (s *Screen) Prime(height int) error {
	if height < 1 {
		height = 1
	}
	if _, err := io.WriteString(s.out, strings.Repeat("\n", height)); err != nil {
		return err
	}
	s.drawn = height
	return nil
}

// Redraw moves the cursor up over the previously drawn block and prints
// lines top to bottom, clearing the remainder of each row.
func (s *Screen) Redraw(lines []string) error {
	var b strings.Builder
	if s.drawn > 0 {
		fmt.Fprintf(&b, termenv.CSI+termenv.CursorPreviousLineSeq, s.drawn)
	}
	for _, line := range lines {
		b.WriteString("\r")
		b.WriteString(line)
		b.WriteString(termenv.CSI + termenv.EraseLineRightSeq)
		b.WriteString("\n")
	}

	if _, err := io.WriteString(s.out, b.String()); err != nil {
		return err
	}
	s.drawn = len(lines)
	return nil
}
