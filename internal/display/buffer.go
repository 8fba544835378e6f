// Package display keeps the fixed-height window of rendered lines and
// redraws it in place on the terminal.
package display

// MaxHeight bounds the buffer height.
const MaxHeight = 1 << 12

// Buffer is a fixed-height window of lines, most recent last.
type Buffer struct {
	lines []string
}

// NewBuffer returns a buffer of height empty lines. Heights are clamped
// to [1, MaxHeight].
func NewBuffer(height int) *Buffer {
	height = min(max(height, 1), MaxHeight)
	return &Buffer{lines: make([]string, height)}
}

// Len returns the buffer height, which never changes.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// Rotate drops the oldest line and appends line.
func (b *Buffer) Rotate(line string) {
	copy(b.lines, b.lines[1:])
	b.lines[len(b.lines)-1] = line
}

// Lines returns a copy of the stored lines.
func (b *Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Snapshot returns the lines to draw. A non-empty overlay replaces the
// first line of the snapshot only; the stored buffer is left as is.
func (b *Buffer) Snapshot(overlay string) []string {
	out := b.Lines()
	if overlay != "" {
		out[0] = overlay
	}
	return out
}
