// Package bar renders a sample as a colored horizontal bar.
package bar

import (
	"math"
	"strings"

	"codeberg.org/mutker/barmeter/internal/errors"
	"codeberg.org/mutker/barmeter/internal/numeric"
	"github.com/muesli/termenv"
)

// Color codes accepted for the bar bands: 31 (red) through 36 (cyan).
const (
	MinColor = 31
	MaxColor = 36
)

// maxLength caps the bar width so absurd settings cannot exhaust memory.
const maxLength = 1 << 12

// ColorNames lists the palette in code order starting at MinColor.
var ColorNames = []string{"red", "green", "yellow", "blue", "magenta", "cyan"}

// Style holds the bar geometry and appearance as configured. Values are
// clamped by Render, not here.
type Style struct {
	Min, Max float64
	Length   float64
	// Medium and High are fractions of Length at which the fill switches
	// to the medium and high colors.
	Medium, High float64
	Char         string
	LowColor     float64
	MediumColor  float64
	HighColor    float64
	// Profile selects how colors are emitted; termenv.Ascii drops them.
	Profile termenv.Profile
}

// Render draws v as "<min>[<fill><padding>]<max>". The fill escalates from
// the low to the medium and high colors as positions cross the thresholds
// and never steps back down.
func Render(v float64, s Style) (string, error) {
	errFactory := errors.New()

	if math.IsNaN(v) {
		return "", errFactory.WithMessage(errors.ErrInvalidArgument, "sample is not a number")
	}
	span := s.Max - s.Min
	if span == 0 {
		return "", errFactory.WithMessage(errors.ErrDivisionByZero, "bar span is zero")
	}

	v = math.Max(math.Min(v, s.Max), s.Min)
	frac := (v - s.Min) / span
	if math.IsNaN(frac) || math.IsInf(frac, 0) {
		return "", errFactory.WithMessage(errors.ErrInvalidArgument, "bar bounds are not finite")
	}
	length := clampLength(s.Length)

	lo := colorSeq(s.Profile, s.LowColor)
	med := colorSeq(s.Profile, s.MediumColor)
	hi := colorSeq(s.Profile, s.HighColor)

	filled := min(max(int(math.RoundToEven(frac*float64(length))), 0), length)

	var b strings.Builder
	b.WriteString(numeric.Format(s.Min))
	b.WriteString("[")
	b.WriteString(lo)

	band := 0
	for i := 0; i < filled; i++ {
		pos := float64(i) / float64(length)
		switch {
		case pos >= s.High && band < 2:
			b.WriteString(hi)
			band = 2
		case pos >= s.Medium && band < 1:
			b.WriteString(med)
			band = 1
		}
		b.WriteString(s.Char)
	}

	b.WriteString(strings.Repeat(" ", length-filled))
	b.WriteString(resetSeq(s.Profile))
	b.WriteString("]")
	b.WriteString(numeric.Format(s.Max))

	return b.String(), nil
}

// Blank draws an empty bar with the same frame as Render, for cycles where
// Render fails.
func Blank(s Style) string {
	length := clampLength(s.Length)
	return numeric.Format(s.Min) + "[" + strings.Repeat(" ", length) + "]" + numeric.Format(s.Max)
}

// ClampColor limits a configured color code to the palette.
func ClampColor(c float64) int {
	if math.IsNaN(c) {
		return MinColor
	}
	return int(math.Max(math.Min(c, MaxColor), MinColor))
}

func clampLength(l float64) int {
	if !(l > 0) {
		return 0
	}
	return int(math.Min(l, maxLength))
}

func colorSeq(p termenv.Profile, code float64) string {
	seq := p.Convert(termenv.ANSIColor(ClampColor(code) - 30)).Sequence(false)
	if seq == "" {
		return ""
	}
	return termenv.CSI + seq + "m"
}

func resetSeq(p termenv.Profile) string {
	if p == termenv.Ascii {
		return ""
	}
	return termenv.CSI + termenv.ResetSeq + "m"
}
