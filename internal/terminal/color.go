// Package terminal adapts the controlling terminal for the meter: color
// support detection, raw input mode and non-blocking stop-key checks.
package terminal

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ColorProfile returns termenv.Ascii when color output should be
// suppressed (NO_COLOR is set or out is not a terminal) and termenv.ANSI
// otherwise. The bar palette only needs the basic eight colors.
func ColorProfile(out *os.File) termenv.Profile {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return termenv.Ascii
	}
	if !isatty.IsTerminal(out.Fd()) && !isatty.IsCygwinTerminal(out.Fd()) {
		return termenv.Ascii
	}
	return termenv.ANSI
}
