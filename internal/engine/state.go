package engine

import (
	"codeberg.org/mutker/barmeter/internal/config"
	"codeberg.org/mutker/barmeter/internal/derive"
	"codeberg.org/mutker/barmeter/internal/display"
)

// State is everything the sampling loop owns: the configuration, the
// deriver with its per-method state, the rolling buffer while the loop is
// running, and the sticky error line.
type State struct {
	Config  *config.Config
	Deriver *derive.Deriver
	Buffer  *display.Buffer
	Error   string

	// Runnable is false while the configured source (or log) could not be
	// opened; the loop refuses to start until it is reconfigured.
	Runnable bool
	// MethodErr holds the validation error of the configured method, if any.
	MethodErr error
}

// Result is the outcome of one cycle.
type Result struct {
	Sample float64
	Line   string
	// Err is the first failure of the cycle, nil when it succeeded.
	Err error
}

// Display messages shown on the first buffer line after a failure.
const (
	MsgGetContent = "Error Getting Content"
	MsgWriteLog   = "Error Writing to Log"
	MsgRenderBar  = "Error Rendering Bar"
)

// StopHint is printed when the loop starts.
const StopHint = `Enter "q" to return to Input (wait until loop has ended)`

// maxNumLen bounds the width of the numeric readout.
const maxNumLen = 1 << 8
