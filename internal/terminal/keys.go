package terminal

import (
	"io"
	"os"

	"codeberg.org/mutker/barmeter/internal/errors"
	"github.com/charmbracelet/x/term"
)

const (
	StopKey = 'q'
	ctrlC   = 0x03
)

// Keys reports pending keypresses without blocking.
type Keys interface {
	// Stop reports whether a stop key has been pressed since the last call.
	Stop() bool
	// Close restores the terminal state.
	Close() error
}

type inputKeys struct {
	in    *os.File
	state *term.State
}

// OpenKeys puts in into raw mode, when it is a terminal, so single
// keypresses are seen without waiting for Enter.
func OpenKeys(in *os.File) (Keys, error) {
	k := &inputKeys{in: in}

	if term.IsTerminal(in.Fd()) {
		state, err := term.MakeRaw(in.Fd())
		if err != nil {
			return nil, errors.New().Wrap(errors.ErrTerminal, err)
		}
		k.state = state
	}

	return k, nil
}

func (k *inputKeys) Stop() bool {
	for {
		ready, err := inputReady(k.in)
		if err != nil || !ready {
			return false
		}

		var buf [1]byte
		n, err := k.in.Read(buf[:])
		if err == io.EOF || n == 0 {
			return false
		}
		if err != nil {
			return false
		}

		if IsStopKey(buf[0]) {
			return true
		}
	}
}

func (k *inputKeys) Close() error {
	if k.state == nil {
		return nil
	}
	if err := term.Restore(k.in.Fd(), k.state); err != nil {
		return errors.New().Wrap(errors.ErrTerminal, err)
	}
	return nil
}

// IsStopKey reports whether b ends the sampling loop: 'q' or, in raw
// mode, Ctrl-C.
func IsStopKey(b byte) bool {
	return b == StopKey || b == 'Q' || b == ctrlC
}

// NoKeys never reports a keypress. It is used when stdin is not usable.
type NoKeys struct{}

func (NoKeys) Stop() bool   { return false }
func (NoKeys) Close() error { return nil }
