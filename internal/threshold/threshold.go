// Package threshold decides which samples fall in the logging band and
// appends them to the sample log.
package threshold

import (
	"fmt"
	"os"
	"time"

	"codeberg.org/mutker/barmeter/internal/errors"
	"codeberg.org/mutker/barmeter/internal/numeric"
	"github.com/spf13/afero"
)

const (
	defaultFilePerm = 0o644
	timestampLayout = "2006-01-02 15:04:05"
)

// Band is the logging range. Inclusive bands match samples inside
// [Min, Max]; exclusive bands match samples at or beyond either bound.
type Band struct {
	Min, Max  float64
	Inclusive bool
}

// ShouldLog reports whether v falls in the band.
func (b Band) ShouldLog(v float64) bool {
	if b.Inclusive {
		return v >= b.Min && v <= b.Max
	}
	return v <= b.Min || v >= b.Max
}

// Writer appends sample records to a log file.
type Writer struct {
	fs  afero.Fs
	now func() time.Time
}

// NewWriter returns a Writer on fs. A nil fs uses the OS filesystem.
func NewWriter(fs afero.Fs) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Writer{fs: fs, now: time.Now}
}

// WithClock replaces the timestamp source.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Append writes `<timestamp> in "<source>": <sample>` to logPath.
func (w *Writer) Append(logPath, sourcePath string, v float64) error {
	errFactory := errors.New()

	f, err := w.fs.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultFilePerm)
	if err != nil {
		return errFactory.Wrap(errors.ErrLogWriteFailure, err)
	}

	line := fmt.Sprintf("%s in \"%s\": %s\n", w.now().Format(timestampLayout), sourcePath, numeric.Format(v))
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return errFactory.Wrap(errors.ErrLogWriteFailure, err)
	}

	if err := f.Close(); err != nil {
		return errFactory.Wrap(errors.ErrLogWriteFailure, err)
	}
	return nil
}
