// Package source reads raw counter files as indexable lines.
package source

import (
	"strings"

	"codeberg.org/mutker/barmeter/internal/errors"
	"github.com/spf13/afero"
)

// Reader provides the lines of a raw text source.
type Reader interface {
	ReadLines(path string) ([]string, error)
	Check(path string) error
}

type fsReader struct {
	fs afero.Fs
}

// NewReader returns a Reader over fs. A nil fs uses the OS filesystem.
func NewReader(fs afero.Fs) Reader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &fsReader{fs: fs}
}

// ReadLines returns the file's lines without their trailing newlines.
func (r *fsReader) ReadLines(path string) ([]string, error) {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrSourceUnreadable, err)
	}
	return SplitLines(string(data)), nil
}

// Check reports whether path can be opened for reading.
func (r *fsReader) Check(path string) error {
	f, err := r.fs.Open(path)
	if err != nil {
		return errors.New().Wrap(errors.ErrSourceUnreadable, err)
	}
	return f.Close()
}

// SplitLines splits content on '\n'. A trailing newline does not start an
// extra empty line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Line returns lines[index], or a SourceUnreadable error when index is out
// of range.
func Line(lines []string, index int) (string, error) {
	if index < 0 || index >= len(lines) {
		return "", errors.New().WithData(errors.ErrSourceUnreadable, struct {
			Index int
			Lines int
		}{
			Index: index,
			Lines: len(lines),
		}).WithMessage("line index out of range")
	}
	return lines[index], nil
}
