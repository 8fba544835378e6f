// Package derive turns raw source content into samples.
package derive

import (
	"codeberg.org/mutker/barmeter/internal/errors"
	"codeberg.org/mutker/barmeter/internal/source"
)

// Deriver reads a source and applies its method. It owns the method state
// and is not safe for concurrent use.
type Deriver struct {
	reader source.Reader
	method Method
}

func New(reader source.Reader, method Method) *Deriver {
	return &Deriver{
		reader: reader,
		method: method,
	}
}

// Method returns the active method and its current state.
func (d *Deriver) Method() Method {
	return d.method
}

// Derive reads path and returns the method's result divided by scale.
// Results that are not finite numbers are errors. Nothing is mutated when
// an error is returned.
func (d *Deriver) Derive(path string, scale, spf float64) (float64, error) {
	errFactory := errors.New()

	if d.method == nil {
		return 0, errFactory.New(errors.ErrInvalidMethod)
	}
	if scale == 0 {
		return 0, errFactory.WithMessage(errors.ErrDivisionByZero, "scale is zero")
	}

	lines, err := d.reader.ReadLines(path)
	if err != nil {
		return 0, err
	}

	return d.method.derive(lines, spf, scale)
}
