package derive

import (
	"math"
	"strconv"
	"strings"

	"codeberg.org/mutker/barmeter/internal/errors"
	"codeberg.org/mutker/barmeter/internal/numeric"
	"codeberg.org/mutker/barmeter/internal/source"
)

// Method codes as used in configuration.
const (
	MethodInstant = iota
	MethodRate
	MethodShare
	MethodDelta
)

// Method is one derivation algorithm together with the state it carries
// between cycles. Implementations mutate their state only when a
// derivation succeeds.
type Method interface {
	// Code returns the configuration code of the method.
	Code() int
	// Info renders the method's parameters and state as methodInfo fields.
	Info() []string

	// derive returns the scaled result and commits the new state only
	// when that result is a finite number.
	derive(lines []string, spf, scale float64) (float64, error)
}

// Instant reports the number found on Line.
type Instant struct {
	Line int
}

// Rate reports the per-second change of the number found on Line.
type Rate struct {
	Line     int
	Previous float64
}

// Share reports the complementary fraction of Field's change against the
// change of the sum of all fields on Line (excluding the leading label).
// With the idle column of /proc/stat this is CPU load.
type Share struct {
	Line          int
	Field         int
	PreviousTotal float64
	PreviousValue float64
}

// Delta reports the per-second change of Field on Line.
type Delta struct {
	Line     int
	Field    int
	Previous float64
}

func (*Instant) Code() int { return MethodInstant }
func (*Rate) Code() int    { return MethodRate }
func (*Share) Code() int   { return MethodShare }
func (*Delta) Code() int   { return MethodDelta }

func (m *Instant) Info() []string {
	return []string{strconv.Itoa(m.Line)}
}

func (m *Rate) Info() []string {
	return []string{strconv.Itoa(m.Line), numeric.Format(m.Previous)}
}

func (m *Share) Info() []string {
	return []string{
		strconv.Itoa(m.Line),
		strconv.Itoa(m.Field),
		numeric.Format(m.PreviousTotal),
		numeric.Format(m.PreviousValue),
	}
}

func (m *Delta) Info() []string {
	return []string{strconv.Itoa(m.Line), strconv.Itoa(m.Field), numeric.Format(m.Previous)}
}

func (m *Instant) derive(lines []string, _, scale float64) (float64, error) {
	line, err := source.Line(lines, m.Line)
	if err != nil {
		return 0, err
	}
	return finite(numeric.Parse(line) / scale)
}

func (m *Rate) derive(lines []string, spf, scale float64) (float64, error) {
	line, err := source.Line(lines, m.Line)
	if err != nil {
		return 0, err
	}
	if spf == 0 {
		return 0, errZeroFrame()
	}

	current := numeric.Parse(line)
	out, err := finite((current - m.Previous) / spf / scale)
	if err != nil {
		return 0, err
	}
	m.Previous = current

	return out, nil
}

func (m *Share) derive(lines []string, spf, scale float64) (float64, error) {
	fields, err := lineFields(lines, m.Line)
	if err != nil {
		return 0, err
	}

	var newTotal float64
	for i := 1; i < len(fields); i++ {
		v, err := parseField(fields, i)
		if err != nil {
			return 0, err
		}
		newTotal += v
	}

	newValue, err := parseField(fields, m.Field)
	if err != nil {
		return 0, err
	}
	if spf == 0 {
		return 0, errZeroFrame()
	}

	total := (newTotal - m.PreviousTotal) / spf
	value := (newValue - m.PreviousValue) / spf
	if total == 0 {
		return 0, errors.New().WithMessage(errors.ErrDivisionByZero, "total did not change between frames")
	}

	out, err := finite((total - value) / total / scale)
	if err != nil {
		return 0, err
	}
	m.PreviousTotal = newTotal
	m.PreviousValue = newValue

	return out, nil
}

func (m *Delta) derive(lines []string, spf, scale float64) (float64, error) {
	fields, err := lineFields(lines, m.Line)
	if err != nil {
		return 0, err
	}

	current, err := parseField(fields, m.Field)
	if err != nil {
		return 0, err
	}
	if spf == 0 {
		return 0, errZeroFrame()
	}

	out, err := finite((current - m.Previous) / spf / scale)
	if err != nil {
		return 0, err
	}
	m.Previous = current

	return out, nil
}

// NewMethod builds the method selected by code from its methodInfo fields.
// Line and field indices are required and must be non-negative integers;
// stored previous readings are optional and parsed leniently.
func NewMethod(code int, info []string) (Method, error) {
	switch code {
	case MethodInstant:
		line, err := index(info, 0, "line")
		if err != nil {
			return nil, err
		}
		return &Instant{Line: line}, nil
	case MethodRate:
		line, err := index(info, 0, "line")
		if err != nil {
			return nil, err
		}
		return &Rate{Line: line, Previous: previous(info, 1)}, nil
	case MethodShare:
		line, err := index(info, 0, "line")
		if err != nil {
			return nil, err
		}
		field, err := index(info, 1, "field")
		if err != nil {
			return nil, err
		}
		return &Share{
			Line:          line,
			Field:         field,
			PreviousTotal: previous(info, 2),
			PreviousValue: previous(info, 3),
		}, nil
	case MethodDelta:
		line, err := index(info, 0, "line")
		if err != nil {
			return nil, err
		}
		field, err := index(info, 1, "field")
		if err != nil {
			return nil, err
		}
		return &Delta{Line: line, Field: field, Previous: previous(info, 2)}, nil
	default:
		return nil, errors.New().WithData(errors.ErrInvalidMethod, code)
	}
}

func index(info []string, i int, name string) (int, error) {
	if i >= len(info) {
		return 0, errors.New().WithMessage(errors.ErrInvalidMethod, "missing "+name+" index in methodInfo")
	}

	v, err := strconv.Atoi(strings.TrimSpace(info[i]))
	if err != nil || v < 0 {
		return 0, errors.New().WithData(errors.ErrInvalidMethod, struct {
			Field string
			Value string
		}{
			Field: name,
			Value: info[i],
		})
	}
	return v, nil
}

func previous(info []string, i int) float64 {
	if i >= len(info) {
		return 0
	}
	return numeric.Parse(info[i])
}

func lineFields(lines []string, i int) ([]string, error) {
	line, err := source.Line(lines, i)
	if err != nil {
		return nil, err
	}
	return strings.Fields(line), nil
}

func parseField(fields []string, i int) (float64, error) {
	if i >= len(fields) {
		return 0, errors.New().WithData(errors.ErrMalformedField, struct {
			Index  int
			Fields int
		}{
			Index:  i,
			Fields: len(fields),
		}).WithMessage("field index out of range")
	}

	field := fields[i]
	if !isDecimal(field) {
		return 0, errors.New().WithData(errors.ErrMalformedField, field)
	}

	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, errors.New().Wrap(errors.ErrMalformedField, err)
	}
	return v, nil
}

// isDecimal accepts plain decimal and exponent notation only, so words
// such as "nan" or "inf" and hex floats are not numbers here.
func isDecimal(s string) bool {
	return strings.ContainsAny(s, "0123456789") && strings.Trim(s, "+-.0123456789eE") == ""
}

// finite rejects NaN and infinite results, which can arise from extreme
// but well-formed readings or settings.
func finite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New().WithData(errors.ErrMalformedField, v).WithMessage("derived value is not finite")
	}
	return v, nil
}

func errZeroFrame() error {
	return errors.New().WithMessage(errors.ErrDivisionByZero, "seconds per frame is zero")
}
