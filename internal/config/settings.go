package config

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"codeberg.org/mutker/barmeter/internal/errors"
	"codeberg.org/mutker/barmeter/internal/numeric"
	"github.com/mitchellh/mapstructure"
)

// Keys returns the names of the user-editable settings in display order.
func Keys() []string {
	keys := make([]string, len(settings))
	for i, s := range settings {
		keys[i] = s.key
	}
	return keys
}

// CanonicalKey returns the setting name matching key case-insensitively.
func CanonicalKey(key string) (string, bool) {
	s, ok := lookup(key)
	return s.key, ok
}

// Set assigns a setting from user input. Numbers go through the lenient
// numeric parser, flags are true only for exactly 1, barChr keeps the
// first character (a space when empty) and methodInfo is split on
// whitespace. Set does not validate the result.
func (c *Config) Set(key, value string) error {
	s, ok := lookup(key)
	if !ok {
		return errors.New().WithData(errors.ErrUnknownSetting, key)
	}

	var typed any
	switch s.kind {
	case kindFloat:
		typed = numeric.Parse(value)
	case kindInt:
		typed = int(math.Max(math.Min(numeric.Parse(value), math.MaxInt32), math.MinInt32))
	case kindBool:
		typed = numeric.Parse(value) == 1
	case kindChar:
		typed = string([]rune(value + " ")[:1])
	case kindList:
		// Assigned directly: decoding into an existing slice would keep
		// its trailing elements.
		c.MethodInfo = strings.Fields(value)
		return nil
	default:
		typed = value
	}

	if err := mapstructure.Decode(map[string]any{s.key: typed}, c); err != nil {
		return errors.New().Wrap(errors.ErrInvalidConfig, err)
	}
	return nil
}

// Value returns the display form of a setting.
func (c *Config) Value(key string) (string, error) {
	s, ok := lookup(key)
	if !ok {
		return "", errors.New().WithData(errors.ErrUnknownSetting, key)
	}

	values := map[string]any{}
	if err := mapstructure.Decode(c, &values); err != nil {
		return "", errors.New().Wrap(errors.ErrInternal, err)
	}

	switch v := values[s.key].(type) {
	case float64:
		return numeric.Format(v), nil
	case int:
		return strconv.Itoa(v), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case []string:
		return FormatList(v), nil
	case string:
		return v, nil
	default:
		return "", errors.New().WithData(errors.ErrInternal, s.key)
	}
}

// FormatList renders a list setting the way the prompt echoes it:
// ['1', '4'].
func FormatList(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = "'" + f + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Pair is one imported setting.
type Pair struct {
	Key   string
	Value string
}

// ParseImport reads "key: value" lines. Keys are matched
// case-insensitively and returned in canonical form; lines naming unknown
// keys are skipped.
func ParseImport(r io.Reader) ([]Pair, error) {
	var pairs []Pair

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		parts := strings.Split(strings.TrimRight(scanner.Text(), "\r")+":  ", ": ")

		key, ok := CanonicalKey(parts[0])
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{Key: key, Value: parts[1]})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.New().Wrap(errors.ErrImportFailed, err)
	}
	return pairs, nil
}
