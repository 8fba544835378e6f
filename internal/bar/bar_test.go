package bar_test

import (
	"math"
	"strings"
	"testing"

	"codeberg.org/mutker/barmeter/internal/bar"
	"codeberg.org/mutker/barmeter/internal/errors"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func style(profile termenv.Profile) bar.Style {
	return bar.Style{
		Min:         0,
		Max:         100,
		Length:      10,
		Medium:      0.7,
		High:        0.85,
		Char:        "|",
		LowColor:    32,
		MediumColor: 33,
		HighColor:   31,
		Profile:     profile,
	}
}

func TestRenderPlain(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want string
	}{
		{"at min", 0, "0.0[          ]100.0"},
		{"at max", 100, "0.0[||||||||||]100.0"},
		{"half", 50, "0.0[|||||     ]100.0"},
		{"below min clamps", -40, "0.0[          ]100.0"},
		{"above max clamps", 250, "0.0[||||||||||]100.0"},
		{"rounds half to even", 25, "0.0[||        ]100.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := bar.Render(tt.v, style(termenv.Ascii))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRenderFillCount(t *testing.T) {
	s := style(termenv.Ascii)
	s.Min, s.Max, s.Length = 20, 100, 50

	out, err := bar.Render(20, s)
	require.NoError(t, err)
	assert.Equal(t, 0, strings.Count(out, "|"))

	out, err = bar.Render(100, s)
	require.NoError(t, err)
	assert.Equal(t, 50, strings.Count(out, "|"))
}

func TestRenderColors(t *testing.T) {
	out, err := bar.Render(100, style(termenv.ANSI))
	require.NoError(t, err)

	want := "0.0[\x1b[32m" + "|||||||" + "\x1b[33m" + "||" + "\x1b[31m" + "|" + "\x1b[0m]100.0"
	assert.Equal(t, want, out)
}

func TestRenderNoEscalationBelowThreshold(t *testing.T) {
	out, err := bar.Render(60, style(termenv.ANSI))
	require.NoError(t, err)

	assert.Contains(t, out, "\x1b[32m")
	assert.NotContains(t, out, "\x1b[33m")
	assert.NotContains(t, out, "\x1b[31m")
}

func TestRenderClampsColorsAndLength(t *testing.T) {
	s := style(termenv.ANSI)
	s.LowColor = 5
	s.Length = -4

	out, err := bar.Render(50, s)
	require.NoError(t, err)
	assert.Equal(t, "0.0[\x1b[31m\x1b[0m]100.0", out)

	assert.Equal(t, 31, bar.ClampColor(0))
	assert.Equal(t, 36, bar.ClampColor(99))
	assert.Equal(t, 34, bar.ClampColor(34.7))
}

func TestRenderZeroSpan(t *testing.T) {
	s := style(termenv.Ascii)
	s.Max = s.Min

	_, err := bar.Render(1, s)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrDivisionByZero))
	assert.Equal(t, "0.0[          ]0.0", bar.Blank(s))
}

func TestRenderNotANumber(t *testing.T) {
	s := style(termenv.Ascii)

	var (
		out string
		err error
	)
	require.NotPanics(t, func() { out, err = bar.Render(math.NaN(), s) })
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))
	assert.Empty(t, out)
}

func TestRenderInfiniteSample(t *testing.T) {
	s := style(termenv.Ascii)

	out, err := bar.Render(math.Inf(1), s)
	require.NoError(t, err)
	assert.Equal(t, "0.0[||||||||||]100.0", out)

	out, err = bar.Render(math.Inf(-1), s)
	require.NoError(t, err)
	assert.Equal(t, "0.0[          ]100.0", out)
}

func TestRenderInfiniteBounds(t *testing.T) {
	s := style(termenv.Ascii)
	s.Min = math.Inf(-1)

	require.NotPanics(t, func() {
		_, err := bar.Render(50, s)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))
	})
}

func TestRenderExtremeLength(t *testing.T) {
	s := style(termenv.Ascii)

	s.Length = math.NaN()
	out, err := bar.Render(50, s)
	require.NoError(t, err)
	assert.Equal(t, "0.0[]100.0", out)

	s.Length = 1e300
	out, err = bar.Render(100, s)
	require.NoError(t, err)
	assert.Equal(t, 4096, strings.Count(out, "|"))
	assert.Equal(t, len("0.0[]100.0")+4096, len(bar.Blank(s)))

	assert.Equal(t, 31, bar.ClampColor(math.NaN()))
}
