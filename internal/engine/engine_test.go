package engine_test

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"codeberg.org/mutker/barmeter/internal/catalog"
	"codeberg.org/mutker/barmeter/internal/config"
	"codeberg.org/mutker/barmeter/internal/derive"
	"codeberg.org/mutker/barmeter/internal/engine"
	"codeberg.org/mutker/barmeter/internal/errors"
	"codeberg.org/mutker/barmeter/internal/source"
	"codeberg.org/mutker/barmeter/internal/threshold"
	"github.com/muesli/termenv"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	fs     afero.Fs
	cfg    *config.Config
	out    *bytes.Buffer
	slept  []time.Duration
	engine *engine.Engine
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Path = "/temp"
	cfg.Log = "/samples.log"
	cfg.LogLen = 3
	cfg.BarLen = 8
	return cfg
}

func newFixture(t *testing.T, cfg *config.Config, logFs afero.Fs) *fixture {
	t.Helper()

	f := &fixture{
		fs:  afero.NewMemMapFs(),
		cfg: cfg,
		out: &bytes.Buffer{},
	}
	require.NoError(t, afero.WriteFile(f.fs, "/temp", []byte("45000\n"), 0o644))

	if logFs == nil {
		logFs = f.fs
	}
	clock := func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

	f.engine = engine.New(cfg, engine.Options{
		Reader:  source.NewReader(f.fs),
		Logs:    threshold.NewWriter(logFs).WithClock(clock),
		Out:     f.out,
		Profile: termenv.Ascii,
		Sleep: func(_ context.Context, d time.Duration) error {
			f.slept = append(f.slept, d)
			return nil
		},
	})
	return f
}

func (f *fixture) write(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(f.fs, "/temp", []byte(content), 0o644))
}

type stopAfter struct {
	calls int
	limit int
}

func (k *stopAfter) Stop() bool {
	k.calls++
	return k.calls > k.limit
}

func (*stopAfter) Close() error { return nil }

func TestCycleInstant(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	require.True(t, f.engine.Runnable())

	res := f.engine.Cycle(context.Background())

	require.NoError(t, res.Err)
	assert.InDelta(t, 45.0, res.Sample, 1e-9)
	assert.Equal(t, "20.0[||      ]100.0 | 45.000  ", res.Line)
	assert.Empty(t, f.engine.State().Error)
	assert.Equal(t, []string{"", "", res.Line}, f.engine.State().Buffer.Lines())
	assert.Contains(t, f.out.String(), "\r"+res.Line+"\x1b[0K\n")
}

func TestCycleSourceFailure(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	require.NoError(t, f.fs.Remove("/temp"))

	res := f.engine.Cycle(context.Background())

	require.Error(t, res.Err)
	assert.True(t, errors.HasCode(res.Err, errors.ErrSourceUnreadable))
	assert.Zero(t, res.Sample)
	assert.Equal(t, "20.0[        ]100.0 | 0.0000  ", res.Line)
	assert.Equal(t, engine.MsgGetContent, f.engine.State().Error)
	assert.Contains(t, f.out.String(), "\r"+engine.MsgGetContent+"\x1b[0K\n")
	assert.Equal(t, res.Line, f.engine.State().Buffer.Lines()[2], "overlay is not stored")
}

func TestCycleErrorIsSticky(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	require.NoError(t, f.fs.Remove("/temp"))
	f.engine.Cycle(context.Background())

	f.write(t, "50000\n")
	res := f.engine.Cycle(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, engine.MsgGetContent, f.engine.State().Error)
}

func TestCycleClearErrors(t *testing.T) {
	cfg := testConfig()
	cfg.ClearErrors = true
	f := newFixture(t, cfg, nil)
	require.NoError(t, f.fs.Remove("/temp"))
	f.engine.Cycle(context.Background())
	require.Equal(t, engine.MsgGetContent, f.engine.State().Error)

	f.write(t, "50000\n")
	f.engine.Cycle(context.Background())

	assert.Empty(t, f.engine.State().Error)
}

func TestCycleLogsOutsideBand(t *testing.T) {
	cfg := testConfig()
	cfg.DoLog = true
	cfg.LogMin = 0
	cfg.LogMax = 40
	f := newFixture(t, cfg, nil)

	f.engine.Cycle(context.Background())
	f.write(t, "30000\n")
	f.engine.Cycle(context.Background())

	data, err := afero.ReadFile(f.fs, "/samples.log")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 12:30:00 in \"/temp\": 45.0\n", string(data))
}

func TestCycleLogsInsideBand(t *testing.T) {
	cfg := testConfig()
	cfg.DoLog = true
	cfg.LogInc = true
	cfg.LogMin = 0
	cfg.LogMax = 40
	f := newFixture(t, cfg, nil)

	f.engine.Cycle(context.Background())
	f.write(t, "30000\n")
	f.engine.Cycle(context.Background())

	data, err := afero.ReadFile(f.fs, "/samples.log")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 12:30:00 in \"/temp\": 30.0\n", string(data))
}

func TestCycleLoggingDisabled(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	f.engine.Cycle(context.Background())

	exists, err := afero.Exists(f.fs, "/samples.log")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCycleLogWriteFailure(t *testing.T) {
	cfg := testConfig()
	cfg.DoLog = true
	f := newFixture(t, cfg, afero.NewReadOnlyFs(afero.NewMemMapFs()))

	res := f.engine.Cycle(context.Background())

	require.Error(t, res.Err)
	assert.True(t, errors.HasCode(res.Err, errors.ErrLogWriteFailure))
	assert.InDelta(t, 45.0, res.Sample, 1e-9)
	assert.Equal(t, engine.MsgWriteLog, f.engine.State().Error)
}

func TestCycleRenderFailure(t *testing.T) {
	cfg := testConfig()
	cfg.BarMin = 50
	cfg.BarMax = 50
	f := newFixture(t, cfg, nil)

	res := f.engine.Cycle(context.Background())

	require.Error(t, res.Err)
	assert.True(t, errors.HasCode(res.Err, errors.ErrDivisionByZero))
	assert.Equal(t, "50.0[        ]50.0 | 45.000  ", res.Line)
	assert.Equal(t, engine.MsgRenderBar, f.engine.State().Error)
}

func TestCycleRateKeepsState(t *testing.T) {
	cfg := testConfig()
	cfg.Scale = 1
	cfg.Method = derive.MethodRate
	cfg.SPF = 2
	f := newFixture(t, cfg, nil)

	f.write(t, "100\n")
	res := f.engine.Cycle(context.Background())
	assert.InDelta(t, 50.0, res.Sample, 1e-9)

	// Unrelated settings leave the method state alone.
	_, err := f.engine.Apply("barLen", "10")
	require.NoError(t, err)

	f.write(t, "160\n")
	res = f.engine.Cycle(context.Background())
	assert.InDelta(t, 30.0, res.Sample, 1e-9)
}

func TestCycleFailureKeepsState(t *testing.T) {
	cfg := testConfig()
	cfg.Scale = 1
	cfg.Method = derive.MethodRate
	f := newFixture(t, cfg, nil)

	f.write(t, "100\n")
	f.engine.Cycle(context.Background())

	require.NoError(t, f.fs.Remove("/temp"))
	res := f.engine.Cycle(context.Background())
	require.Error(t, res.Err)

	f.write(t, "130\n")
	res = f.engine.Cycle(context.Background())
	assert.InDelta(t, 30.0, res.Sample, 1e-9)
}

func TestApplyMethodInfoResetsState(t *testing.T) {
	cfg := testConfig()
	cfg.Scale = 1
	cfg.Method = derive.MethodRate
	f := newFixture(t, cfg, nil)

	f.write(t, "100\n")
	f.engine.Cycle(context.Background())

	value, err := f.engine.Apply("methodinfo", "0 90")
	require.NoError(t, err)
	assert.Equal(t, "['0', '90.0']", value)

	res := f.engine.Cycle(context.Background())
	assert.InDelta(t, 10.0, res.Sample, 1e-9)
}

func TestCycleNotANumberField(t *testing.T) {
	cfg := testConfig()
	cfg.Scale = 1
	cfg.Method = derive.MethodDelta
	cfg.MethodInfo = []string{"0", "1", "40"}
	f := newFixture(t, cfg, nil)

	f.write(t, "cpu nan\n")
	var res engine.Result
	require.NotPanics(t, func() { res = f.engine.Cycle(context.Background()) })

	require.Error(t, res.Err)
	assert.True(t, errors.HasCode(res.Err, errors.ErrMalformedField))
	assert.Zero(t, res.Sample)
	assert.Equal(t, "20.0[        ]100.0 | 0.0000  ", res.Line)
	assert.Equal(t, engine.MsgGetContent, f.engine.State().Error)

	f.write(t, "cpu 55\n")
	res = f.engine.Cycle(context.Background())
	require.NoError(t, res.Err)
	assert.InDelta(t, 15.0, res.Sample, 1e-9)
}

func TestValueMethodInfo(t *testing.T) {
	cfg := testConfig()
	cfg.Scale = 1
	cfg.Method = derive.MethodDelta
	cfg.MethodInfo = []string{"0", "1"}
	f := newFixture(t, cfg, nil)

	value, err := f.engine.Value("methodInfo")
	require.NoError(t, err)
	assert.Equal(t, "['0', '1', '0.0']", value)

	f.write(t, "cpu 40\n")
	f.engine.Cycle(context.Background())

	value, err = f.engine.Value("METHODINFO")
	require.NoError(t, err)
	assert.Equal(t, "['0', '1', '40.0']", value)

	value, err = f.engine.Value("method")
	require.NoError(t, err)
	assert.Equal(t, "3", value)

	_, err = f.engine.Value("nope")
	assert.True(t, errors.HasCode(err, errors.ErrUnknownSetting))
}

func TestApplyInvalidMethodInfoKeepsSetting(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	value, err := f.engine.Apply("methodInfo", "x")
	require.Error(t, err)
	assert.Equal(t, "['x']", value)
	assert.False(t, f.engine.Runnable())
}

func TestApplyInvalidMethod(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	value, err := f.engine.Apply("method", "7")
	require.Error(t, err)
	assert.Equal(t, "7", value, "setting kept")
	assert.True(t, errors.HasCode(err, errors.ErrInvalidMethod))
	assert.False(t, f.engine.Runnable())

	err = f.engine.Run(context.Background(), &stopAfter{})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidMethod))

	_, err = f.engine.Apply("method", "0")
	require.NoError(t, err)
	assert.True(t, f.engine.Runnable())
}

func TestApplyPath(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	_, err := f.engine.Apply("path", "/missing")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrSourceUnreadable))
	assert.Equal(t, "/temp", f.cfg.Path, "path unchanged")
	assert.False(t, f.engine.Runnable())

	require.NoError(t, afero.WriteFile(f.fs, "/other", []byte("1\n"), 0o644))
	value, err := f.engine.Apply("PATH", "/other")
	require.NoError(t, err)
	assert.Equal(t, "/other", value)
	assert.True(t, f.engine.Runnable())
}

func TestApplyUnknownKey(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	_, err := f.engine.Apply("nope", "1")
	assert.True(t, errors.HasCode(err, errors.ErrUnknownSetting))
}

func TestApplyNumeric(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	value, err := f.engine.Apply("scale", "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "0.0", value)

	value, err = f.engine.Apply("doLog", "2")
	require.NoError(t, err)
	assert.Equal(t, "0", value)
}

func TestUseType(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	require.NoError(t, afero.WriteFile(f.fs, "/proc/stat", []byte("cpu 1 2 3\n"), 0o644))

	err := f.engine.UseType(catalog.Type{Name: "missing", Path: "/nope", Scale: 1})
	require.Error(t, err)
	assert.False(t, f.engine.Runnable())

	err = f.engine.UseType(catalog.Type{
		Name:       "cpu",
		Path:       "/proc/stat",
		Scale:      1,
		Method:     derive.MethodShare,
		MethodInfo: []string{"0", "1"},
	})
	require.NoError(t, err)
	assert.True(t, f.engine.Runnable())
	assert.Equal(t, "/proc/stat", f.cfg.Path)
	assert.Equal(t, derive.MethodShare, f.cfg.Method)
	assert.Equal(t, []string{"0", "1"}, f.cfg.MethodInfo)
	assert.Equal(t, derive.MethodShare, f.engine.State().Deriver.Method().Code())
}

func TestNewWithMissingSource(t *testing.T) {
	cfg := testConfig()
	cfg.Path = "/missing"
	f := newFixture(t, cfg, nil)

	assert.False(t, f.engine.Runnable())

	err := f.engine.Run(context.Background(), &stopAfter{limit: 5})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrNotRunnable))
	assert.Empty(t, f.out.String())
}

func TestRunStopsOnKey(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	keys := &stopAfter{limit: 2}

	require.NoError(t, f.engine.Run(context.Background(), keys))

	out := f.out.String()
	assert.Contains(t, out, engine.StopHint+"\r\n\n\n\n")
	assert.Equal(t, 2, bytes.Count(f.out.Bytes(), []byte("\x1b[3F")))
	assert.Equal(t, []time.Duration{time.Second, time.Second}, f.slept)
	assert.Nil(t, f.engine.State().Buffer, "buffer released on exit")
}

func TestRunNegativeSPF(t *testing.T) {
	cfg := testConfig()
	cfg.SPF = -3
	f := newFixture(t, cfg, nil)

	require.NoError(t, f.engine.Run(context.Background(), &stopAfter{limit: 1}))
	assert.Equal(t, []time.Duration{0}, f.slept)
}

func TestRunNotANumberSPF(t *testing.T) {
	cfg := testConfig()
	cfg.SPF = math.NaN()
	f := newFixture(t, cfg, nil)

	require.NoError(t, f.engine.Run(context.Background(), &stopAfter{limit: 1}))
	assert.Equal(t, []time.Duration{0}, f.slept)
}

func TestRunHugeSPF(t *testing.T) {
	cfg := testConfig()
	cfg.SPF = 1e300
	f := newFixture(t, cfg, nil)

	require.NoError(t, f.engine.Run(context.Background(), &stopAfter{limit: 1}))
	assert.Equal(t, []time.Duration{time.Duration(math.MaxInt64)}, f.slept)
}

func TestCycleHugeReadoutWidth(t *testing.T) {
	cfg := testConfig()
	cfg.NumLen = math.MaxInt32
	f := newFixture(t, cfg, nil)

	res := f.engine.Cycle(context.Background())

	require.NoError(t, res.Err)
	assert.Len(t, res.Line, len("20.0[||      ]100.0 | ")+256+2)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	f := newFixture(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cycles := 0
	e := engine.New(cfg, engine.Options{
		Reader:  source.NewReader(f.fs),
		Out:     f.out,
		Profile: termenv.Ascii,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cycles++
			if cycles == 3 {
				cancel()
			}
			return ctx.Err()
		},
	})

	require.NoError(t, e.Run(ctx, &stopAfter{limit: 100}))
	assert.Equal(t, 3, cycles)
}

func TestRunMinimumHeight(t *testing.T) {
	cfg := testConfig()
	cfg.LogLen = 0
	f := newFixture(t, cfg, nil)

	require.NoError(t, f.engine.Run(context.Background(), &stopAfter{limit: 1}))
	assert.Contains(t, f.out.String(), engine.StopHint+"\r\n\n\x1b[1F\r20.0[")
}

func TestColorKey(t *testing.T) {
	assert.Equal(t, "red: 31\ngreen: 32\nyellow: 33\nblue: 34\nmagenta: 35\ncyan: 36\n", engine.ColorKey())
}
