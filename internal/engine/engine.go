// Package engine runs the sampling loop: read, derive, log, render and
// scroll one sample per frame.
package engine

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"codeberg.org/mutker/barmeter/internal/bar"
	"codeberg.org/mutker/barmeter/internal/catalog"
	"codeberg.org/mutker/barmeter/internal/config"
	"codeberg.org/mutker/barmeter/internal/derive"
	"codeberg.org/mutker/barmeter/internal/display"
	"codeberg.org/mutker/barmeter/internal/errors"
	"codeberg.org/mutker/barmeter/internal/faults"
	"codeberg.org/mutker/barmeter/internal/logger"
	"codeberg.org/mutker/barmeter/internal/numeric"
	"codeberg.org/mutker/barmeter/internal/source"
	"codeberg.org/mutker/barmeter/internal/terminal"
	"codeberg.org/mutker/barmeter/internal/threshold"
	"github.com/muesli/termenv"
)

// Options carries the collaborators of an Engine. Nil fields fall back to
// the OS filesystem, a no-op fault store and io.Discard.
type Options struct {
	Reader  source.Reader
	Logs    *threshold.Writer
	Faults  *faults.Recorder
	Logger  logger.Logger
	Out     io.Writer
	Profile termenv.Profile
	// Sleep waits between frames; it returns early with ctx's error.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Engine owns the State and runs cycles on it. It is not safe for
// concurrent use.
type Engine struct {
	state     State
	methodKey string

	reader  source.Reader
	logs    *threshold.Writer
	faults  *faults.Recorder
	log     logger.Logger
	out     io.Writer
	screen  *display.Screen
	profile termenv.Profile
	sleep   func(ctx context.Context, d time.Duration) error
}

func New(cfg *config.Config, opts Options) *Engine {
	if opts.Reader == nil {
		opts.Reader = source.NewReader(nil)
	}
	if opts.Logs == nil {
		opts.Logs = threshold.NewWriter(nil)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Faults == nil {
		opts.Faults = faults.NewRecorder(nil, opts.Logger)
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}

	e := &Engine{
		state:   State{Config: cfg},
		reader:  opts.Reader,
		logs:    opts.Logs,
		faults:  opts.Faults,
		log:     opts.Logger,
		out:     opts.Out,
		screen:  display.NewScreen(opts.Out),
		profile: opts.Profile,
		sleep:   opts.Sleep,
	}

	e.Reconfigure()

	if err := e.reader.Check(cfg.Path); err != nil {
		e.log.Warn().Err(err).Str("path", cfg.Path).Msg("Unable to open source, sampling disabled")
	} else {
		e.state.Runnable = true
	}

	return e
}

// State returns the engine state. Callers must not retain it across cycles.
func (e *Engine) State() *State {
	return &e.state
}

// Config returns the live configuration.
func (e *Engine) Config() *config.Config {
	return e.state.Config
}

// Runnable reports whether Run will start.
func (e *Engine) Runnable() bool {
	return e.state.Runnable && e.state.MethodErr == nil
}

// Reconfigure rebuilds the derivation state when the configured method or
// its parameters changed since the last build. Unchanged settings keep the
// accumulated state.
func (e *Engine) Reconfigure() error {
	cfg := e.state.Config
	key := fmt.Sprintf("%d %q", cfg.Method, cfg.MethodInfo)
	if key == e.methodKey && e.state.Deriver != nil {
		return nil
	}

	method, err := derive.NewMethod(cfg.Method, cfg.MethodInfo)
	e.methodKey = key
	e.state.MethodErr = err
	if err != nil {
		e.state.Deriver = derive.New(e.reader, nil)
		e.log.Warn().Err(err).Int("method", cfg.Method).Strs("method_info", cfg.MethodInfo).Msg("Invalid method")
		return err
	}

	e.state.Deriver = derive.New(e.reader, method)
	e.log.Debug().Int("method", cfg.Method).Strs("method_info", cfg.MethodInfo).Msg("Method configured")
	return nil
}

// Apply sets one setting from user input and returns its new display
// value. Source and log paths must be openable: a path that is not leaves
// the setting unchanged, returns an empty value and disables sampling until
// one is set successfully.
func (e *Engine) Apply(key, value string) (string, error) {
	canonical, ok := config.CanonicalKey(key)
	if !ok {
		return "", errors.New().WithData(errors.ErrUnknownSetting, key)
	}

	if canonical == "path" || canonical == "log" {
		if err := e.reader.Check(value); err != nil {
			e.state.Runnable = false
			return "", err
		}
		e.state.Runnable = true
	}

	if err := e.state.Config.Set(canonical, value); err != nil {
		return "", err
	}

	// The setting is kept even when the method rejects it; Run refuses
	// to start until the method is valid again.
	if canonical == "method" || canonical == "methodInfo" {
		if err := e.Reconfigure(); err != nil {
			value, _ := e.state.Config.Value(canonical)
			return value, err
		}
	}

	return e.Value(canonical)
}

// Value returns the display form of a setting. methodInfo shows the live
// method parameters and previous readings while the method is valid.
func (e *Engine) Value(key string) (string, error) {
	canonical, ok := config.CanonicalKey(key)
	if !ok {
		return "", errors.New().WithData(errors.ErrUnknownSetting, key)
	}

	if canonical == "methodInfo" && e.state.MethodErr == nil {
		if method := e.state.Deriver.Method(); method != nil {
			return config.FormatList(method.Info()), nil
		}
	}
	return e.state.Config.Value(canonical)
}

// UseType applies a catalog preset. The preset's path must be openable.
func (e *Engine) UseType(t catalog.Type) error {
	if err := e.reader.Check(t.Path); err != nil {
		e.state.Runnable = false
		return err
	}

	cfg := e.state.Config
	cfg.Path = t.Path
	cfg.Scale = t.Scale
	cfg.Method = t.Method
	cfg.MethodInfo = append([]string(nil), t.MethodInfo...)
	e.state.Runnable = true

	// Selecting a type always starts from the preset's state.
	e.methodKey = ""
	return e.Reconfigure()
}

// Cycle runs one read-derive-log-render-display pass. Failures are shown
// on the error line and recorded as faults; the sample falls back to 0.
func (e *Engine) Cycle(ctx context.Context) Result {
	cfg := e.state.Config
	var res Result

	sample, err := e.state.Deriver.Derive(cfg.Path, cfg.Scale, cfg.SPF)
	if err != nil {
		e.fail(ctx, &res, MsgGetContent, err)
		sample = 0
	}
	res.Sample = sample

	band := threshold.Band{Min: cfg.LogMin, Max: cfg.LogMax, Inclusive: cfg.LogInc}
	if cfg.DoLog && band.ShouldLog(sample) {
		if err := e.logs.Append(cfg.Log, cfg.Path, sample); err != nil {
			e.fail(ctx, &res, MsgWriteLog, err)
		}
	}

	style := e.barStyle()
	rendered, err := bar.Render(sample, style)
	if err != nil {
		e.fail(ctx, &res, MsgRenderBar, err)
		rendered = bar.Blank(style)
	}

	numLen := min(max(cfg.NumLen, 0), maxNumLen)
	res.Line = rendered + " | " + numeric.FixedWidth(numeric.Format(sample), numLen) + "  "

	if res.Err == nil {
		// A fault that recurs after a clean cycle is recorded again.
		e.faults.Reset()
		if cfg.ClearErrors {
			e.state.Error = ""
		}
	}

	if e.state.Buffer == nil {
		e.state.Buffer = display.NewBuffer(cfg.LogLen)
	}
	e.state.Buffer.Rotate(res.Line)
	if err := e.screen.Redraw(e.state.Buffer.Snapshot(e.state.Error)); err != nil {
		e.faults.Record(ctx, cfg.Path, err)
	}

	e.log.Debug().
		Float64("sample", sample).
		Str("path", cfg.Path).
		Int("method", cfg.Method).
		Bool("failed", res.Err != nil).
		Msg("Sample")

	return res
}

// Run starts the loop and blocks until a stop key is pressed or ctx is
// cancelled. Each frame completes before the stop conditions are checked
// again.
func (e *Engine) Run(ctx context.Context, keys terminal.Keys) error {
	if err := e.state.MethodErr; err != nil {
		return err
	}
	if !e.state.Runnable {
		return errors.New().New(errors.ErrNotRunnable)
	}

	cfg := e.state.Config
	e.state.Buffer = display.NewBuffer(cfg.LogLen)
	defer func() { e.state.Buffer = nil }()

	if _, err := io.WriteString(e.out, StopHint+"\r\n"); err != nil {
		return errors.New().Wrap(errors.ErrMainLoop, err)
	}
	if err := e.screen.Prime(e.state.Buffer.Len()); err != nil {
		return errors.New().Wrap(errors.ErrMainLoop, err)
	}

	e.log.Info().Str("path", cfg.Path).Float64("spf", cfg.SPF).Msg("Sampling started")
	defer e.log.Info().Msg("Sampling stopped")

	for {
		if ctx.Err() != nil || keys.Stop() {
			return nil
		}

		e.Cycle(ctx)

		if err := e.sleep(ctx, frameDuration(cfg.SPF)); err != nil {
			return nil
		}
	}
}

func (e *Engine) barStyle() bar.Style {
	cfg := e.state.Config
	return bar.Style{
		Min:         cfg.BarMin,
		Max:         cfg.BarMax,
		Length:      cfg.BarLen,
		Medium:      cfg.BarMed,
		High:        cfg.BarHi,
		Char:        cfg.BarChr,
		LowColor:    cfg.BarLoC,
		MediumColor: cfg.BarMedC,
		HighColor:   cfg.BarHiC,
		Profile:     e.profile,
	}
}

func (e *Engine) fail(ctx context.Context, res *Result, msg string, err error) {
	if res.Err == nil {
		res.Err = err
	}
	e.state.Error = msg
	e.faults.Record(ctx, e.state.Config.Path, err)
}

func frameDuration(spf float64) time.Duration {
	d := spf * float64(time.Second)
	switch {
	case !(d > 0):
		return 0
	case d >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ColorKey lists the palette codes for the prompt's color help.
func ColorKey() string {
	var b strings.Builder
	for i, name := range bar.ColorNames {
		fmt.Fprintf(&b, "%s: %d\n", name, bar.MinColor+i)
	}
	return b.String()
}
