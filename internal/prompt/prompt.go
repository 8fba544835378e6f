// Package prompt implements the line-oriented settings console that
// precedes and follows each sampling run.
package prompt

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"codeberg.org/mutker/barmeter/internal/catalog"
	"codeberg.org/mutker/barmeter/internal/config"
	"codeberg.org/mutker/barmeter/internal/engine"
	"codeberg.org/mutker/barmeter/internal/errors"
	"codeberg.org/mutker/barmeter/internal/faults"
	"codeberg.org/mutker/barmeter/internal/logger"
	"github.com/spf13/afero"
)

const recentFaults = 10

// RunFunc runs the sampling loop until it is stopped.
type RunFunc func(ctx context.Context) error

// Options carries the collaborators of a Prompt. Nil fields fall back to
// the builtin catalog, the OS filesystem and a no-op fault store.
type Options struct {
	Catalog *catalog.Catalog
	Faults  *faults.Recorder
	Fs      afero.Fs
	Logger  logger.Logger
	In      io.Reader
	Out     io.Writer
	Run     RunFunc
}

// Prompt reads commands and setting values line by line.
type Prompt struct {
	engine  *engine.Engine
	catalog *catalog.Catalog
	faults  *faults.Recorder
	fs      afero.Fs
	log     logger.Logger
	in      *bufio.Scanner
	out     io.Writer
	run     RunFunc
}

func New(e *engine.Engine, opts Options) *Prompt {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Builtin()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Faults == nil {
		opts.Faults = faults.NewRecorder(nil, opts.Logger)
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Run == nil {
		opts.Run = func(context.Context) error { return nil }
	}

	return &Prompt{
		engine:  e,
		catalog: opts.Catalog,
		faults:  opts.Faults,
		fs:      opts.Fs,
		log:     opts.Logger,
		in:      bufio.NewScanner(opts.In),
		out:     opts.Out,
		run:     opts.Run,
	}
}

// Serve prints the instructions and handles commands until "quit", the
// end of input or cancellation of ctx.
func (p *Prompt) Serve(ctx context.Context) error {
	p.printInstructions()
	if !p.engine.Runnable() {
		p.println("\nUnable to Open file :/")
	}

	for ctx.Err() == nil {
		p.println()
		line, ok := p.ask("Input: ")
		if !ok {
			break
		}
		p.println()

		quit, err := p.handle(ctx, strings.ToLower(strings.TrimSpace(line)))
		if err != nil {
			return err
		}
		if quit {
			break
		}
	}

	if err := p.in.Err(); err != nil {
		return errors.New().Wrap(errors.ErrMainLoop, err)
	}
	return nil
}

func (p *Prompt) handle(ctx context.Context, cmd string) (bool, error) {
	switch cmd {
	case "quit":
		return true, nil
	case "run":
		p.runLoop(ctx)
	case "?":
		p.printInstructions()
	case "type?":
		if err := p.catalog.Print(p.out); err != nil {
			return false, errors.New().Wrap(errors.ErrMainLoop, err)
		}
	case "c?":
		p.print(engine.ColorKey())
	case "faults?":
		p.printFaults(ctx)
	case "import":
		p.importSettings()
	case "type":
		p.selectType()
	default:
		key, ok := config.CanonicalKey(cmd)
		if !ok {
			// Unrecognized input is ignored.
			return false, nil
		}
		p.setValue(key)
	}
	return false, nil
}

func (p *Prompt) runLoop(ctx context.Context) {
	if !p.engine.Runnable() {
		p.println("Error")
		return
	}

	if err := p.run(ctx); err != nil {
		p.log.Error().Err(err).Msg("Sampling loop failed")
		p.println("Error")
	}
}

func (p *Prompt) setValue(key string) {
	value, ok := p.ask(`"` + key + `": `)
	if !ok {
		return
	}
	p.println()

	p.apply(key, value, false)
}

// apply sets key and reports the result. Imported settings name the
// rejected path in the failure message.
func (p *Prompt) apply(key, value string, imported bool) {
	shown, err := p.engine.Apply(key, value)
	if shown != "" || err == nil {
		p.printSet(key, shown)
	}
	if err == nil {
		return
	}

	switch {
	case errors.HasCode(err, errors.ErrSourceUnreadable):
		if imported {
			p.printf("Unable to Open \"%s\" :/\n", value)
		} else {
			p.println("Unable to Open :/")
		}
	case errors.HasCode(err, errors.ErrInvalidMethod):
		p.printf("Invalid method settings, run is disabled: %v\n", err)
	default:
		p.printf("Unable to set \"%s\": %v\n", key, err)
	}
	p.log.Debug().Err(err).Str("key", key).Str("value", value).Msg("Setting rejected")
}

func (p *Prompt) importSettings() {
	path, ok := p.ask("Path: ")
	if !ok {
		return
	}
	p.println()

	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		p.log.Debug().Err(err).Str("path", path).Msg("Import file unreadable")
		p.println("Unable to Open :/")
		return
	}

	pairs, err := config.ParseImport(bytes.NewReader(data))
	if err != nil {
		p.println("Unable to Open :/")
		return
	}
	for _, pair := range pairs {
		p.apply(pair.Key, pair.Value, true)
	}
	p.log.Info().Str("path", path).Int("settings", len(pairs)).Msg("Settings imported")
}

func (p *Prompt) selectType() {
	name, ok := p.ask(`"type": `)
	if !ok {
		return
	}
	p.println()

	t, err := p.catalog.Lookup(strings.TrimSpace(name))
	if err != nil {
		p.printf("Unknown type \"%s\"\n", name)
		return
	}
	if err := p.engine.UseType(t); err != nil {
		if errors.HasCode(err, errors.ErrInvalidMethod) {
			p.printf("Invalid method settings, run is disabled: %v\n", err)
			return
		}
		p.println("Unable to Open :/")
		return
	}

	for _, key := range []string{"path", "scale", "method", "methodInfo"} {
		value, _ := p.engine.Value(key)
		p.printSet(key, value)
	}
}

func (p *Prompt) printFaults(ctx context.Context) {
	recent, err := p.faults.Recent(ctx, recentFaults)
	if err != nil {
		p.printf("Unable to read faults: %v\n", err)
		return
	}
	if len(recent) == 0 {
		p.println("No faults recorded")
		return
	}
	for _, f := range recent {
		p.printf("%s [%s] %s: %s\n", f.Timestamp.Format("2006-01-02 15:04:05"), f.Code, f.Source, f.Message)
	}
}

func (p *Prompt) printInstructions() {
	for _, line := range instructions {
		p.println(line)
	}
}

func (p *Prompt) printSet(key, value string) {
	p.printf("\"%s\" set to \"%s\"\n", key, value)
}

// ask prints label and reads one line. It reports false at the end of
// input.
func (p *Prompt) ask(label string) (string, bool) {
	p.print(label)
	if !p.in.Scan() {
		return "", false
	}
	return p.in.Text(), true
}

func (p *Prompt) print(s string) {
	io.WriteString(p.out, s)
}

func (p *Prompt) println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

func (p *Prompt) printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}
