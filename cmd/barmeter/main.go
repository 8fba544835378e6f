package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/barmeter/internal/catalog"
	"codeberg.org/mutker/barmeter/internal/config"
	"codeberg.org/mutker/barmeter/internal/engine"
	"codeberg.org/mutker/barmeter/internal/errors"
	"codeberg.org/mutker/barmeter/internal/faults"
	"codeberg.org/mutker/barmeter/internal/logger"
	"codeberg.org/mutker/barmeter/internal/prompt"
	"codeberg.org/mutker/barmeter/internal/terminal"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

const (
	exitInterrupted = 130
	// shutdownGrace bounds the wait for the prompt, which may be blocked
	// reading stdin when a signal arrives.
	shutdownGrace = 2 * time.Second
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	logFile, err := logger.Init(cfg.FaultLog, cfg.Debug, cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to open %s, logging to stderr: %v\n", cfg.FaultLog, err)
	}
	defer logFile.Close()
	logger.Debug().Msg("Config loaded")

	log := logger.Default()

	store, err := faults.NewStore(faults.NewConfig(cfg.FaultDB), log)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.FaultDB).Msg("Failed to initialize fault store, faults are only logged")
	}
	recorder := faults.NewRecorder(store, log)
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close fault store")
		}
	}()

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load catalog: %v\n", err)
		return 1
	}

	e := engine.New(cfg, engine.Options{
		Faults:  recorder,
		Logger:  log,
		Out:     os.Stdout,
		Profile: terminal.ColorProfile(os.Stdout),
	})

	if cfg.Type != "" {
		t, err := cat.Lookup(cfg.Type)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		if err := e.UseType(t); err != nil {
			logger.Warn().Err(err).Str("type", t.Name).Msg("Unable to use type")
			fmt.Fprintf(os.Stderr, "unable to use type %s: %v\n", t.Name, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go handleSignals(cancel, done)

	sample := func(ctx context.Context) error {
		keys, err := terminal.OpenKeys(os.Stdin)
		if err != nil {
			// Ctrl-C still ends the loop through the signal handler.
			logger.Warn().Err(err).Msg("Keyboard unavailable, stop with Ctrl-C")
			keys = terminal.NoKeys{}
		}
		defer keys.Close()

		return e.Run(ctx, keys)
	}

	if cfg.Run {
		if err := sample(ctx); err != nil {
			logger.Error().Err(err).Msg("Sampling failed")
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		logger.Info().Msg("Exiting...")
		return 0
	}

	p := prompt.New(e, prompt.Options{
		Catalog: cat,
		Faults:  recorder,
		Logger:  log,
		In:      os.Stdin,
		Out:     os.Stdout,
		Run:     sample,
	})
	if err := p.Serve(ctx); err != nil {
		logger.Error().Err(err).Msg("Error in main loop")
		return 1
	}

	logger.Info().Msg("Exiting...")
	return 0
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	cat := catalog.Builtin()
	if path == "" {
		return cat, nil
	}

	data, err := afero.ReadFile(afero.NewOsFs(), path)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrImportFailed, err)
	}
	extra, err := catalog.Parse(data)
	if err != nil {
		return nil, err
	}
	cat.Merge(extra)

	logger.Debug().Str("path", path).Int("types", len(extra.Types())).Msg("Catalog merged")
	return cat, nil
}

func handleSignals(cancel context.CancelFunc, done <-chan struct{}) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
	case <-done:
		return
	}

	logger.Info().Msg("Received termination signal.")
	cancel()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
		logger.Warn().Msg("Shutdown timed out, exiting")
		os.Exit(exitInterrupted)
	}
}
