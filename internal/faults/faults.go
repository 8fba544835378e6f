// Package faults records non-fatal failures of the sampling loop to the
// process log and, optionally, to a SQLite database. Consecutive repeats
// of the same failure are recorded once.
package faults

import (
	"context"
	"time"

	"codeberg.org/mutker/barmeter/internal/errors"
	"codeberg.org/mutker/barmeter/internal/logger"
)

// No-op implementation
type noopStore struct{}

// NewStore returns the SQLite store when cfg is enabled and a no-op store
// otherwise.
func NewStore(cfg Config, log logger.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cfg.Enabled {
		log.Debug().Msg("Fault store disabled, using no-op store")
		return &noopStore{}, nil
	}

	return NewRepository(cfg, log)
}

func (*noopStore) Record(_ context.Context, _ *Fault) error {
	return nil
}

func (*noopStore) Recent(_ context.Context, _ int) ([]Fault, error) {
	return nil, nil
}

func (*noopStore) Close() error {
	return nil
}

// Recorder deduplicates faults against the previous one before logging
// and storing them.
type Recorder struct {
	store Store
	log   logger.Logger
	now   func() time.Time
	last  string
}

func NewRecorder(store Store, log logger.Logger) *Recorder {
	if store == nil {
		store = &noopStore{}
	}
	return &Recorder{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Record logs err unless it is identical to the previously recorded fault.
// It reports whether err was recorded.
func (r *Recorder) Record(ctx context.Context, sourcePath string, err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	if msg == r.last {
		return false
	}
	r.last = msg

	var appErr errors.Error
	if errors.As(err, &appErr) {
		r.log.ErrorWithCode(appErr).Str("source", sourcePath).Msg("Sampling cycle failed")
	} else {
		r.log.Error().Err(err).Str("source", sourcePath).Msg("Sampling cycle failed")
	}

	fault := &Fault{
		Timestamp: r.now(),
		Code:      string(errors.CodeOf(err)),
		Message:   msg,
		Source:    sourcePath,
	}
	if storeErr := r.store.Record(ctx, fault); storeErr != nil {
		r.log.Warn().Err(storeErr).Msg("Failed to store fault")
	}

	return true
}

// Reset forgets the previous fault so the next one is always recorded.
func (r *Recorder) Reset() {
	r.last = ""
}

// Recent returns up to limit stored faults, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Fault, error) {
	return r.store.Recent(ctx, limit)
}

func (r *Recorder) Close() error {
	return r.store.Close()
}
