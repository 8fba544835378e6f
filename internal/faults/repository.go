package faults

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/barmeter/internal/errors"
	"codeberg.org/mutker/barmeter/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
	cfg    Config
}

// NewRepository opens (creating if needed) the SQLite fault database.
func NewRepository(cfg Config, log logger.Logger) (Store, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.WithMessage(errors.ErrInitFaultStore, "missing database path")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(errors.ErrInitFaultStore, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal=WAL&_busy_timeout=1000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(errors.ErrInitFaultStore, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Msg("Fault repository initialized")

	return &repository{
		db:     db,
		logger: log,
		cfg:    cfg,
	}, nil
}

func (r *repository) Record(ctx context.Context, fault *Fault) error {
	errFactory := errors.New()

	if fault == nil {
		return errFactory.WithMessage(errors.ErrRecordFault, "nil fault")
	}

	if _, err := r.db.ExecContext(ctx, insertFaultSQL,
		fault.Timestamp.Unix(),
		fault.Code,
		fault.Message,
		fault.Source,
	); err != nil {
		return errFactory.Wrap(errors.ErrRecordFault, err)
	}

	return nil
}

func (r *repository) Recent(ctx context.Context, limit int) ([]Fault, error) {
	errFactory := errors.New()

	rows, err := r.db.QueryContext(ctx, recentFaultsSQL, limit)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrRecordFault, err)
	}
	defer rows.Close()

	var out []Fault
	for rows.Next() {
		var (
			ts int64
			f  Fault
		)
		if err := rows.Scan(&ts, &f.Code, &f.Message, &f.Source); err != nil {
			return nil, errFactory.Wrap(errors.ErrRecordFault, err)
		}
		f.Timestamp = time.Unix(ts, 0)
		out = append(out, f)
	}

	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(errors.ErrRecordFault, err)
	}
	return out, nil
}

func (r *repository) Close() error {
	errFactory := errors.New()

	// Checkpoint WAL and cleanup on close
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errFactory.WithData(errors.ErrCloseFaultStore, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errFactory.WithData(errors.ErrCloseFaultStore, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Info().Msg("Fault repository closed")

	return nil
}
