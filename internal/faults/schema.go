package faults

import (
	"database/sql"

	"codeberg.org/mutker/barmeter/internal/errors"
	"codeberg.org/mutker/barmeter/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS faults (
	       id         INTEGER PRIMARY KEY AUTOINCREMENT,
	       timestamp  INTEGER NOT NULL CHECK (typeof(timestamp) = 'integer'),
	       code       TEXT NOT NULL,
	       message    TEXT NOT NULL,
	       source     TEXT NOT NULL
	   );
	   CREATE INDEX IF NOT EXISTS faults_timestamp ON faults (timestamp);`

	insertFaultSQL = `
    INSERT INTO faults (timestamp, code, message, source)
    VALUES (?, ?, ?, ?)`

	recentFaultsSQL = `
    SELECT timestamp, code, message, source
    FROM faults
    ORDER BY id DESC
    LIMIT ?`
)

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating fault database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(errors.ErrInitFaultStore, err)
	}

	// Track transaction state
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				if !errors.Is(err, sql.ErrTxDone) {
					log.Debug().Err(err).Msg("Failed to rollback transaction")
				}
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(errors.ErrInitFaultStore, struct {
			Phase string
			Error string
		}{
			Phase: "create_tables",
			Error: err.Error(),
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(errors.ErrInitFaultStore, struct {
			Phase string
			Error string
		}{
			Phase: "record_version",
			Error: err.Error(),
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(errors.ErrInitFaultStore, err)
	}
	committed = true

	log.Info().
		Int("version", SchemaVersion).
		Msg("Fault schema initialized")

	return nil
}

// GetSchemaVersion returns the current schema version, or 0 for a new
// database.
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(errors.ErrInitFaultStore, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errors.New().WithData(errors.ErrInitFaultStore, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}
	return exists, nil
}
