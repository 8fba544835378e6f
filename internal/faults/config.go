package faults

import (
	"path/filepath"

	"codeberg.org/mutker/barmeter/internal/errors"
)

const (
	// File system permissions and paths
	defaultDirPerm = 0o755
	backupDirName  = "backups"
)

type Config struct {
	DBPath  string
	Enabled bool
}

// NewConfig enables the store when dbPath is set.
func NewConfig(dbPath string) Config {
	return Config{
		DBPath:  dbPath,
		Enabled: dbPath != "",
	}
}

func (c Config) Validate() error {
	// Only validate DBPath if the store is enabled
	if c.Enabled && c.DBPath == "" {
		return errors.New().WithMessage(errors.ErrInvalidConfig, "fault store enabled without a database path")
	}
	return nil
}

func (c Config) backupDir() string {
	return filepath.Join(filepath.Dir(c.DBPath), backupDirName)
}
