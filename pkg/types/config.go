package types

import (
	"errors"
	"fmt"
)

// Config holds the directories and settings used by the store, the backup
// service, and the test-data generator.
type Config struct {
	TablesDir string `json:"tables_dir" yaml:"tables_dir"`
	BackupDir string `json:"backup_dir" yaml:"backup_dir"`
	NamesFile string `json:"names_file,omitempty" yaml:"names_file,omitempty"`
	TestRows  int    `json:"test_rows" yaml:"test_rows"`
	LogLevel  string `json:"log_level" yaml:"log_level"`
}

// Default configuration values.
const (
	DefaultTablesDirName = "generated_tables"
	DefaultBackupDirName = "backups"
	DefaultTestRows      = 30
	DefaultLogLevel      = "warn"
)

// Config validation errors.
var (
	ErrTablesDirEmpty  = errors.New("tables directory must not be empty")
	ErrBackupDirEmpty  = errors.New("backup directory must not be empty")
	ErrTestRowsInvalid = errors.New("test rows must not be negative")
	ErrLogLevelUnknown = errors.New("unknown log level")
)

var knownLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.TablesDir == "" {
		return ErrTablesDirEmpty
	}
	if c.BackupDir == "" {
		return ErrBackupDirEmpty
	}
	if c.TestRows < 0 {
		return ErrTestRowsInvalid
	}
	if c.LogLevel != "" && !knownLogLevels[c.LogLevel] {
		return fmt.Errorf("%w: %q", ErrLogLevelUnknown, c.LogLevel)
	}
	return nil
}
