package types

import (
	"context"
	"time"
)

// BackupStampLayout formats the timestamp prefix of a backup file name as
// day-month-year-hour:minute.
const BackupStampLayout = "02-01-2006-15:04"

// Snapshot describes one table file copied by a backup run.
type Snapshot struct {
	SnapshotID string    `json:"snapshot_id"`
	RunID      string    `json:"run_id"`
	Table      string    `json:"table"`
	SourcePath string    `json:"source_path"`
	BackupPath string    `json:"backup_path"`
	SizeBytes  int64     `json:"size_bytes"`
	SHA256     string    `json:"sha256"`
	CreatedAt  time.Time `json:"created_at"`
}

// Backuper copies table files into the backup directory.
type Backuper interface {
	// Run copies every named table and returns the snapshots written. The
	// first failed copy aborts the run.
	Run(ctx context.Context, tables []string) ([]Snapshot, error)
}
