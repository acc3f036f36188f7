package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/tabler/pkg/types"
	_ "modernc.org/sqlite"
)

// CatalogFileName is the SQLite database kept in the backup directory.
const CatalogFileName = "catalog.db"

// ErrCatalog wraps every failure of the snapshot catalog database.
var ErrCatalog = errors.New("backup catalog")

const createSnapshots = `CREATE TABLE IF NOT EXISTS snapshots (
    snapshot_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    table_name TEXT NOT NULL,
    source_path TEXT NOT NULL,
    backup_path TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    sha256 TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id);`

// Catalog records every snapshot written by a backup run.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens or creates the catalog database at path.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening: %w", ErrCatalog, err)
	}
	if _, err := db.Exec(createSnapshots); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %w", ErrCatalog, err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record stores one snapshot.
func (c *Catalog) Record(ctx context.Context, s types.Snapshot) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO snapshots (snapshot_id, run_id, table_name, source_path, backup_path, size_bytes, sha256, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SnapshotID, s.RunID, s.Table, s.SourcePath, s.BackupPath, s.SizeBytes, s.SHA256,
		s.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: recording snapshot of %s: %w", ErrCatalog, s.Table, err)
	}
	return nil
}

// List returns all recorded snapshots, newest first.
func (c *Catalog) List(ctx context.Context) ([]types.Snapshot, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT snapshot_id, run_id, table_name, source_path, backup_path, size_bytes, sha256, created_at
         FROM snapshots ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying snapshots: %w", ErrCatalog, err)
	}
	defer rows.Close()

	var out []types.Snapshot
	for rows.Next() {
		var s types.Snapshot
		var createdAt int64
		if err := rows.Scan(&s.SnapshotID, &s.RunID, &s.Table, &s.SourcePath, &s.BackupPath, &s.SizeBytes, &s.SHA256, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scanning snapshot: %w", ErrCatalog, err)
		}
		s.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading snapshots: %w", ErrCatalog, err)
	}
	return out, nil
}
