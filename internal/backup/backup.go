// Package backup copies table files into a backup directory under
// timestamped names and keeps a catalog of the snapshots it wrote.
package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mesh-intelligence/tabler/pkg/types"
)

var _ types.Backuper = (*Service)(nil)

// pathResolver maps a table name onto its file.
type pathResolver interface {
	Path(name string) string
}

// Service writes snapshots of table files.
type Service struct {
	tables  pathResolver
	dir     string
	catalog *Catalog
	logger  *slog.Logger

	// now is the UTC clock used for backup names; overridden in tests.
	now func() time.Time
}

// NewService returns a backup service writing into dir. A nil catalog
// disables snapshot recording; a nil logger discards log output.
func NewService(tables pathResolver, dir string, catalog *Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		tables:  tables,
		dir:     dir,
		catalog: catalog,
		logger:  logger,
		now:     utcNow,
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// Dir returns the backup directory.
func (s *Service) Dir() string {
	return s.dir
}

// SnapshotName returns the backup file name for a table file copied at t.
func SnapshotName(t time.Time, fileName string) string {
	return t.Format(types.BackupStampLayout) + "-" + fileName
}

// Run copies every named table into the backup directory. All copies of one
// run share a timestamp and a run id. Backing up twice within the same minute
// overwrites the earlier files. The first failure aborts the run and the
// snapshots written so far are returned with it.
func (s *Service) Run(ctx context.Context, tables []string) ([]types.Snapshot, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	now := s.now()
	runID := newID()

	var snaps []types.Snapshot
	for _, name := range tables {
		if err := ctx.Err(); err != nil {
			return snaps, err
		}

		src := s.tables.Path(name)
		dst := filepath.Join(s.dir, SnapshotName(now, filepath.Base(src)))
		size, sum, err := copyFile(src, dst)
		if err != nil {
			return snaps, fmt.Errorf("backing up %s: %w", name, err)
		}

		snap := types.Snapshot{
			SnapshotID: newID(),
			RunID:      runID,
			Table:      name,
			SourcePath: src,
			BackupPath: dst,
			SizeBytes:  size,
			SHA256:     sum,
			CreatedAt:  now,
		}
		if s.catalog != nil {
			if err := s.catalog.Record(ctx, snap); err != nil {
				return snaps, err
			}
		}
		s.logger.Info("table backed up", "table", name, "path", dst, "bytes", size)
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// List returns the cataloged snapshots, newest first.
func (s *Service) List(ctx context.Context) ([]types.Snapshot, error) {
	if s.catalog == nil {
		return nil, nil
	}
	return s.catalog.List(ctx)
}

// copyFile copies src to dst through a temp file in dst's directory and
// returns the byte count and hex SHA-256 of the copied content.
func copyFile(src, dst string) (int64, string, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, "", err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".backup-*.tmp")
	if err != nil {
		return 0, "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), in)
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return 0, "", fmt.Errorf("copying: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return 0, "", fmt.Errorf("renaming temp file: %w", err)
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

// newID generates a UUID v7, falling back to v4.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
