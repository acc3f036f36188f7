package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mesh-intelligence/tabler/internal/flatfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 7, 9, 5, 30, 0, time.UTC)

// setupService creates a store with the given tables and a backup service
// with a catalog and a fixed clock.
func setupService(t *testing.T, tables map[string]string) (*Service, *flatfile.Store) {
	t.Helper()
	root := t.TempDir()
	store, err := flatfile.NewStore(filepath.Join(root, "tables"), nil)
	require.NoError(t, err)
	for name, content := range tables {
		require.NoError(t, os.WriteFile(store.Path(name), []byte(content), 0o644))
	}

	backupDir := filepath.Join(root, "backups")
	require.NoError(t, os.MkdirAll(backupDir, 0o755))
	catalog, err := OpenCatalog(filepath.Join(backupDir, CatalogFileName))
	require.NoError(t, err)
	t.Cleanup(func() { catalog.Close() })

	svc := NewService(store, backupDir, catalog, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func TestSnapshotName(t *testing.T) {
	assert.Equal(t, "07-03-2026-09:05-students.txt", SnapshotName(fixedNow, "students.txt"))
}

func TestRun_Completeness(t *testing.T) {
	tables := map[string]string{
		"students": "1,42\n2,7\n",
		"empty":    "",
	}
	svc, store := setupService(t, tables)

	snaps, err := svc.Run(context.Background(), []string{"empty", "students"})
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	for _, snap := range snaps {
		want := filepath.Join(svc.Dir(), SnapshotName(fixedNow, snap.Table+".txt"))
		assert.Equal(t, want, snap.BackupPath)
		assert.Equal(t, store.Path(snap.Table), snap.SourcePath)

		got, err := os.ReadFile(snap.BackupPath)
		require.NoError(t, err)
		assert.Equal(t, tables[snap.Table], string(got), "snapshot must be byte-identical")

		sum := sha256.Sum256(got)
		assert.Equal(t, hex.EncodeToString(sum[:]), snap.SHA256)
		assert.Equal(t, int64(len(got)), snap.SizeBytes)
	}
	assert.Equal(t, snaps[0].RunID, snaps[1].RunID, "one run id per run")
	assert.NotEqual(t, snaps[0].SnapshotID, snaps[1].SnapshotID)
}

func TestRun_SameMinuteOverwrites(t *testing.T) {
	svc, store := setupService(t, map[string]string{"t": "v1\n"})

	_, err := svc.Run(context.Background(), []string{"t"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path("t"), []byte("v2\n"), 0o644))
	snaps, err := svc.Run(context.Background(), []string{"t"})
	require.NoError(t, err)

	got, err := os.ReadFile(snaps[0].BackupPath)
	require.NoError(t, err)
	assert.Equal(t, "v2\n", string(got))
}

func TestRun_DifferentMinutesDistinct(t *testing.T) {
	svc, _ := setupService(t, map[string]string{"t": "v1\n"})

	first, err := svc.Run(context.Background(), []string{"t"})
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow.Add(time.Minute) }
	second, err := svc.Run(context.Background(), []string{"t"})
	require.NoError(t, err)

	assert.NotEqual(t, first[0].BackupPath, second[0].BackupPath)
	assert.FileExists(t, first[0].BackupPath)
	assert.FileExists(t, second[0].BackupPath)
}

func TestRun_FailureAborts(t *testing.T) {
	svc, _ := setupService(t, map[string]string{"a": "1\n", "c": "3\n"})

	snaps, err := svc.Run(context.Background(), []string{"a", "missing", "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
	require.Len(t, snaps, 1)
	assert.Equal(t, "a", snaps[0].Table)
	assert.NoFileExists(t, filepath.Join(svc.Dir(), SnapshotName(fixedNow, "c.txt")))
}

func TestRun_CancelledContext(t *testing.T) {
	svc, _ := setupService(t, map[string]string{"a": "1\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_CreatesBackupDir(t *testing.T) {
	store, err := flatfile.NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path("t"), []byte("x\n"), 0o644))

	dir := filepath.Join(t.TempDir(), "nested", "backups")
	svc := NewService(store, dir, nil, nil)
	snaps, err := svc.Run(context.Background(), []string{"t"})
	require.NoError(t, err)
	assert.FileExists(t, snaps[0].BackupPath)

	listed, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listed, "no catalog, nothing listed")
}

func TestNewService_UsesUTCClock(t *testing.T) {
	svc := NewService(nil, t.TempDir(), nil, nil)
	assert.Equal(t, time.UTC, svc.now().Location())
}
