package menu

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/tabler/internal/backup"
	"github.com/mesh-intelligence/tabler/internal/flatfile"
	"github.com/mesh-intelligence/tabler/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedGenerator returns the same value for every call.
type fixedGenerator int

func (g fixedGenerator) Next(int) int { return int(g) }

// harness bundles a machine with the collaborators a test inspects.
type harness struct {
	m         *Machine
	store     *flatfile.Store
	out       *bytes.Buffer
	backupDir string
	viewed    [][]types.Record
}

// newHarness wires a Machine to a temp store, a backup service, and the
// scripted input lines.
func newHarness(t *testing.T, tables []string, lines ...string) *harness {
	t.Helper()
	root := t.TempDir()
	store, err := flatfile.NewStore(filepath.Join(root, "tables"), nil)
	require.NoError(t, err)
	for _, name := range tables {
		f, err := store.Create(name, types.ModeAppend)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	h := &harness{
		store:     store,
		out:       &bytes.Buffer{},
		backupDir: filepath.Join(root, "backups"),
	}
	input := strings.Join(lines, "\n")
	if len(lines) > 0 {
		input += "\n"
	}
	h.m = New(Options{
		Store:     store,
		Backup:    backup.NewService(store, h.backupDir, nil, nil),
		BackupDir: h.backupDir,
		Generator: fixedGenerator(3),
		TestRows:  4,
		View: func(w io.Writer, title string, rows []types.Record) error {
			h.viewed = append(h.viewed, rows)
			return nil
		},
		In:  strings.NewReader(input),
		Out: h.out,
	})
	return h
}

func (h *harness) run(t *testing.T) string {
	t.Helper()
	require.NoError(t, h.m.Run(context.Background()))
	return h.out.String()
}

func TestSession_StudentsScenario(t *testing.T) {
	h := newHarness(t, nil,
		"1", "Students", "", // create, then press Enter
		"3", "0", // edit table 0
		"a 1 42",
		"a 1 42",
		"p 0",
		"d 0",
		"p 0",
		"b",
		"q",
	)
	out := h.run(t)

	assert.Contains(t, out, "Table students created successfully!")
	assert.Contains(t, out, "record added")
	assert.Contains(t, out, "0 rows affected")
	assert.Contains(t, out, "0: 1 42")
	assert.Contains(t, out, "deleted: 1,42")
	assert.Contains(t, out, types.ErrOutOfRange.Error())

	rows, err := h.store.Rows("students")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSession_EditRowsCommands(t *testing.T) {
	h := newHarness(t, []string{"t"},
		"3", "0",
		"a x 1",
		"a y 2",
		"e 1 z 3",
		"e 0 z 3",
		"e nine z",
		"d 7",
		"what",
		"b", "q",
	)
	out := h.run(t)

	rows, err := h.store.Rows("t")
	require.NoError(t, err)
	assert.Equal(t, []types.Record{"x,1", "z,3"}, rows)
	assert.Contains(t, out, "row 1 updated")
	assert.Contains(t, out, "0 rows affected")
	assert.Contains(t, out, types.ErrInvalidID.Error())
	assert.Contains(t, out, "TRY ONE MORE TIME!")
	assert.Contains(t, out, "1. z 3", "rows are listed in display form")
}

func TestSession_BlankEditKeepsRow(t *testing.T) {
	h := newHarness(t, []string{"t"},
		"3", "0",
		"a 1 42",
		"a 2 7",
		"e 0",
		"b", "q",
	)
	out := h.run(t)

	rows, err := h.store.Rows("t")
	require.NoError(t, err)
	assert.Equal(t, []types.Record{"1,42", "2,7"}, rows)
	assert.Contains(t, out, "0 rows affected")
}

func TestSession_UnknownInput(t *testing.T) {
	h := newHarness(t, nil, "zzz", "9", "q")
	out := h.run(t)

	assert.Equal(t, 2, strings.Count(out, "TRY ONE MORE TIME!"))
	assert.NotContains(t, out, "9. Print testing table.", "print is hidden without a testing table")
}

func TestSession_ExitAliases(t *testing.T) {
	for _, cmd := range []string{"10", "q", "exit", "  EXIT "} {
		t.Run(cmd, func(t *testing.T) {
			h := newHarness(t, nil, cmd, "1")
			h.run(t)
			assert.NotContains(t, h.out.String(), "Enter new table's name:", "nothing runs after exit")
		})
	}
}

func TestSession_GeneratePrintAndCleanup(t *testing.T) {
	h := newHarness(t, []string{"keep"}, "8", "9", "", "q")
	out := h.run(t)

	assert.Contains(t, out, "TESTING TABLE GENERATED!")
	assert.Contains(t, out, "9. Print testing table.")
	require.Len(t, h.viewed, 1)
	assert.Equal(t, types.Record(types.TestingTableHeader), h.viewed[0][0])
	assert.Len(t, h.viewed[0], 5)
	assert.Equal(t, types.Record("4,3"), h.viewed[0][4])

	assert.False(t, h.store.Exists(types.TestingTable), "exit removes the testing table")
	assert.False(t, h.store.Exists(types.ScratchTable), "exit removes the scratch table")
	assert.True(t, h.store.Exists("keep"))
}

func TestSession_EndOfInputExits(t *testing.T) {
	h := newHarness(t, nil, "8")
	h.run(t)
	assert.False(t, h.store.Exists(types.TestingTable))
}

func TestSession_ExitIgnoresCleanupFailure(t *testing.T) {
	h := newHarness(t, nil, "q")
	require.NoError(t, os.MkdirAll(filepath.Join(h.store.Path(types.TestingTable), "inner"), 0o755))

	h.run(t)
}

func TestSession_DeleteTable(t *testing.T) {
	t.Run("bad selections stay on the delete screen", func(t *testing.T) {
		h := newHarness(t, []string{"alpha", "beta"}, "2", "x", "5", "0", "", "q")
		out := h.run(t)

		assert.Equal(t, 2, strings.Count(out, "Error while deleting"))
		assert.Contains(t, out, "Deleted alpha successfully!")
		assert.False(t, h.store.Exists("alpha"))
		assert.True(t, h.store.Exists("beta"))
	})

	t.Run("cancel", func(t *testing.T) {
		h := newHarness(t, []string{"alpha"}, "2", "c", "q")
		out := h.run(t)

		assert.Contains(t, out, "Deleting canceled successfully!")
		assert.True(t, h.store.Exists("alpha"))
	})
}

func TestSession_CreateInvalidName(t *testing.T) {
	h := newHarness(t, nil, "1", "../escape", "q")
	out := h.run(t)

	assert.Contains(t, out, types.ErrInvalidName.Error())
	names, err := h.store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSession_ListTables(t *testing.T) {
	t.Run("numbered list", func(t *testing.T) {
		h := newHarness(t, []string{"beta", "alpha"}, "4", "q")
		out := h.run(t)

		assert.Contains(t, out, "TABLES LIST:")
		assert.Contains(t, out, "0. alpha")
		assert.Contains(t, out, "1. beta")
	})

	t.Run("empty", func(t *testing.T) {
		h := newHarness(t, nil, "4", "q")
		assert.Contains(t, h.run(t), "THERE ARE NO TABLES")
	})
}

func TestSession_Backup(t *testing.T) {
	t.Run("yes copies every table", func(t *testing.T) {
		h := newHarness(t, []string{"alpha", "beta"}, "5", "maybe", "y", "", "q")
		out := h.run(t)

		assert.Contains(t, out, "Backup successfully done! 2 tables saved.")
		entries, err := os.ReadDir(h.backupDir)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.True(t, strings.HasSuffix(entries[0].Name(), "-alpha.txt"))
		assert.True(t, strings.HasSuffix(entries[1].Name(), "-beta.txt"))
	})

	t.Run("no returns to main menu", func(t *testing.T) {
		h := newHarness(t, []string{"alpha"}, "5", "n", "q")
		h.run(t)
		assert.NoDirExists(t, h.backupDir)
	})
}

func TestStep_ImmediateScreens(t *testing.T) {
	h := newHarness(t, []string{"alpha"})
	ctx := context.Background()

	next := h.m.Step(ctx, Session{Screen: ListTables})
	assert.Equal(t, MainMenu, next.Screen)
	assert.Contains(t, next.Status, "0. alpha")

	next = h.m.Step(ctx, Session{Screen: Unknown})
	assert.Equal(t, MainMenu, next.Screen)
	assert.Contains(t, next.Status, "TRY ONE MORE TIME!")
	assert.Empty(t, h.out.String(), "immediate screens render nothing")
}

func TestStep_ThreadsState(t *testing.T) {
	h := newHarness(t, []string{"alpha"}, "3", "0")
	ctx := context.Background()

	s := h.m.Step(ctx, Session{Screen: MainMenu})
	assert.Equal(t, EditTable, s.Screen)
	assert.Equal(t, []string{"alpha"}, s.Tables)

	s = h.m.Step(ctx, s)
	assert.Equal(t, EditRows, s.Screen)
	assert.Equal(t, "alpha", s.Table)
	assert.False(t, s.Done)
}

func TestScreenString(t *testing.T) {
	assert.Equal(t, "backup", BackupMenu.String())
	assert.Equal(t, "screen(42)", Screen(42).String())
}
