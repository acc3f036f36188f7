// Package flatfile implements the flat-file table store. Every table is one
// text file in the store's folder with one comma-separated record per line.
// Each operation is a complete read, transform, write cycle; rewrites go
// through a temp file and a rename so a table is never left half written.
package flatfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mesh-intelligence/tabler/pkg/types"
)

// tableExt is the file extension of a table file.
const tableExt = ".txt"

var _ types.TableStore = (*Store)(nil)

// Store owns the table files of one folder. Mutating operations are
// serialized so whole-file rewrites never interleave.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger
}

// NewStore returns a store rooted at dir, creating the directory if needed.
// A nil logger discards log output.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, types.ErrTablesDirEmpty
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating tables directory: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the folder holding the table files.
func (s *Store) Dir() string {
	return s.dir
}

// SanitizeName turns user input into a table name: trimmed, lowercased, with
// spaces replaced by underscores. Names that would escape the store folder
// are rejected with ErrInvalidName.
func SanitizeName(input string) (string, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(input)), " ", "_")
	return checkName(name)
}

// checkName validates a table name and strips an optional .txt suffix.
func checkName(name string) (string, error) {
	name = strings.TrimSuffix(name, tableExt)
	if name == "" || name == "." || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidName, name)
	}
	return name, nil
}

// Path returns the file backing the table. The name is not validated.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, strings.TrimSuffix(name, tableExt)+tableExt)
}

// Exists reports whether the table file is present.
func (s *Store) Exists(name string) bool {
	name, err := checkName(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(s.Path(name))
	return err == nil && info.Mode().IsRegular()
}

// Create removes any existing table called name and creates a new empty file
// opened in mode. The previous content is discarded without warning. The
// caller must close the returned file.
func (s *Store) Create(name string, mode types.AccessMode) (*os.File, error) {
	name, err := checkName(name)
	if err != nil {
		return nil, err
	}
	flags, err := mode.Flags()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(name)
	switch err := os.Remove(path); {
	case err == nil:
		s.logger.Info("table replaced", "table", name, "path", path)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("removing old table %s: %w", name, err)
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating table %s: %w", name, err)
	}
	return f, nil
}

// Add normalizes record and appends it to table unless an identical record
// is already present. It returns the bytes written; a duplicate yields 0 and
// a nil error with the file untouched.
func (s *Store) Add(table, record string) (int, error) {
	table, err := checkName(table)
	if err != nil {
		return 0, err
	}
	rec := string(types.Normalize(record))
	if err := types.CheckRecord(rec); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path(table), os.O_RDWR|os.O_APPEND, 0)
	if err != nil {
		return 0, openError(table, err)
	}
	defer f.Close()

	unique, err := IsUnique(f, rec)
	if err != nil {
		return 0, err
	}
	if !unique {
		s.logger.Debug("duplicate record skipped", "table", table, "record", rec)
		return 0, nil
	}

	clean, err := endsWithNewline(f)
	if err != nil {
		return 0, fmt.Errorf("inspecting table %s: %w", table, err)
	}
	out := rec + "\n"
	if !clean {
		out = "\n" + out
	}
	n, err := f.WriteString(out)
	if err != nil {
		return n, fmt.Errorf("appending to table %s: %w", table, err)
	}
	return n, nil
}

// Edit replaces the record at position id with the normalized record. It
// returns the number of rows changed: 0 when the new value already exists
// anywhere in the table or is empty, in which case nothing is written.
func (s *Store) Edit(table string, id int, record string) (int, error) {
	table, err := checkName(table)
	if err != nil {
		return 0, err
	}
	rec := string(types.Normalize(record))
	if err := types.CheckRecord(rec); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(table))
	if err != nil {
		return 0, openError(table, err)
	}
	lines := splitLines(string(data))
	if err := checkRange(id, len(lines)); err != nil {
		return 0, err
	}
	// The extra newline guarantees an empty line, so a blank record never
	// replaces a row.
	unique, err := IsUnique(strings.NewReader(string(data)+"\n"), rec)
	if err != nil {
		return 0, err
	}
	if !unique {
		s.logger.Debug("duplicate edit skipped", "table", table, "id", id, "record", rec)
		return 0, nil
	}

	lines[id] = rec
	if err := writeLines(s.Path(table), lines); err != nil {
		return 0, fmt.Errorf("rewriting table %s: %w", table, err)
	}
	s.logger.Debug("row edited", "table", table, "id", id)
	return 1, nil
}

// DeleteRow removes the record at position id and returns its original text
// with the trailing newline. The remaining rows keep their order.
func (s *Store) DeleteRow(table string, id int) (string, error) {
	table, err := checkName(table)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.readLines(table)
	if err != nil {
		return "", err
	}
	if err := checkRange(id, len(lines)); err != nil {
		return "", err
	}

	removed := lines[id] + "\n"
	rest := append(lines[:id:id], lines[id+1:]...)
	if err := writeLines(s.Path(table), rest); err != nil {
		return "", fmt.Errorf("rewriting table %s: %w", table, err)
	}
	s.logger.Debug("row deleted", "table", table, "id", id)
	return removed, nil
}

// PrintRow returns the record at position id with commas shown as spaces.
func (s *Store) PrintRow(table string, id int) (string, error) {
	table, err := checkName(table)
	if err != nil {
		return "", err
	}
	lines, err := s.readLines(table)
	if err != nil {
		return "", err
	}
	if err := checkRange(id, len(lines)); err != nil {
		return "", err
	}
	return types.Record(lines[id]).Display(), nil
}

// Rows returns every record of the table in line order.
func (s *Store) Rows(table string) ([]types.Record, error) {
	table, err := checkName(table)
	if err != nil {
		return nil, err
	}
	lines, err := s.readLines(table)
	if err != nil {
		return nil, err
	}
	rows := make([]types.Record, len(lines))
	for i, line := range lines {
		rows[i] = types.Record(line)
	}
	return rows, nil
}

// Delete removes the table file. A missing table returns ErrTableNotFound.
func (s *Store) Delete(name string) error {
	name, err := checkName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(name)); err != nil {
		return openError(name, err)
	}
	s.logger.Info("table deleted", "table", name)
	return nil
}

// Clean removes the auxiliary tables in order. Tables that do not exist are
// skipped; the first other failure stops the cleanup and is returned.
func (s *Store) Clean() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range types.AuxiliaryTables {
		err := os.Remove(s.Path(name))
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return nil
}

// List returns the names of the tables in the folder, sorted by file name.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), tableExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), tableExt))
	}
	return names, nil
}

// readLines loads a table as a slice of records.
func (s *Store) readLines(table string) ([]string, error) {
	data, err := os.ReadFile(s.Path(table))
	if err != nil {
		return nil, openError(table, err)
	}
	return splitLines(string(data)), nil
}

// checkRange reports ErrOutOfRange unless 0 <= id < n.
func checkRange(id, n int) error {
	if id < 0 || id >= n {
		return fmt.Errorf("%w: id %d, table has %d rows", types.ErrOutOfRange, id, n)
	}
	return nil
}

// openError maps a missing file onto ErrTableNotFound and keeps the cause.
func openError(table string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %w", types.ErrTableNotFound, table, err)
	}
	return fmt.Errorf("opening table %s: %w", table, err)
}
