// Package menu drives the interactive session. Each step takes the previous
// Session, renders its screen, reads one line of input, and returns the next
// Session. Storage and backup work is delegated to the table store and the
// backup service; their errors become the status line and never end the
// session.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/tabler/internal/seed"
	"github.com/mesh-intelligence/tabler/internal/viewer"
	"github.com/mesh-intelligence/tabler/pkg/types"
)

// Screen identifies what the session shows next.
type Screen int

const (
	MainMenu Screen = iota
	CreateTable
	DeleteTable
	EditTable
	EditRows
	ListTables
	BackupMenu
	Unknown
)

var screenNames = map[Screen]string{
	MainMenu:    "main",
	CreateTable: "create",
	DeleteTable: "delete",
	EditTable:   "edit",
	EditRows:    "edit-rows",
	ListTables:  "list",
	BackupMenu:  "backup",
	Unknown:     "unknown",
}

func (s Screen) String() string {
	if name, ok := screenNames[s]; ok {
		return name
	}
	return fmt.Sprintf("screen(%d)", int(s))
}

// Session is the state carried from one iteration to the next.
type Session struct {
	Screen Screen
	// Status is shown once under the next screen and then cleared.
	Status string
	// Tables is refreshed from the store at the start of every step.
	Tables []string
	// Table is the table selected for row editing.
	Table string
	// Done ends the session.
	Done bool
}

// ViewFunc renders a table's records for the print command.
type ViewFunc func(w io.Writer, title string, rows []types.Record) error

// Options wires a Machine to its collaborators.
type Options struct {
	Store     types.TableStore
	Backup    types.Backuper
	BackupDir string
	Generator seed.Generator
	TestRows  int
	View      ViewFunc
	In        io.Reader
	Out       io.Writer
	Logger    *slog.Logger
	// ClearScreen emits an ANSI clear before every screen.
	ClearScreen bool
}

// Machine runs the interactive session.
type Machine struct {
	store     types.TableStore
	backup    types.Backuper
	backupDir string
	gen       seed.Generator
	testRows  int
	view      ViewFunc
	in        *bufio.Reader
	out       io.Writer
	logger    *slog.Logger
	clear     bool
}

// New returns a Machine. Missing generator, viewer, and logger fall back to
// the defaults.
func New(opts Options) *Machine {
	m := &Machine{
		store:     opts.Store,
		backup:    opts.Backup,
		backupDir: opts.BackupDir,
		gen:       opts.Generator,
		testRows:  opts.TestRows,
		view:      opts.View,
		in:        bufio.NewReader(opts.In),
		out:       opts.Out,
		logger:    opts.Logger,
		clear:     opts.ClearScreen,
	}
	if m.gen == nil {
		m.gen = seed.NewRandGenerator()
	}
	if m.view == nil {
		m.view = viewer.Render
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return m
}

// Run loops until the user exits or input ends.
func (m *Machine) Run(ctx context.Context) error {
	s := Session{Screen: MainMenu}
	for !s.Done {
		if err := ctx.Err(); err != nil {
			return err
		}
		s = m.Step(ctx, s)
	}
	return nil
}

// errEndOfInput reports that input ended; the session exits.
var errEndOfInput = errors.New("end of input")

// Step performs one iteration: refresh the table list, show the screen,
// read a line where the screen takes input, and compute the next session.
func (m *Machine) Step(ctx context.Context, s Session) Session {
	tables, err := m.store.List()
	if err != nil {
		s.Status = failure(err.Error())
	}
	s.Tables = tables

	switch s.Screen {
	case ListTables:
		return Session{Screen: MainMenu, Status: tableList(tables)}
	case Unknown:
		return Session{Screen: MainMenu, Status: failure("TRY ONE MORE TIME!")}
	}

	m.render(s)
	line, err := m.readLine()
	if err != nil {
		return m.exit(s)
	}

	next := s
	next.Status = ""
	switch s.Screen {
	case MainMenu:
		return m.onMain(ctx, next, line)
	case CreateTable:
		return m.onCreate(next, line)
	case DeleteTable:
		return m.onDelete(next, line)
	case EditTable:
		return m.onEdit(next, line)
	case EditRows:
		return m.onEditRows(next, line)
	case BackupMenu:
		return m.onBackup(ctx, next, line)
	default:
		return Session{Screen: Unknown}
	}
}

// readLine reads one line without its terminator. A final line without a
// newline is returned before io.EOF is reported on the next call.
func (m *Machine) readLine() (string, error) {
	line, err := m.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" {
			return "", errEndOfInput
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// pause waits for the user to press Enter.
func (m *Machine) pause() {
	fmt.Fprint(m.out, dimStyle.Render("Press Enter to continue..."))
	m.readLine()
	fmt.Fprintln(m.out)
}

// command normalizes input for matching against a screen's command set.
func command(line string) string {
	return strings.ToLower(strings.TrimSpace(line))
}

// exit runs the auxiliary cleanup and ends the session. Cleanup failures do
// not keep the session alive.
func (m *Machine) exit(s Session) Session {
	if err := m.store.Clean(); err != nil {
		m.logger.Debug("cleanup on exit failed", "error", err)
	}
	return Session{Screen: s.Screen, Done: true}
}
