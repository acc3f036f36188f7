package types

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Record field separators. Records are stored with commas and shown to the
// user with spaces. The mapping is exact only for data without embedded
// commas.
const (
	DiskSeparator = ","
	UserSeparator = " "
)

// Auxiliary tables removed by the store's cleanup on session exit.
const (
	TestingTable = "testing_table"
	ScratchTable = ".temp"
)

// AuxiliaryTables lists the tables Clean removes, in removal order.
var AuxiliaryTables = []string{TestingTable, ScratchTable}

// TestingTableHeader is the header row written to a generated testing table.
const TestingTableHeader = "stdnt_id,var_id"

// Record is one line of a table in its on-disk form (commas, no newline).
type Record string

// Normalize converts user input into the on-disk form: surrounding
// whitespace is trimmed and spaces become commas.
func Normalize(input string) Record {
	return Record(strings.ReplaceAll(strings.TrimSpace(input), UserSeparator, DiskSeparator))
}

// CheckRecord rejects a record that would span more than one line once
// written. Surrounding whitespace is trimmed by Normalize first.
func CheckRecord(input string) error {
	if strings.ContainsAny(input, "\r\n") {
		return fmt.Errorf("%w: line breaks are not allowed", ErrInvalidRecord)
	}
	return nil
}

// Display returns the record with commas converted back to spaces.
func (r Record) Display() string {
	return strings.ReplaceAll(string(r), DiskSeparator, UserSeparator)
}

// Fields splits the record into its field values.
func (r Record) Fields() []string {
	if r == "" {
		return nil
	}
	return strings.Split(string(r), DiskSeparator)
}

// AccessMode selects how Create opens a freshly created table file.
type AccessMode rune

const (
	ModeRead      AccessMode = 'r'
	ModeReadWrite AccessMode = 'w'
	ModeAppend    AccessMode = 'a'
)

// Flags returns the os.OpenFile flags for the mode.
func (m AccessMode) Flags() (int, error) {
	switch m {
	case ModeRead:
		return os.O_RDONLY | os.O_CREATE, nil
	case ModeReadWrite:
		return os.O_RDWR | os.O_CREATE, nil
	case ModeAppend:
		return os.O_RDWR | os.O_APPEND | os.O_CREATE, nil
	default:
		return 0, ErrInvalidMode
	}
}

// TableStore maps CRUD operations on named tables onto whole-file
// read/rewrite cycles.
type TableStore interface {
	// Create removes any existing table of that name and returns a new empty
	// file opened in the given mode. The caller closes the file.
	Create(name string, mode AccessMode) (*os.File, error)

	// Add appends record if no identical record exists. Returns the number of
	// bytes written; 0 with a nil error means the record was a duplicate.
	Add(table, record string) (int, error)

	// Edit replaces the record at id. Returns the number of rows changed;
	// 0 with a nil error means the new value already exists in the table.
	Edit(table string, id int, record string) (int, error)

	// DeleteRow removes the record at id and returns its text including the
	// trailing newline.
	DeleteRow(table string, id int) (string, error)

	// PrintRow returns the record at id with user-facing separators.
	PrintRow(table string, id int) (string, error)

	// Rows returns every record of the table in line order.
	Rows(table string) ([]Record, error)

	// Delete removes the table. A missing table is an error.
	Delete(name string) error

	// Clean removes the auxiliary tables.
	Clean() error

	// List returns the names of the existing tables.
	List() ([]string, error)

	// Exists reports whether the table file is present.
	Exists(name string) bool

	// Path returns the file path backing the table.
	Path(name string) string
}

// Table operation errors.
var (
	ErrTableNotFound = errors.New("table not found")
	ErrOutOfRange    = errors.New("element does not exist")
	ErrInvalidName   = errors.New("invalid table name")
	ErrInvalidMode   = errors.New("invalid access mode")
	ErrInvalidID     = errors.New("invalid row id")
	ErrInvalidRecord = errors.New("invalid record")
)

// ParseRowID parses a user-supplied row id. Non-numeric or negative input
// returns ErrInvalidID.
func ParseRowID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}
