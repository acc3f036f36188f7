package menu

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/tabler/internal/flatfile"
	"github.com/mesh-intelligence/tabler/internal/seed"
	"github.com/mesh-intelligence/tabler/pkg/types"
)

const clearScreen = "\x1b[2J\x1b[H"

// printItem is the main menu entry shown only while the testing table exists.
const printItem = "9"

var mainText = []string{
	"1. Create table.",
	"2. Delete table.",
	"3. Edit table.",
	"4. Table list.",
	"5. Backup menu.",
	"-------------------------",
	"8. Generate testing table.",
	"9. Print testing table.",
	"-------------------------",
	"10. Exit (or q).",
}

const editHelp = "a <record> add | e <id> <record> edit | d <id> delete | p <id> print | b back"

// render writes the screen for s followed by its status line and the prompt.
func (m *Machine) render(s Session) {
	if m.clear {
		fmt.Fprint(m.out, clearScreen)
	}

	switch s.Screen {
	case MainMenu:
		generated := m.store.Exists(types.TestingTable)
		for _, item := range mainText {
			if strings.HasPrefix(item, printItem+".") && !generated {
				continue
			}
			fmt.Fprintln(m.out, item)
		}
	case CreateTable:
		fmt.Fprintln(m.out, promptStyle.Render("Enter new table's name:"))
	case DeleteTable:
		fmt.Fprintln(m.out, errorStyle.Render("Choose number which table do you want to DELETE? (or c for cancel)"))
		fmt.Fprintln(m.out, tableList(s.Tables))
	case EditTable:
		fmt.Fprintln(m.out, promptStyle.Render("Choose number which table do you want to edit? (or c for cancel)"))
		fmt.Fprintln(m.out, tableList(s.Tables))
	case EditRows:
		m.renderRows(s.Table)
	case BackupMenu:
		fmt.Fprintln(m.out, warnStyle.Render(fmt.Sprintf(
			"Do you want to make backup of %d tables into %s? (y/n)", len(s.Tables), m.backupDir)))
	}

	fmt.Fprintln(m.out, s.Status)
	fmt.Fprint(m.out, "> ")
}

// renderRows lists the selected table with row ids in display form.
func (m *Machine) renderRows(table string) {
	fmt.Fprintln(m.out, promptStyle.Render("Editing "+table))
	rows, err := m.store.Rows(table)
	if err != nil {
		fmt.Fprintln(m.out, failure(err.Error()))
	}
	for i, r := range rows {
		fmt.Fprintf(m.out, "%d. %s\n", i, r.Display())
	}
	fmt.Fprintln(m.out, dimStyle.Render(editHelp))
}

// tableList formats the numbered table list used by list, delete, and edit.
func tableList(tables []string) string {
	if len(tables) == 0 {
		return failure("THERE ARE NO TABLES")
	}
	var b strings.Builder
	b.WriteString(success("TABLES LIST:"))
	b.WriteString("\n")
	for i, name := range tables {
		fmt.Fprintf(&b, "%d. %s\n", i, name)
	}
	return b.String()
}

// pick resolves a numbered selection from the table list.
func pick(tables []string, input string) (string, bool) {
	i, err := strconv.Atoi(input)
	if err != nil || i < 0 || i >= len(tables) {
		return "", false
	}
	return tables[i], true
}

func (m *Machine) onMain(ctx context.Context, s Session, line string) Session {
	switch command(line) {
	case "1":
		s.Screen = CreateTable
	case "2":
		s.Screen = DeleteTable
	case "3":
		s.Screen = EditTable
	case "4":
		s.Screen = ListTables
	case "5":
		s.Screen = BackupMenu
	case "8":
		s.Status = m.generate()
	case printItem:
		if !m.store.Exists(types.TestingTable) {
			s.Screen = Unknown
			break
		}
		s.Status = m.printTesting()
	case "10", "q", "exit":
		return m.exit(s)
	default:
		s.Screen = Unknown
	}
	return s
}

func (m *Machine) onCreate(s Session, line string) Session {
	s.Screen = MainMenu
	name, err := flatfile.SanitizeName(line)
	if err != nil {
		s.Status = failure(err.Error())
		return s
	}
	f, err := m.store.Create(name, types.ModeAppend)
	if err != nil {
		s.Status = failure(err.Error())
		return s
	}
	f.Close()

	fmt.Fprintln(m.out, success(fmt.Sprintf("Table %s created successfully!", name)))
	m.pause()
	return s
}

func (m *Machine) onDelete(s Session, line string) Session {
	input := command(line)
	if input == "c" {
		s.Screen = MainMenu
		s.Status = success("Deleting canceled successfully!")
		return s
	}
	name, ok := pick(s.Tables, input)
	if !ok {
		s.Status = failure("Error while deleting: no table " + strconv.Quote(input))
		return s
	}
	if err := m.store.Delete(name); err != nil {
		s.Status = failure("Error while deleting: " + err.Error())
		return s
	}

	fmt.Fprintln(m.out, success(fmt.Sprintf("Deleted %s successfully!", name)))
	m.pause()
	s.Screen = MainMenu
	return s
}

func (m *Machine) onEdit(s Session, line string) Session {
	input := command(line)
	if input == "c" {
		s.Screen = MainMenu
		s.Status = success("Editing canceled.")
		return s
	}
	name, ok := pick(s.Tables, input)
	if !ok {
		s.Status = failure("No table " + strconv.Quote(input))
		return s
	}
	s.Screen = EditRows
	s.Table = name
	return s
}

// onEditRows runs one row command against the selected table and stays on
// the screen until the user goes back.
func (m *Machine) onEditRows(s Session, line string) Session {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "b", "c":
		return Session{Screen: MainMenu}
	case "a":
		n, err := m.store.Add(s.Table, rest)
		s.Status = affected(err, n, "record added")
	case "e":
		idText, record, _ := strings.Cut(rest, " ")
		id, err := types.ParseRowID(idText)
		if err != nil {
			s.Status = failure(err.Error())
			break
		}
		n, err := m.store.Edit(s.Table, id, record)
		s.Status = affected(err, n, fmt.Sprintf("row %d updated", id))
	case "d":
		id, err := types.ParseRowID(rest)
		if err != nil {
			s.Status = failure(err.Error())
			break
		}
		removed, err := m.store.DeleteRow(s.Table, id)
		if err != nil {
			s.Status = failure(err.Error())
			break
		}
		s.Status = success("deleted: " + strings.TrimSuffix(removed, "\n"))
	case "p":
		id, err := types.ParseRowID(rest)
		if err != nil {
			s.Status = failure(err.Error())
			break
		}
		row, err := m.store.PrintRow(s.Table, id)
		if err != nil {
			s.Status = failure(err.Error())
			break
		}
		s.Status = fmt.Sprintf("%d: %s", id, row)
	default:
		s.Status = failure("TRY ONE MORE TIME! " + editHelp)
	}

	if !m.store.Exists(s.Table) {
		return Session{Screen: EditTable, Status: failure(fmt.Sprintf("table %s no longer exists", s.Table))}
	}
	return s
}

// affected formats the outcome of an add or edit. A zero count is the
// duplicate no-op, not a failure.
func affected(err error, n int, done string) string {
	switch {
	case err != nil:
		return failure(err.Error())
	case n == 0:
		return warnStyle.Render("0 rows affected: value already exists")
	default:
		return success(done)
	}
}

func (m *Machine) onBackup(ctx context.Context, s Session, line string) Session {
	switch command(line) {
	case "y", "yes":
		s.Screen = MainMenu
		if m.backup == nil {
			s.Status = failure("backup is not configured")
			return s
		}
		snaps, err := m.backup.Run(ctx, s.Tables)
		if err != nil {
			s.Status = failure("Backup failed: " + err.Error())
			return s
		}
		fmt.Fprintln(m.out, success(fmt.Sprintf("Backup successfully done! %d tables saved.", len(snaps))))
		m.pause()
	case "n", "no":
		s.Screen = MainMenu
	}
	return s
}

// generate rebuilds the testing table and returns the status line.
func (m *Machine) generate() string {
	if _, err := seed.GenerateTestTable(m.store, m.gen, m.testRows); err != nil {
		return failure("Generating testing table failed: " + err.Error())
	}
	return success("TESTING TABLE GENERATED!")
}

// printTesting copies the testing table into the scratch table and shows
// the copy in the viewer.
func (m *Machine) printTesting() string {
	rows, err := m.store.Rows(types.TestingTable)
	if err != nil {
		return failure(err.Error())
	}
	if err := m.writeScratch(rows); err != nil {
		return failure(err.Error())
	}
	scratch, err := m.store.Rows(types.ScratchTable)
	if err != nil {
		return failure(err.Error())
	}
	if err := m.view(m.out, "Informational table", scratch); err != nil {
		return failure(err.Error())
	}
	m.pause()
	return ""
}

func (m *Machine) writeScratch(rows []types.Record) error {
	f, err := m.store.Create(types.ScratchTable, types.ModeAppend)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := f.WriteString(string(r) + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("writing scratch table: %w", err)
		}
	}
	return f.Close()
}
