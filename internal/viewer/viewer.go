// Package viewer renders a table's records as a bordered grid.
package viewer

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mesh-intelligence/tabler/pkg/types"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	idStyle     = cellStyle.Foreground(lipgloss.Color("243"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Render writes rows to w. The first record is the header; the grid gets a
// leading row id column counted from 1, matching positions in the file.
func Render(w io.Writer, title string, rows []types.Record) error {
	if _, err := fmt.Fprintln(w, titleStyle.Render(title)); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "(empty table)")
		return err
	}

	header := rows[0].Fields()
	width := len(header)
	body := make([][]string, 0, len(rows)-1)
	for i, r := range rows[1:] {
		body = append(body, append([]string{fmt.Sprint(i + 1)}, fit(r.Fields(), width)...))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(append([]string{"id"}, header...)...).
		Rows(body...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return idStyle
			default:
				return cellStyle
			}
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// fit pads or truncates fields to width columns.
func fit(fields []string, width int) []string {
	out := make([]string, width)
	copy(out, fields)
	return out
}
