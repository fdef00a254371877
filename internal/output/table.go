package output

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
)

const defaultWidth = 100

// RenderTable renders rows under headers, fitted to width when width > 0.
func RenderTable(headers []string, rows [][]string, width int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(stepStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	if width > 0 {
		t = t.Width(width)
	}
	return t.String()
}

// Table prints rows under headers, fitted to the terminal width.
func Table(headers []string, rows [][]string) {
	fmt.Fprintln(out, RenderTable(headers, rows, TerminalWidth()))
}

// TerminalWidth returns the width of stdout. It is 0 when stdout is not a
// terminal, so tables are not wrapped when output is piped.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}
