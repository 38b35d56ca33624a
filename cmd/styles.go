package cmd

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Palette
var (
	ColorIce   = lipgloss.Color("#A8D8EA")
	ColorDeep  = lipgloss.Color("#596E79")
	ColorText  = lipgloss.Color("#E0E0E0")
	ColorAlert = lipgloss.Color("#FF6B6B")
	ColorGood  = lipgloss.Color("#4ECDC4")
	ColorMuted = lipgloss.Color("#6c757d")
)

var (
	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorIce).
			Bold(true)

	StyleStatusGood = lipgloss.NewStyle().Foreground(ColorGood).Bold(true)
	StyleStatusBad  = lipgloss.NewStyle().Foreground(ColorAlert).Bold(true)

	StyleTableHeader = lipgloss.NewStyle().
				Foreground(ColorDeep).
				Bold(true).
				Padding(0, 1)

	StyleTableCell = lipgloss.NewStyle().
			Foreground(ColorText).
			Padding(0, 1)

	StyleBuiltinCell = lipgloss.NewStyle().
				Foreground(ColorIce).
				Padding(0, 1)

	StyleMuted = lipgloss.NewStyle().Foreground(ColorMuted)
)

// newTable returns a bordered table; builtinRows rows (after the header)
// are highlighted.
func newTable(headers []string, rows [][]string, builtinRows int) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorDeep)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return StyleTableHeader
			case row < builtinRows:
				return StyleBuiltinCell
			default:
				return StyleTableCell
			}
		}).
		Headers(headers...).
		Rows(rows...)
}
