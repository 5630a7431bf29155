// Package output provides styled terminal rendering helpers for projlens.
package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// ColorPrimary colors headers and table rules.
var ColorPrimary = lipgloss.Color("#64b5f6")

// Styles keyed to the health bands the scanner reports. Healthy scores
// render green, middling ones yellow, critical ones red; everything
// structural (labels, rules, ages) stays muted.
var (
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#66bb6a"))

	StyleWarning = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fff59d"))

	StyleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ef5350"))

	StyleMuted = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	StyleBold = lipgloss.NewStyle().
			Bold(true)

	// StyleLabel and StyleValue align the key/value pairs printed by
	// the scan summary and the cache info command.
	StyleLabel = lipgloss.NewStyle().
			Width(22)

	StyleValue = lipgloss.NewStyle().
			Bold(true)
)

func init() {
	// Piped output gets plain text without anyone asking.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		SetNoColor(true)
	}
}

// SetNoColor strips color from all package-level styles. Alignment
// widths survive so summaries still line up when piped.
func SetNoColor(disabled bool) {
	if !disabled {
		return
	}
	plain := lipgloss.NewStyle()
	StyleHeader = plain
	StyleSuccess = plain
	StyleWarning = plain
	StyleError = plain
	StyleMuted = plain
	StyleBold = plain
	StyleLabel = plain.Width(22)
	StyleValue = plain
}
