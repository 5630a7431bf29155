package output

import (
	"fmt"
	"strings"
)

// HealthBar renders a visual bar for a 0-100 health score.
// Example: "████████░░ 80/100"
func HealthBar(score int, width int) string {
	if width <= 0 {
		width = 10
	}
	filled := score * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	var style func(string) string
	switch {
	case score >= 70:
		style = func(s string) string { return StyleSuccess.Render(s) }
	case score >= 40:
		style = func(s string) string { return StyleWarning.Render(s) }
	default:
		style = func(s string) string { return StyleError.Render(s) }
	}

	return fmt.Sprintf("%s %s", style(bar), StyleMuted.Render(fmt.Sprintf("%d/100", score)))
}

// Severity returns a styled severity tag for an issue level.
func Severity(level string) string {
	switch level {
	case "critical":
		return StyleError.Render("CRIT")
	case "warning":
		return StyleWarning.Render("WARN")
	default:
		return StyleMuted.Render("info")
	}
}

// ScanProgress renders a one-line progress string for in-place updates.
func ScanProgress(seen, estimate int) string {
	return fmt.Sprintf("\rscanning... %d/%d directories", seen, estimate)
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
