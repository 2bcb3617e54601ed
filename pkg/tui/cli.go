// Package tui provides terminal output helpers for the CheckFlow CLI.
// Simple streaming output, no full-screen TUI.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	warning = lipgloss.Color("#FFAA00")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	AccentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(muted)
	SuccessStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	WarnStyle    = lipgloss.NewStyle().Foreground(warning).Bold(true)
)

// SeverityStyle returns the display style for a severity tag.
func SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case "critical":
		return AccentStyle
	case "major":
		return WarnStyle
	case "minor":
		return TitleStyle
	default:
		return MutedStyle
	}
}

// PrintHeader prints the CLI banner.
func PrintHeader(version string) {
	fmt.Println()
	fmt.Println(TitleStyle.Render("  CHECKFLOW") + MutedStyle.Render(" v"+version))
	fmt.Println(MutedStyle.Render("  Conformance checking for process event logs"))
	fmt.Println()
}

// Rule prints a muted horizontal separator.
func Rule() {
	fmt.Println(MutedStyle.Render("  ─────────────────────────────────────"))
}

// FormatNumber renders counts compactly (1.2K, 3.4M).
func FormatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

// ShowProgress creates a progress bar for case checking.
func ShowProgress(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// ClearLine clears the current line.
func ClearLine() {
	fmt.Print("\r\033[K")
}
