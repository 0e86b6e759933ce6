package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rhyred/routerdash/tui/styles"
)

// StatusInfo is what the status bar reports about the last poll.
type StatusInfo struct {
	Interval  time.Duration
	LastPoll  time.Time
	OK        int
	Total     int
	Throttled bool
	Err       error
}

// RenderStatusBar renders the two-line footer: poll state on top, key hints
// below.
func RenderStatusBar(theme styles.Theme, info StatusInfo, width int) string {
	bg := theme.Base01
	bgStyle := lipgloss.NewStyle().Background(bg)
	text := func(fg lipgloss.Color, s string) string {
		return lipgloss.NewStyle().Foreground(fg).Background(bg).Render(s)
	}
	sep := text(theme.Base03, " | ")

	last := "never"
	if !info.LastPoll.IsZero() {
		last = info.LastPoll.Format("15:04:05")
	}

	health := theme.Base0B
	if info.OK < info.Total {
		health = theme.Base0A
	}

	top := bgStyle.Render(" ") +
		text(theme.Base05, fmt.Sprintf("poll: %s", info.Interval)) + sep +
		text(theme.Base05, fmt.Sprintf("last: %s", last)) + sep +
		text(health, fmt.Sprintf("%d/%d OK", info.OK, info.Total))
	if info.Throttled {
		top += sep + text(theme.Base04, "cached")
	}
	if info.Err != nil {
		top += sep + text(theme.Base08, info.Err.Error())
	}

	keyStyle := lipgloss.NewStyle().Foreground(theme.Base0D).Background(bg).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.Base04).Background(bg)
	hints := []struct{ key, desc string }{
		{"enter", ":detail"},
		{"r", ":poll now"},
		{"?", ":help"},
		{"q", ":quit"},
	}
	bottom := bgStyle.Render(" ")
	for i, h := range hints {
		if i > 0 {
			bottom += bgStyle.Render("  ")
		}
		bottom += keyStyle.Render(h.key) + descStyle.Render(h.desc)
	}

	return lipgloss.JoinVertical(lipgloss.Left, fill(bgStyle, top, width), fill(bgStyle, bottom, width))
}

// fill pads a rendered line with background up to width.
func fill(bg lipgloss.Style, line string, width int) string {
	if w := lipgloss.Width(line); w < width {
		line += bg.Render(strings.Repeat(" ", width-w))
	}
	return line
}
