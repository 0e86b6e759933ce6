package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/rhyred/routerdash/tui/styles"
)

// RenderHeader renders the top bar: app name, router, live state and the
// number of monitored interfaces.
func RenderHeader(theme styles.Theme, router string, live bool, ifaceCount, width int, version string) string {
	seg := func(fg lipgloss.Color, bold bool, s string) string {
		return lipgloss.NewStyle().Foreground(fg).Background(theme.Base01).Bold(bold).Render(s)
	}

	state, stateColor := "WAITING", theme.Base0A
	if live {
		state, stateColor = "LIVE", theme.Base0B
	}
	if router == "" {
		router = "(no router)"
	}

	content := fmt.Sprintf(" %s  |  %s  |  %s  |  %s  |  %s ",
		seg(theme.Base0D, true, "routerdash"),
		seg(theme.Base05, false, router),
		seg(stateColor, false, state),
		seg(theme.Base04, false, fmt.Sprintf("%d interfaces", ifaceCount)),
		seg(theme.Base04, false, "v"+version),
	)

	return lipgloss.NewStyle().
		Background(theme.Base01).
		Width(width).
		Render(content)
}
