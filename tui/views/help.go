package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rhyred/routerdash/tui/styles"
)

// HelpView renders a modal overlay listing the key bindings.
type HelpView struct {
	theme   styles.Theme
	sty     *styles.Styles
	width   int
	height  int
	visible bool
}

// NewHelpView creates a new HelpView with the given theme.
func NewHelpView(theme styles.Theme) HelpView {
	return HelpView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}
}

// Toggle flips the help overlay visibility.
func (v *HelpView) Toggle() {
	v.visible = !v.visible
}

// IsVisible returns whether the help overlay is currently shown.
func (v HelpView) IsVisible() bool {
	return v.visible
}

// SetSize updates the available dimensions for the overlay.
func (v *HelpView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

type helpSection struct {
	title    string
	bindings [][2]string
}

var helpSections = []helpSection{
	{"Global", [][2]string{
		{"q / Ctrl+C", "Quit"},
		{"r", "Poll the router now"},
		{"?", "Toggle this help"},
	}},
	{"Interfaces", [][2]string{
		{"Up / Down", "Move the cursor"},
		{"Enter", "Interface detail"},
	}},
	{"Detail", [][2]string{
		{"Esc", "Back to interfaces"},
	}},
}

// View renders the help overlay as a centered modal box.
func (v HelpView) View() string {
	modalWidth := min(max(v.width/2, 38), 56)

	var lines []string
	for _, sec := range helpSections {
		lines = append(lines, v.sty.ModalTitle.Render(sec.title))
		for _, b := range sec.bindings {
			lines = append(lines, fmt.Sprintf("  %s  %s",
				v.sty.ModalKey.Render(padRight(b[0], 14)),
				v.sty.ModalDesc.Render(b[1])))
		}
		lines = append(lines, "")
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(v.theme.Base04).Render("[?] close"))

	modal := v.sty.ModalBorder.
		Width(modalWidth - 6). // border + padding
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, modal)
}
