package styles

import "github.com/charmbracelet/lipgloss"

// Styles holds the themed lipgloss styles of the watch view.
type Styles struct {
	// Table
	TableHeader  lipgloss.Style
	TableRow     lipgloss.Style
	TableRowSel  lipgloss.Style
	TableCellDim lipgloss.Style

	// Status colors
	StatusUp   lipgloss.Style
	StatusDown lipgloss.Style
	StatusWarn lipgloss.Style

	// Utilization thresholds
	UtilLow  lipgloss.Style // < 50%
	UtilMid  lipgloss.Style // 50-80%
	UtilHigh lipgloss.Style // >= 80%

	// Charts
	Sparkline    lipgloss.Style
	ChartDown    lipgloss.Style
	ChartUp      lipgloss.Style
	InfoLabel    lipgloss.Style
	InfoValue    lipgloss.Style
	InfoStandout lipgloss.Style

	// Modal / overlay
	ModalBorder lipgloss.Style
	ModalTitle  lipgloss.Style
	ModalKey    lipgloss.Style
	ModalDesc   lipgloss.Style
}

// NewStyles creates a new Styles instance from a theme.
func NewStyles(theme Theme) *Styles {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return &Styles{
		TableHeader:  fg(theme.Base0D).Bold(true),
		TableRow:     fg(theme.Base05),
		TableRowSel:  fg(theme.Base05).Background(theme.Base02),
		TableCellDim: fg(theme.Base03),

		StatusUp:   fg(theme.Base0B),
		StatusDown: fg(theme.Base08),
		StatusWarn: fg(theme.Base0A),

		UtilLow:  fg(theme.Base0B),
		UtilMid:  fg(theme.Base0A),
		UtilHigh: fg(theme.Base08),

		Sparkline:    fg(theme.Base0C),
		ChartDown:    fg(theme.Base0B),
		ChartUp:      fg(theme.Base0C),
		InfoLabel:    fg(theme.Base04).Width(16),
		InfoValue:    fg(theme.Base05),
		InfoStandout: fg(theme.Base0D).Bold(true),

		ModalBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Base0D).
			BorderBackground(theme.Base00).
			Background(theme.Base00).
			Padding(1, 2),
		ModalTitle: fg(theme.Base0E).Bold(true),
		ModalKey:   fg(theme.Base0D).Bold(true),
		ModalDesc:  fg(theme.Base05),
	}
}

// Status returns the style for an interface oper status.
func (s *Styles) Status(status string) lipgloss.Style {
	switch status {
	case "up":
		return s.StatusUp
	case "down":
		return s.StatusDown
	default:
		return s.StatusWarn
	}
}

// Utilization returns the threshold style for a utilization percentage.
func (s *Styles) Utilization(pct float64) lipgloss.Style {
	switch {
	case pct >= 80:
		return s.UtilHigh
	case pct >= 50:
		return s.UtilMid
	default:
		return s.UtilLow
	}
}
