package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rhyred/routerdash/internal/engine"
	"github.com/rhyred/routerdash/tui/components"
	"github.com/rhyred/routerdash/tui/keys"
	"github.com/rhyred/routerdash/tui/styles"
)

const infoPanelHeight = 10

// DetailView shows one interface: an info panel on top and download/upload
// history charts below.
type DetailView struct {
	theme   styles.Theme
	sty     *styles.Styles
	router  string
	iface   engine.InterfaceRate
	history []engine.RatePoint
	width   int
	height  int
}

// NewDetailView creates a new DetailView with the given theme.
func NewDetailView(theme styles.Theme, router string) DetailView {
	return DetailView{
		theme:  theme,
		sty:    styles.NewStyles(theme),
		router: router,
	}
}

// SetInterface updates the detail view with fresh interface data.
func (v *DetailView) SetInterface(iface engine.InterfaceRate, history []engine.RatePoint) {
	v.iface = iface
	v.history = history
}

// Name returns the interface currently shown.
func (v DetailView) Name() string {
	return v.iface.Name
}

// SetSize updates the available dimensions for the view.
func (v *DetailView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Update reports true as the second value when the user leaves the view.
func (v DetailView) Update(msg tea.Msg) (DetailView, bool) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.DefaultKeyMap.Escape) {
		return v, true
	}
	return v, false
}

// View renders the info panel and both charts.
func (v DetailView) View() string {
	chartHeight := max(v.height-infoPanelHeight-1, 6)
	chartWidth := max((v.width-3)/2, 15)

	down := v.sty.ChartDown.Render(
		components.RenderChart(downloadSeries(v.history), chartWidth, chartHeight, "Download"))
	up := v.sty.ChartUp.Render(
		components.RenderChart(uploadSeries(v.history), chartWidth, chartHeight, "Upload"))
	sep := v.sty.TableCellDim.Render(strings.TrimSuffix(strings.Repeat(" | \n", chartHeight), "\n"))

	back := lipgloss.NewStyle().Foreground(v.theme.Base04).Render(
		fmt.Sprintf("  %s to go back", v.sty.ModalKey.Render("[esc]")))

	return lipgloss.JoinVertical(lipgloss.Left,
		v.renderInfo(),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, down, sep, up),
		back,
	)
}

func (v DetailView) renderInfo() string {
	ir := v.iface
	line := func(label, value string) string {
		return "  " + v.sty.InfoLabel.Render(label) + value
	}

	util := "n/a"
	if ir.SpeedMbps > 0 {
		util = v.sty.Utilization(ir.Utilization).Render(fmt.Sprintf("%.1f%%", ir.Utilization))
	}
	status := v.sty.Status(ir.Status).Render(ir.Status)
	if ir.Error != "" {
		status = v.sty.StatusDown.Render(ir.Error)
	}

	return strings.Join([]string{
		"",
		line("Router:", v.sty.InfoStandout.Render(v.router)),
		line("Interface:", v.sty.InfoStandout.Render(ir.Name)),
		line("Description:", v.sty.InfoValue.Render(ir.Description)),
		line("Status:", status),
		line("Speed:", v.sty.InfoValue.Render(components.FormatSpeed(ir.SpeedMbps))),
		line("Download:", v.sty.InfoValue.Render(components.FormatMbps(ir.Download))),
		line("Upload:", v.sty.InfoValue.Render(components.FormatMbps(ir.Upload))),
		line("Utilization:", util),
	}, "\n")
}
