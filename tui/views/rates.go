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

// Minimum column widths.
const (
	colInterface = 24
	colStatus    = 9
	colDown      = 10
	colUp        = 10
	colUtil      = 8
	colSparkMin  = 12
)

// RatesView is the interface table: one row per monitored interface with its
// current rates and a download trend.
type RatesView struct {
	theme   styles.Theme
	sty     *styles.Styles
	rows    []engine.InterfaceRate
	history map[string][]engine.RatePoint
	cursor  int
	offset  int
	width   int
	height  int
}

// NewRatesView creates a RatesView with the given theme.
func NewRatesView(theme styles.Theme) RatesView {
	return RatesView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}
}

// Update moves the cursor.
func (v RatesView) Update(msg tea.Msg) (RatesView, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.DefaultKeyMap.Up):
			if v.cursor > 0 {
				v.cursor--
			}
		case key.Matches(msg, keys.DefaultKeyMap.Down):
			if v.cursor < len(v.rows)-1 {
				v.cursor++
			}
		}
		v.ensureVisible()
	}
	return v, nil
}

// SetSnapshot replaces the table contents and keeps the cursor in range.
func (v *RatesView) SetSnapshot(snap *engine.Snapshot, history map[string][]engine.RatePoint) {
	v.rows = nil
	if snap != nil {
		v.rows = snap.Interfaces
	}
	v.history = history
	if v.cursor >= len(v.rows) {
		v.cursor = max(len(v.rows)-1, 0)
	}
	v.ensureVisible()
}

// Selected returns the interface under the cursor.
func (v RatesView) Selected() (engine.InterfaceRate, []engine.RatePoint, bool) {
	if v.cursor >= len(v.rows) {
		return engine.InterfaceRate{}, nil, false
	}
	row := v.rows[v.cursor]
	return row, v.history[row.Name], true
}

// SetSize updates the available dimensions for the view.
func (v *RatesView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.ensureVisible()
}

// View renders the table.
func (v RatesView) View() string {
	if len(v.rows) == 0 {
		return v.renderEmpty()
	}

	wSpark := max(v.width-(colInterface+colStatus+colDown+colUp+colUtil), colSparkMin)
	h := v.sty.TableHeader
	lines := []string{
		h.Render(padRight("Interface", colInterface)) +
			h.Render(padRight("Status", colStatus)) +
			h.Render(padLeft("Down", colDown)) +
			h.Render(padLeft("Up", colUp)) +
			h.Render(padLeft("Util", colUtil)) +
			h.Render(padRight("  Trend", wSpark)),
	}

	end := min(v.offset+v.visibleRows(), len(v.rows))
	for i := v.offset; i < end; i++ {
		lines = append(lines, v.renderRow(v.rows[i], wSpark, i == v.cursor))
	}
	return strings.Join(lines, "\n")
}

func (v RatesView) renderRow(ir engine.InterfaceRate, wSpark int, selected bool) string {
	cell := func(st lipgloss.Style, s string) string {
		if selected {
			st = st.Background(v.theme.Base02)
		}
		return st.Render(s)
	}
	row := v.sty.TableRow

	name := cell(row, padRight(truncate(ir.Name, colInterface-1), colInterface))
	if ir.Error != "" {
		return name + cell(v.sty.StatusDown, padRight(truncate(ir.Error, v.width-colInterface), v.width-colInterface))
	}

	status := cell(v.sty.Status(ir.Status), padRight(ir.Status, colStatus))
	down := cell(row, padLeft(components.FormatMbps(ir.Download), colDown))
	up := cell(row, padLeft(components.FormatMbps(ir.Upload), colUp))

	utilText := "-"
	if ir.SpeedMbps > 0 {
		utilText = fmt.Sprintf("%.1f%%", ir.Utilization)
	}
	util := cell(v.sty.Utilization(ir.Utilization), padLeft(utilText, colUtil))

	spark := cell(v.sty.Sparkline, "  "+components.Sparkline(downloadSeries(v.history[ir.Name]), wSpark-2))

	return name + status + down + up + util + spark
}

func (v RatesView) renderEmpty() string {
	msg := lipgloss.NewStyle().
		Foreground(v.theme.Base04).
		Render("Waiting for the first poll...")
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, msg)
}

func (v RatesView) visibleRows() int {
	return max(v.height-1, 1) // minus header
}

// ensureVisible adjusts the scroll offset so the cursor row is visible.
func (v *RatesView) ensureVisible() {
	visible := v.visibleRows()
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+visible {
		v.offset = v.cursor - visible + 1
	}
}

func downloadSeries(points []engine.RatePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.DownloadMbps
	}
	return out
}

func uploadSeries(points []engine.RatePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.UploadMbps
	}
	return out
}
