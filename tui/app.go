package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rhyred/routerdash/internal/engine"
	"github.com/rhyred/routerdash/tui/components"
	"github.com/rhyred/routerdash/tui/keys"
	"github.com/rhyred/routerdash/tui/styles"
	"github.com/rhyred/routerdash/tui/views"
)

// AppState represents the current screen of the application.
type AppState int

const (
	StateRates AppState = iota
	StateDetail
)

// historyWindow is how much rate history the trend columns and charts show.
const historyWindow = 5 * time.Minute

// Poller is the subset of engine.Poller the TUI drives.
type Poller interface {
	Poll(ctx context.Context) (*engine.Snapshot, error)
	Last() *engine.Snapshot
}

// HistoryFunc returns the rate history of one interface.
type HistoryFunc func(interfaceID string, window time.Duration) ([]engine.RatePoint, error)

// Options configures an AppModel.
type Options struct {
	Router       string
	Version      string
	Theme        styles.Theme
	PollInterval time.Duration
	// PollTimeout bounds a single poll. Defaults to PollInterval.
	PollTimeout time.Duration
}

type tickMsg struct{}

type snapshotMsg struct {
	snap *engine.Snapshot
	err  error
}

// AppModel is the root Bubble Tea model of the watch view.
type AppModel struct {
	state   AppState
	opts    Options
	poller  Poller
	history HistoryFunc
	rates   views.RatesView
	detail  views.DetailView
	help    views.HelpView
	snap    *engine.Snapshot
	err     error
	polling bool
	width   int
	height  int
}

// NewAppModel creates an AppModel polling through p.
func NewAppModel(p Poller, history HistoryFunc, opts Options) AppModel {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = opts.PollInterval
	}
	return AppModel{
		state:   StateRates,
		opts:    opts,
		poller:  p,
		history: history,
		rates:   views.NewRatesView(opts.Theme),
		detail:  views.NewDetailView(opts.Theme, opts.Router),
		help:    views.NewHelpView(opts.Theme),
	}
}

// Init polls immediately.
func (m AppModel) Init() tea.Cmd {
	return m.pollCmd()
}

func (m AppModel) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.PollInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m AppModel) pollCmd() tea.Cmd {
	p, timeout := m.poller, m.opts.PollTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snap, err := p.Poll(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

// Update handles messages and dispatches to the active view.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		body := m.bodyHeight()
		m.rates.SetSize(msg.Width, body)
		m.detail.SetSize(msg.Width, body)
		m.help.SetSize(msg.Width, body)
		return m, nil

	case tickMsg:
		if m.polling {
			return m, nil
		}
		m.polling = true
		return m, m.pollCmd()

	case snapshotMsg:
		m.polling = false
		m.err = msg.err
		if msg.snap != nil {
			m.applySnapshot(msg.snap)
		} else if last := m.poller.Last(); last != nil && m.snap == nil {
			m.applySnapshot(last)
		}
		return m, m.tickCmd()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.DefaultKeyMap.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.DefaultKeyMap.Help):
			m.help.Toggle()
			return m, nil
		}
		if m.help.IsVisible() {
			if key.Matches(msg, keys.DefaultKeyMap.Escape) {
				m.help.Toggle()
			}
			return m, nil
		}
		if key.Matches(msg, keys.DefaultKeyMap.Refresh) {
			if m.polling {
				return m, nil
			}
			m.polling = true
			return m, m.pollCmd()
		}

		switch m.state {
		case StateRates:
			if key.Matches(msg, keys.DefaultKeyMap.Enter) {
				if iface, hist, ok := m.rates.Selected(); ok {
					m.detail.SetInterface(iface, hist)
					m.state = StateDetail
				}
				return m, nil
			}
			var cmd tea.Cmd
			m.rates, cmd = m.rates.Update(msg)
			return m, cmd
		case StateDetail:
			var back bool
			m.detail, back = m.detail.Update(msg)
			if back {
				m.state = StateRates
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *AppModel) applySnapshot(snap *engine.Snapshot) {
	m.snap = snap
	hist := make(map[string][]engine.RatePoint, len(snap.Interfaces))
	if m.history != nil {
		for _, ir := range snap.Interfaces {
			if points, err := m.history(ir.Name, historyWindow); err == nil {
				hist[ir.Name] = points
			}
		}
	}
	m.rates.SetSnapshot(snap, hist)
	if m.state == StateDetail {
		for _, ir := range snap.Interfaces {
			if ir.Name == m.detail.Name() {
				m.detail.SetInterface(ir, hist[ir.Name])
				break
			}
		}
	}
}

func (m AppModel) bodyHeight() int {
	return max(m.height-1-2, 1) // 1 header line, 2 status bar lines
}

// View composes header, body and status bar.
func (m AppModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	info := components.StatusInfo{Interval: m.opts.PollInterval, Err: m.err}
	count := 0
	if m.snap != nil {
		count = len(m.snap.Interfaces)
		info.LastPoll = m.snap.PolledAt
		info.Total = count
		info.Throttled = m.snap.Throttled
		for _, ir := range m.snap.Interfaces {
			if ir.Error == "" {
				info.OK++
			}
		}
	}

	header := components.RenderHeader(m.opts.Theme, m.opts.Router, m.err == nil && m.snap != nil, count, m.width, m.opts.Version)

	var body string
	switch {
	case m.help.IsVisible():
		body = m.help.View()
	case m.state == StateDetail:
		body = m.detail.View()
	default:
		body = m.rates.View()
	}

	bodyStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.bodyHeight()).
		Background(m.opts.Theme.Base00).
		Foreground(m.opts.Theme.Base05)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		bodyStyle.Render(body),
		components.RenderStatusBar(m.opts.Theme, info, m.width))
}
