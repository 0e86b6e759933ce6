package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rhyred/routerdash/internal/engine"
	"github.com/rhyred/routerdash/tui/styles"
)

type stubPoller struct {
	snap  *engine.Snapshot
	err   error
	polls int
}

func (p *stubPoller) Poll(context.Context) (*engine.Snapshot, error) {
	p.polls++
	if p.err != nil {
		return nil, p.err
	}
	return p.snap, nil
}

func (p *stubPoller) Last() *engine.Snapshot { return p.snap }

func newTestModel(p *stubPoller) AppModel {
	history := func(string, time.Duration) ([]engine.RatePoint, error) {
		return []engine.RatePoint{{DownloadMbps: 1}, {DownloadMbps: 2}}, nil
	}
	m := NewAppModel(p, history, Options{
		Router:       "ar651",
		Version:      "test",
		Theme:        styles.DefaultTheme,
		PollInterval: time.Second,
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return next.(AppModel)
}

func testSnapshot() *engine.Snapshot {
	return &engine.Snapshot{
		Router:   "ar651",
		PolledAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		Interfaces: []engine.InterfaceRate{
			{Name: "GigabitEthernet0/0/1", Status: "up", RateResult: engine.RateResult{Download: 42}},
			{Name: "Dialer1", Status: "up"},
		},
	}
}

func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

func TestAppPollsOnInit(t *testing.T) {
	p := &stubPoller{snap: testSnapshot()}
	m := newTestModel(p)

	msg := runCmd(t, m.Init())
	if _, ok := msg.(snapshotMsg); !ok {
		t.Fatalf("expected snapshotMsg, got %T", msg)
	}
	next, cmd := m.Update(msg)
	m = next.(AppModel)
	if cmd == nil {
		t.Error("a tick should be scheduled after a poll")
	}
	if p.polls != 1 {
		t.Errorf("polls = %d, want 1", p.polls)
	}

	out := m.View()
	for _, want := range []string{"GigabitEthernet0/0/1", "42.0M", "2/2 OK"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}

func TestAppPollError(t *testing.T) {
	p := &stubPoller{err: errors.New("request timeout")}
	m := newTestModel(p)

	next, _ := m.Update(runCmd(t, m.Init()))
	m = next.(AppModel)
	if !strings.Contains(m.View(), "request timeout") {
		t.Error("poll error should be shown in the status bar")
	}
}

func TestAppDetailNavigation(t *testing.T) {
	p := &stubPoller{snap: testSnapshot()}
	m := newTestModel(p)
	next, _ := m.Update(runCmd(t, m.Init()))
	m = next.(AppModel)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(AppModel)
	if m.state != StateDetail {
		t.Fatalf("state = %v, want detail", m.state)
	}
	if m.detail.Name() != "Dialer1" {
		t.Errorf("detail shows %q, want Dialer1", m.detail.Name())
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(AppModel).state != StateRates {
		t.Error("esc should return to the rates view")
	}
}

func TestAppRefreshAndHelp(t *testing.T) {
	p := &stubPoller{snap: testSnapshot()}
	m := newTestModel(p)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = next.(AppModel)
	runCmd(t, cmd)
	if p.polls != 1 {
		t.Errorf("refresh should poll, polls = %d", p.polls)
	}

	// A second refresh while the first is in flight is ignored.
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}); cmd != nil {
		t.Error("refresh should not stack polls")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = next.(AppModel)
	if !strings.Contains(m.View(), "Poll the router now") {
		t.Error("help overlay should be visible")
	}
}

func TestAppQuit(t *testing.T) {
	m := newTestModel(&stubPoller{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if _, ok := runCmd(t, cmd).(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
