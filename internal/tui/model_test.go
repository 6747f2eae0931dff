package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gsd-build/gsd/internal/errors"
	"github.com/gsd-build/gsd/internal/event"
	"github.com/gsd-build/gsd/internal/notify"
	"github.com/gsd-build/gsd/internal/scheduler"
	"github.com/gsd-build/gsd/internal/tui/styles"
)

func feed(t *testing.T, m Model, events ...event.Event) Model {
	t.Helper()
	for _, e := range events {
		next, _ := m.Update(EventMsg{Event: e})
		m = next.(Model)
	}
	return m
}

func TestModel_TracksUnits(t *testing.T) {
	m := NewModel(notify.Options{WarnMissingSummary: true}, nil)
	m = feed(t, m,
		event.NewPhaseStartedEvent("run-1", "2", "/p", 3, []int{1, 2}, false),
		event.NewWaveStartedEvent("2", 1, []string{"b-PLAN.md", "a-PLAN.md"}),
		event.NewUnitSkippedEvent("2", 1, "a-PLAN.md", "/p/a-SUMMARY.md"),
		event.NewUnitStartedEvent("2", 1, "b-PLAN.md", false),
	)

	if len(m.waves) != 2 || m.waves[0].state != styles.StatusRunning || m.waves[1].state != styles.StatusPending {
		t.Fatalf("waves = %+v", m.waves)
	}
	if m.byUnit["a-PLAN.md"].status != styles.StatusSkipped || m.byUnit["b-PLAN.md"].status != styles.StatusRunning {
		t.Errorf("unit states = %+v, %+v", m.byUnit["a-PLAN.md"], m.byUnit["b-PLAN.md"])
	}
	if m.waves[0].units[0].id != "a-PLAN.md" {
		t.Error("units should be listed by id")
	}

	m = feed(t, m,
		event.NewUnitCompletedEvent("2", 1, "b-PLAN.md", 1500*time.Millisecond, false),
		event.NewWaveCompletedEvent("2", 1, 1, 1),
		event.NewWaveStartedEvent("2", 2, []string{"c-PLAN.md"}),
		event.NewUnitStartedEvent("2", 2, "c-PLAN.md", false),
		event.NewUnitFailedEvent("2", 2, "c-PLAN.md", 4, "", time.Second, nil),
		event.NewWaveFailedEvent("2", 2, []string{"c-PLAN.md"}, errors.New("wave failed")),
	)

	b := m.byUnit["b-PLAN.md"]
	if b.status != styles.StatusDone || b.detail != "2s, no summary" {
		t.Errorf("b = %+v", b)
	}
	if c := m.byUnit["c-PLAN.md"]; c.status != styles.StatusFailed || c.detail != "exit 4" {
		t.Errorf("c = %+v", c)
	}
	if m.waves[0].state != styles.StatusComplete || m.waves[1].state != styles.StatusFailed {
		t.Errorf("wave states = %s, %s", m.waves[0].state, m.waves[1].state)
	}
	if len(m.notices) != maxNotices {
		t.Errorf("notices = %d, want capped at %d", len(m.notices), maxNotices)
	}

	view := m.View()
	for _, want := range []string{"Executing phase 2", "Wave 1", "Wave 2", "a-PLAN.md", "c-PLAN.md", "exit 4", "Wave 2 failed"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestModel_DryRun(t *testing.T) {
	m := feed(t, NewModel(notify.Options{}, nil),
		event.NewPhaseStartedEvent("run-1", "3", "/p", 1, []int{1}, true),
		event.NewWaveStartedEvent("3", 1, []string{"a-PLAN.md"}),
		event.NewUnitStartedEvent("3", 1, "a-PLAN.md", true),
	)
	if m.waves[0].state != styles.StatusPending {
		t.Errorf("dry-run wave state = %s", m.waves[0].state)
	}
	if u := m.byUnit["a-PLAN.md"]; u.status != styles.StatusPending || u.detail != "would run" {
		t.Errorf("unit = %+v", u)
	}
	if !strings.Contains(m.View(), "Dry run of phase 3") {
		t.Error("View() should show dry-run title")
	}
}

func TestModel_QuitKeys(t *testing.T) {
	interrupted := 0
	m := NewModel(notify.Options{}, func() { interrupted++ })

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	if interrupted != 1 || cmd != nil {
		t.Fatalf("first ctrl+c: interrupted = %d, cmd = %v", interrupted, cmd)
	}
	if !strings.Contains(m.View(), "stopping after the current wave") {
		t.Error("View() should show the stopping hint")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("second quit key should leave the view")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.Quit")
	}
	if interrupted != 1 {
		t.Errorf("interrupt called %d times", interrupted)
	}
}

func TestModel_Done(t *testing.T) {
	res := &scheduler.RunResult{Phase: "1", Outcome: scheduler.AllWavesCompleted}
	next, cmd := NewModel(notify.Options{}, nil).Update(DoneMsg{Result: res})
	m := next.(Model)

	if !m.Done() {
		t.Error("Done() = false")
	}
	if got, err := m.Result(); got != res || err != nil {
		t.Errorf("Result() = %v, %v", got, err)
	}
	if cmd == nil {
		t.Fatal("DoneMsg should quit the program")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.Quit")
	}
}

func TestModel_IgnoresUnknownUnits(t *testing.T) {
	m := feed(t, NewModel(notify.Options{}, nil),
		event.NewUnitStartedEvent("1", 1, "ghost-PLAN.md", false),
	)
	if len(m.byUnit) != 0 {
		t.Errorf("byUnit = %v", m.byUnit)
	}
}

func TestModel_ClipsToWindowWidth(t *testing.T) {
	m := NewModel(notify.Options{}, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	m = feed(t, next.(Model),
		event.NewPhaseStartedEvent("run-1", "3", "/p", 1, []int{1}, false),
		event.NewWaveStartedEvent("3", 1, []string{"a-PLAN.md"}),
		event.NewUnitStartedEvent("3", 1, "a-PLAN.md", false),
		event.NewUnitFailedEvent("3", 1, "a-PLAN.md", 1, "first stderr line\nsecond stderr line\n", time.Second,
			errors.New("a very long failure description that cannot fit\non one line")),
	)

	for _, line := range strings.Split(m.View(), "\n") {
		if w := lipgloss.Width(line); w > 40 {
			t.Errorf("line wider than the window (%d): %q", w, line)
		}
	}
	if strings.Contains(m.View(), "second stderr line") {
		t.Error("only the first line of a failure should be shown")
	}
}
