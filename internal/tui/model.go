// Package tui renders live phase progress with Bubble Tea.
package tui

import (
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gsd-build/gsd/internal/event"
	"github.com/gsd-build/gsd/internal/notify"
	"github.com/gsd-build/gsd/internal/scheduler"
	"github.com/gsd-build/gsd/internal/tui/styles"
)

// maxNotices is how many recent notifications the view keeps.
const maxNotices = 6

type unitRow struct {
	id     string
	status string
	detail string
}

type waveRow struct {
	number int
	state  string
	units  []*unitRow
}

// Model is the Bubble Tea model for a running phase.
type Model struct {
	phase  string
	runID  string
	dryRun bool
	waves  []*waveRow
	byUnit map[string]*unitRow

	notices []notify.Notification
	opts    notify.Options

	spinner   spinner.Model
	width     int
	interrupt func()
	stopping  bool

	done   bool
	result *scheduler.RunResult
	err    error
}

// NewModel creates a Model. interrupt is called on the first quit key and
// should stop the run before its next wave.
func NewModel(opts notify.Options, interrupt func()) Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = styles.Running
	if interrupt == nil {
		interrupt = func() {}
	}
	return Model{
		byUnit:    make(map[string]*unitRow),
		opts:      opts,
		spinner:   s,
		interrupt: interrupt,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress events, the run's completion and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.done || m.stopping {
				return m, tea.Quit
			}
			m.stopping = true
			m.interrupt()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		m.apply(msg.Event)
		return m, nil

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) apply(e event.Event) {
	m.notices = append(m.notices, notify.Translate(e, m.opts)...)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}

	switch e := e.(type) {
	case event.PhaseStartedEvent:
		m.phase = e.Phase
		m.runID = e.RunID
		m.dryRun = e.DryRun
		m.waves = m.waves[:0]
		for _, n := range e.Waves {
			m.waves = append(m.waves, &waveRow{number: n, state: styles.StatusPending})
		}

	case event.WaveStartedEvent:
		w := m.wave(e.Wave)
		w.state = styles.StatusRunning
		ids := append([]string(nil), e.Units...)
		sort.Strings(ids)
		w.units = w.units[:0]
		for _, id := range ids {
			row := &unitRow{id: id, status: styles.StatusPending}
			w.units = append(w.units, row)
			m.byUnit[id] = row
		}
		if m.dryRun {
			w.state = styles.StatusPending
		}

	case event.UnitSkippedEvent:
		m.setUnit(e.UnitID, styles.StatusSkipped, "summary exists")

	case event.UnitStartedEvent:
		if e.DryRun {
			m.setUnit(e.UnitID, styles.StatusPending, "would run")
		} else {
			m.setUnit(e.UnitID, styles.StatusRunning, "")
		}

	case event.UnitCompletedEvent:
		detail := e.Duration.Round(time.Second).String()
		if !e.MarkerWritten {
			detail += ", no summary"
		}
		m.setUnit(e.UnitID, styles.StatusDone, detail)

	case event.UnitFailedEvent:
		detail := "exit " + strconv.Itoa(e.ExitCode)
		if e.Err != nil {
			detail = e.Err.Error()
		}
		m.setUnit(e.UnitID, styles.StatusFailed, detail)

	case event.WaveCompletedEvent:
		m.wave(e.Wave).state = styles.StatusComplete

	case event.WaveFailedEvent:
		m.wave(e.Wave).state = styles.StatusFailed
	}
}

func (m *Model) wave(n int) *waveRow {
	for _, w := range m.waves {
		if w.number == n {
			return w
		}
	}
	w := &waveRow{number: n, state: styles.StatusPending}
	m.waves = append(m.waves, w)
	return w
}

func (m *Model) setUnit(id, status, detail string) {
	row, ok := m.byUnit[id]
	if !ok {
		return
	}
	row.status = status
	row.detail = detail
}

// Done reports whether the run has returned.
func (m Model) Done() bool {
	return m.done
}

// Result returns the run's result and error once Done.
func (m Model) Result() (*scheduler.RunResult, error) {
	return m.result, m.err
}
