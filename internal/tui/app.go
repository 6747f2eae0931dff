package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gsd-build/gsd/internal/event"
	"github.com/gsd-build/gsd/internal/notify"
	"github.com/gsd-build/gsd/internal/scheduler"
)

// RunFunc executes a phase. It must return once ctx is canceled and the
// current wave has finished.
type RunFunc func(ctx context.Context) (*scheduler.RunResult, error)

// App shows a live progress view while a phase runs.
type App struct {
	bus  *event.Bus
	opts notify.Options
}

// New creates an App that renders events published on bus.
func New(bus *event.Bus, opts notify.Options) *App {
	return &App{bus: bus, opts: opts}
}

// Run starts run in the background and blocks until both the view and the
// run have finished. Leaving the view early cancels ctx for run, which then
// stops before its next wave.
func (a *App) Run(ctx context.Context, run RunFunc) (*scheduler.RunResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(NewModel(a.opts, cancel))

	id := a.bus.SubscribeAll(func(e event.Event) {
		program.Send(EventMsg{Event: e})
	})
	defer a.bus.Unsubscribe(id)

	var result *scheduler.RunResult
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, runErr = run(ctx)
		program.Send(DoneMsg{Result: result, Err: runErr})
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-done
		return result, err
	}

	cancel()
	<-done
	return result, runErr
}
