package tui

import (
	"github.com/gsd-build/gsd/internal/event"
	"github.com/gsd-build/gsd/internal/scheduler"
)

// EventMsg delivers a progress event to the model.
type EventMsg struct {
	Event event.Event
}

// DoneMsg reports that the run returned.
type DoneMsg struct {
	Result *scheduler.RunResult
	Err    error
}
