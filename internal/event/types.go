package event

import (
	"time"
)

// Event is implemented by every event.
type Event interface {
	// EventType returns the "category.action" identifier.
	EventType() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypePhaseDiscoveryFailed = "phase.discovery_failed"
	TypePhaseStarted         = "phase.started"
	TypePhaseCompleted       = "phase.completed"
	TypePhaseHalted          = "phase.halted"
	TypeWaveStarted          = "wave.started"
	TypeWaveCompleted        = "wave.completed"
	TypeWaveFailed           = "wave.failed"
	TypeFileConflict         = "wave.file_conflict"
	TypeUnitSkipped          = "unit.skipped"
	TypeUnitStarted          = "unit.started"
	TypeUnitCompleted        = "unit.completed"
	TypeUnitFailed           = "unit.failed"
	TypeMarkerWritten        = "marker.written"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{eventType: eventType, timestamp: time.Now()}
}

// -----------------------------------------------------------------------------
// Phase Events
// -----------------------------------------------------------------------------

// PhaseDiscoveryFailedEvent is emitted when the phase directory or its
// plans could not be found. No other event of the run follows it.
type PhaseDiscoveryFailedEvent struct {
	baseEvent
	RunID string
	Phase string // Phase as requested
	Err   error
}

// NewPhaseDiscoveryFailedEvent creates a PhaseDiscoveryFailedEvent.
func NewPhaseDiscoveryFailedEvent(runID, phase string, err error) PhaseDiscoveryFailedEvent {
	return PhaseDiscoveryFailedEvent{
		baseEvent: newBaseEvent(TypePhaseDiscoveryFailed),
		RunID:     runID,
		Phase:     phase,
		Err:       err,
	}
}

// PhaseStartedEvent is emitted once plans are discovered and grouped.
type PhaseStartedEvent struct {
	baseEvent
	RunID  string
	Phase  string
	Dir    string
	Plans  int   // Plans selected for the run
	Waves  []int // Wave numbers in execution order
	DryRun bool
}

// NewPhaseStartedEvent creates a PhaseStartedEvent.
func NewPhaseStartedEvent(runID, phase, dir string, plans int, waves []int, dryRun bool) PhaseStartedEvent {
	return PhaseStartedEvent{
		baseEvent: newBaseEvent(TypePhaseStarted),
		RunID:     runID,
		Phase:     phase,
		Dir:       dir,
		Plans:     plans,
		Waves:     waves,
		DryRun:    dryRun,
	}
}

// PhaseCompletedEvent is emitted when every wave completed.
type PhaseCompletedEvent struct {
	baseEvent
	RunID    string
	Phase    string
	Executed int // Units launched across all waves
	Skipped  int // Units skipped as already complete
	Duration time.Duration
}

// NewPhaseCompletedEvent creates a PhaseCompletedEvent.
func NewPhaseCompletedEvent(runID, phase string, executed, skipped int, duration time.Duration) PhaseCompletedEvent {
	return PhaseCompletedEvent{
		baseEvent: newBaseEvent(TypePhaseCompleted),
		RunID:     runID,
		Phase:     phase,
		Executed:  executed,
		Skipped:   skipped,
		Duration:  duration,
	}
}

// PhaseHaltedEvent is emitted when a run stops before its last wave, either
// because a wave failed or because the run was canceled.
type PhaseHaltedEvent struct {
	baseEvent
	RunID string
	Phase string
	Wave  int // Wave that failed, or the next wave when canceled
	Err   error
}

// NewPhaseHaltedEvent creates a PhaseHaltedEvent.
func NewPhaseHaltedEvent(runID, phase string, wave int, err error) PhaseHaltedEvent {
	return PhaseHaltedEvent{
		baseEvent: newBaseEvent(TypePhaseHalted),
		RunID:     runID,
		Phase:     phase,
		Wave:      wave,
		Err:       err,
	}
}

// -----------------------------------------------------------------------------
// Wave Events
// -----------------------------------------------------------------------------

// WaveStartedEvent is emitted before a wave's completion check runs.
type WaveStartedEvent struct {
	baseEvent
	Phase string
	Wave  int
	Units []string
}

// NewWaveStartedEvent creates a WaveStartedEvent.
func NewWaveStartedEvent(phase string, wave int, units []string) WaveStartedEvent {
	return WaveStartedEvent{
		baseEvent: newBaseEvent(TypeWaveStarted),
		Phase:     phase,
		Wave:      wave,
		Units:     units,
	}
}

// WaveCompletedEvent is emitted after the barrier when no unit failed.
type WaveCompletedEvent struct {
	baseEvent
	Phase    string
	Wave     int
	Executed int
	Skipped  int
}

// NewWaveCompletedEvent creates a WaveCompletedEvent.
func NewWaveCompletedEvent(phase string, wave, executed, skipped int) WaveCompletedEvent {
	return WaveCompletedEvent{
		baseEvent: newBaseEvent(TypeWaveCompleted),
		Phase:     phase,
		Wave:      wave,
		Executed:  executed,
		Skipped:   skipped,
	}
}

// WaveFailedEvent is emitted after the barrier when at least one unit failed.
type WaveFailedEvent struct {
	baseEvent
	Phase   string
	Wave    int
	UnitIDs []string
	Err     error
}

// NewWaveFailedEvent creates a WaveFailedEvent.
func NewWaveFailedEvent(phase string, wave int, unitIDs []string, err error) WaveFailedEvent {
	return WaveFailedEvent{
		baseEvent: newBaseEvent(TypeWaveFailed),
		Phase:     phase,
		Wave:      wave,
		UnitIDs:   unitIDs,
		Err:       err,
	}
}

// -----------------------------------------------------------------------------
// Unit Events
// -----------------------------------------------------------------------------

// UnitSkippedEvent is emitted for a plan whose summary already exists.
type UnitSkippedEvent struct {
	baseEvent
	Phase      string
	Wave       int
	UnitID     string
	MarkerPath string
}

// NewUnitSkippedEvent creates a UnitSkippedEvent.
func NewUnitSkippedEvent(phase string, wave int, unitID, markerPath string) UnitSkippedEvent {
	return UnitSkippedEvent{
		baseEvent:  newBaseEvent(TypeUnitSkipped),
		Phase:      phase,
		Wave:       wave,
		UnitID:     unitID,
		MarkerPath: markerPath,
	}
}

// UnitStartedEvent is emitted right before a plan's subprocess launches, or
// in a dry run where it would have launched.
type UnitStartedEvent struct {
	baseEvent
	Phase  string
	Wave   int
	UnitID string
	DryRun bool
}

// NewUnitStartedEvent creates a UnitStartedEvent.
func NewUnitStartedEvent(phase string, wave int, unitID string, dryRun bool) UnitStartedEvent {
	return UnitStartedEvent{
		baseEvent: newBaseEvent(TypeUnitStarted),
		Phase:     phase,
		Wave:      wave,
		UnitID:    unitID,
		DryRun:    dryRun,
	}
}

// UnitCompletedEvent is emitted when a plan's subprocess exits zero.
type UnitCompletedEvent struct {
	baseEvent
	Phase         string
	Wave          int
	UnitID        string
	Duration      time.Duration
	MarkerWritten bool // Whether the summary existed after exit
}

// NewUnitCompletedEvent creates a UnitCompletedEvent.
func NewUnitCompletedEvent(phase string, wave int, unitID string, duration time.Duration, markerWritten bool) UnitCompletedEvent {
	return UnitCompletedEvent{
		baseEvent:     newBaseEvent(TypeUnitCompleted),
		Phase:         phase,
		Wave:          wave,
		UnitID:        unitID,
		Duration:      duration,
		MarkerWritten: markerWritten,
	}
}

// UnitFailedEvent is emitted when a plan's subprocess exits non-zero, times
// out, or cannot be launched.
type UnitFailedEvent struct {
	baseEvent
	Phase    string
	Wave     int
	UnitID   string
	ExitCode int
	Stderr   string
	Duration time.Duration
	Err      error
}

// NewUnitFailedEvent creates a UnitFailedEvent.
func NewUnitFailedEvent(phase string, wave int, unitID string, exitCode int, stderr string, duration time.Duration, err error) UnitFailedEvent {
	return UnitFailedEvent{
		baseEvent: newBaseEvent(TypeUnitFailed),
		Phase:     phase,
		Wave:      wave,
		UnitID:    unitID,
		ExitCode:  exitCode,
		Stderr:    stderr,
		Duration:  duration,
		Err:       err,
	}
}

// MarkerWrittenEvent is emitted by the marker watcher when a summary file
// appears for a plan of the running phase.
type MarkerWrittenEvent struct {
	baseEvent
	UnitID string
	Path   string
}

// NewMarkerWrittenEvent creates a MarkerWrittenEvent.
func NewMarkerWrittenEvent(unitID, path string) MarkerWrittenEvent {
	return MarkerWrittenEvent{
		baseEvent: newBaseEvent(TypeMarkerWritten),
		UnitID:    unitID,
		Path:      path,
	}
}

// FileConflictEvent is emitted when two plans of one wave declare the same
// file in files_modified. Both plans still run.
type FileConflictEvent struct {
	baseEvent
	Phase    string
	Wave     int
	FilePath string
	Owner    string
	UnitID   string
}

// NewFileConflictEvent creates a FileConflictEvent.
func NewFileConflictEvent(phase string, wave int, filePath, owner, unitID string) FileConflictEvent {
	return FileConflictEvent{
		baseEvent: newBaseEvent(TypeFileConflict),
		Phase:     phase,
		Wave:      wave,
		FilePath:  filePath,
		Owner:     owner,
		UnitID:    unitID,
	}
}
