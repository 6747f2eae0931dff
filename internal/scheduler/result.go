package scheduler

import (
	"time"

	"github.com/gsd-build/gsd/internal/executor"
)

// WaveState is the lifecycle state of one wave.
type WaveState string

const (
	WavePending   WaveState = "pending"
	WaveRunning   WaveState = "running"
	WaveCompleted WaveState = "completed"
	WaveFailed    WaveState = "failed"
)

// Outcome is the terminal state of a run.
type Outcome string

const (
	// AllWavesCompleted means every wave finished with no failed plan.
	AllWavesCompleted Outcome = "all_waves_completed"
	// HaltedOnFailure means a wave failed and later waves never started.
	HaltedOnFailure Outcome = "halted_on_failure"
	// Canceled means the caller stopped the run between waves.
	Canceled Outcome = "canceled"
	// Planned is the outcome of a dry run; nothing was launched.
	Planned Outcome = "planned"
)

// WaveResult records what happened to one wave.
type WaveResult struct {
	Number  int
	State   WaveState
	Results []executor.Result // ordered by UnitID
}

// Executed returns the number of plans launched in the wave.
func (w WaveResult) Executed() int {
	n := 0
	for _, r := range w.Results {
		if !r.Skipped {
			n++
		}
	}
	return n
}

// Skipped returns the number of plans skipped as already complete.
func (w WaveResult) Skipped() int {
	return len(w.Results) - w.Executed()
}

// RunResult is the outcome of executing one phase.
type RunResult struct {
	RunID string
	Phase string
	// Dir is the resolved phase directory.
	Dir     string
	Waves   []WaveResult
	Outcome Outcome
	// FailedWave and FailedUnits identify the failure when Outcome is
	// HaltedOnFailure.
	FailedWave  int
	FailedUnits []string
	Duration    time.Duration
}

// Executed returns the number of plans launched across all waves.
func (r *RunResult) Executed() int {
	n := 0
	for _, w := range r.Waves {
		n += w.Executed()
	}
	return n
}

// Skipped returns the number of plans skipped across all waves.
func (r *RunResult) Skipped() int {
	n := 0
	for _, w := range r.Waves {
		n += w.Skipped()
	}
	return n
}
