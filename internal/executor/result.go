// Package executor runs a single plan as an agent subprocess.
package executor

import (
	"context"
	"time"

	"github.com/gsd-build/gsd/internal/errors"
	"github.com/gsd-build/gsd/internal/logging"
	"github.com/gsd-build/gsd/internal/plan"
)

// Status is the outcome of one plan execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Request describes one plan execution.
type Request struct {
	Unit plan.Unit
	// Payload is the plan reference handed to the agent, relative to the
	// working directory.
	Payload string
	// Context lists additional documents referenced alongside the plan.
	Context []string
	// Instruction is the natural-language directive passed last.
	Instruction string
	// Logger carries the run, phase and wave of the request. Nil means the
	// runner logs without that context.
	Logger *logging.Logger
}

// Result is the immutable outcome of executing (or skipping) a plan.
type Result struct {
	UnitID   string
	Skipped  bool
	Status   Status
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	// Err is set when the subprocess could not be launched (a LaunchError)
	// or was killed by the per-plan timeout (a TimeoutError).
	Err error
}

// Runner executes plans. Implementations must be safe for concurrent use;
// the scheduler calls Execute once per plan of a wave in parallel.
type Runner interface {
	Execute(ctx context.Context, req Request) Result
}

// Skipped returns the result recorded for a plan whose summary already exists.
func Skipped(u plan.Unit) Result {
	return Result{UnitID: u.ID, Skipped: true, Status: StatusSuccess}
}

// Succeeded reports whether the plan ran (or was skipped) successfully.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// LaunchFailed reports whether the subprocess never started.
func (r Result) LaunchFailed() bool {
	return r.Err != nil && errors.Is(r.Err, errors.ErrLaunchFailed)
}

// Failure converts a failed result into a UnitFailure. It returns nil for
// successful results.
func (r Result) Failure() *errors.UnitFailure {
	if r.Succeeded() {
		return nil
	}
	return errors.NewUnitFailure(r.UnitID, r.ExitCode, r.Stderr, r.Err)
}
