package executor

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/gsd-build/gsd/internal/config"
	"github.com/gsd-build/gsd/internal/errors"
	"github.com/gsd-build/gsd/internal/logging"
)

// waitDelay bounds how long Wait blocks on output pipes held open by
// descendants after the agent itself was killed.
const waitDelay = 5 * time.Second

// Subprocess runs each plan as `{command} {print} {no-session} @plan
// @context... instruction` in the project root.
type Subprocess struct {
	Command       string
	PrintFlag     string
	NoSessionFlag string
	// Dir is the working directory for every subprocess.
	Dir string
	// Timeout kills a single plan after this long. Zero disables it.
	Timeout time.Duration

	logger *logging.Logger
}

// NewSubprocess creates a Subprocess from executor configuration.
func NewSubprocess(cfg config.ExecutorConfig, dir string, logger *logging.Logger) *Subprocess {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Subprocess{
		Command:       cfg.Command,
		PrintFlag:     cfg.PrintFlag,
		NoSessionFlag: cfg.NoSessionFlag,
		Dir:           dir,
		Timeout:       cfg.UnitTimeout(),
		logger:        logger,
	}
}

// Args builds the argument vector (without the command) for req. Empty
// flags are omitted.
func (s *Subprocess) Args(req Request) []string {
	args := make([]string, 0, 4+len(req.Context))
	for _, flag := range []string{s.PrintFlag, s.NoSessionFlag} {
		if flag != "" {
			args = append(args, flag)
		}
	}
	args = append(args, "@"+req.Payload)
	for _, ref := range req.Context {
		args = append(args, "@"+ref)
	}
	return append(args, req.Instruction)
}

// Execute runs one plan to completion. Cancelling ctx does not stop a
// launched subprocess; only the per-plan timeout does.
func (s *Subprocess) Execute(ctx context.Context, req Request) Result {
	unitID := req.Unit.ID
	logger := s.logger
	if req.Logger != nil {
		logger = req.Logger
	}
	logger = logger.WithUnit(unitID)
	result := Result{UnitID: unitID, Status: StatusFailure, ExitCode: -1}

	if s.Command == "" {
		result.Err = errors.NewLaunchError(unitID, s.Command, errors.New("no executor command configured"))
		return result
	}

	ctx = context.WithoutCancel(ctx)
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.Command, s.Args(req)...)
	cmd.Dir = s.Dir
	cmd.WaitDelay = waitDelay
	detach(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		logger.Error("failed to launch plan", "command", s.Command, "error", err.Error())
		result.Err = errors.NewLaunchError(unitID, s.Command, err)
		return result
	}
	logger.Debug("plan launched", "pid", cmd.Process.Pid)

	err := cmd.Wait()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	switch {
	case err == nil:
		result.Status = StatusSuccess
		result.ExitCode = 0
	case ctx.Err() == context.DeadlineExceeded:
		result.Err = errors.NewTimeoutError("plan "+unitID, s.Timeout)
		logger.Warn("plan timed out", "timeout", s.Timeout.String())
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.Err = errors.Wrap(err, "wait for plan")
		}
	}

	logger.Info("plan finished",
		"status", string(result.Status),
		"exit_code", result.ExitCode,
		"duration_ms", result.Duration.Milliseconds())
	if result.Status == StatusFailure && result.Stderr != "" {
		logger.Warn("plan stderr", "stderr", result.Stderr)
	}
	return result
}
