// Package scheduler executes a phase wave by wave.
//
// Waves run strictly in ascending order. Within a wave every plan that is
// not already complete is launched at once, and the wave ends only when all
// of them have exited: a failing plan never cancels its siblings. A wave
// with any failed plan halts the run; completed plans are skipped on the
// next invocation, so re-running a halted phase resumes where it stopped.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/gsd-build/gsd/internal/completion"
	"github.com/gsd-build/gsd/internal/errors"
	"github.com/gsd-build/gsd/internal/event"
	"github.com/gsd-build/gsd/internal/executor"
	"github.com/gsd-build/gsd/internal/filelock"
	"github.com/gsd-build/gsd/internal/logging"
	"github.com/gsd-build/gsd/internal/plan"
	"github.com/gsd-build/gsd/internal/project"
	"github.com/gsd-build/gsd/internal/prompt"
	"github.com/gsd-build/gsd/internal/wave"
)

// Options selects what a single run does.
type Options struct {
	// Phase identifies the phase directory, e.g. "2" or "02-build".
	Phase string
	// GapMode runs only plans whose frontmatter sets gap_closure.
	GapMode bool
	// DryRun reports the wave plan and skip decisions without launching.
	DryRun bool
}

// Config wires a Scheduler's collaborators. Project, Store, Runner and
// Prompts are required.
type Config struct {
	Project *project.Project
	Store   *plan.Store
	Tracker *completion.Tracker
	Runner  executor.Runner
	Prompts *prompt.Builder
	Bus     *event.Bus
	Logger  *logging.Logger

	// ContextFiles are planning documents referenced by every plan,
	// relative to the planning directory.
	ContextFiles []string
	// WatchMarkers publishes marker.written events while waves run.
	WatchMarkers bool
}

// Scheduler runs phases.
type Scheduler struct {
	project      *project.Project
	store        *plan.Store
	tracker      *completion.Tracker
	runner       executor.Runner
	prompts      *prompt.Builder
	bus          *event.Bus
	logger       *logging.Logger
	contextRefs  []string
	watchMarkers bool
}

// New creates a Scheduler.
func New(cfg Config) (*Scheduler, error) {
	switch {
	case cfg.Project == nil:
		return nil, errors.NewValidationError("project is required").WithField("Project")
	case cfg.Store == nil:
		return nil, errors.NewValidationError("plan store is required").WithField("Store")
	case cfg.Runner == nil:
		return nil, errors.NewValidationError("runner is required").WithField("Runner")
	case cfg.Prompts == nil:
		return nil, errors.NewValidationError("prompt builder is required").WithField("Prompts")
	}

	s := &Scheduler{
		project:      cfg.Project,
		store:        cfg.Store,
		tracker:      cfg.Tracker,
		runner:       cfg.Runner,
		prompts:      cfg.Prompts,
		bus:          cfg.Bus,
		logger:       cfg.Logger,
		contextRefs:  cfg.Project.ContextRefs(cfg.ContextFiles),
		watchMarkers: cfg.WatchMarkers,
	}
	if s.tracker == nil {
		s.tracker = completion.NewTracker()
	}
	if s.bus == nil {
		s.bus = event.NewBus(cfg.Logger)
	}
	if s.logger == nil {
		s.logger = logging.NopLogger()
	}
	return s, nil
}

// Bus returns the bus progress events are published on.
func (s *Scheduler) Bus() *event.Bus {
	return s.bus
}

// Plan resolves the phase and groups its plans into waves without running
// anything.
func (s *Scheduler) Plan(opts Options) (*project.Phase, []wave.Wave, error) {
	phase, err := s.project.ResolvePhase(opts.Phase)
	if err != nil {
		return nil, nil, err
	}

	units, err := s.store.Discover(phase.Dir)
	if err != nil {
		var de *errors.DiscoveryError
		if errors.As(err, &de) {
			de.WithPhase(opts.Phase)
		}
		return nil, nil, err
	}

	if opts.GapMode {
		units = plan.FilterGapClosure(units)
		if len(units) == 0 {
			return nil, nil, errors.NewDiscoveryError(phase.Dir, errors.ErrEmptyPhase).WithPhase(opts.Phase)
		}
	}

	return phase, wave.Plan(units), nil
}

// Run executes the phase named by opts.Phase.
//
// The returned error is nil only when every wave completed (or, for a dry
// run, when the plan was built). A failed wave yields a *errors.WaveError;
// a plan that could not be launched yields its *errors.LaunchError, joined
// ahead of any WaveError. Cancelling ctx stops the run before the next wave
// starts but never interrupts a running wave.
func (s *Scheduler) Run(ctx context.Context, opts Options) (*RunResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	runLogger := s.logger.WithRun(runID)

	phase, waves, err := s.Plan(opts)
	if err != nil {
		runLogger.Error("phase discovery failed", "phase", opts.Phase, "error", err.Error())
		s.bus.Publish(event.NewPhaseDiscoveryFailedEvent(runID, opts.Phase, err))
		return nil, err
	}
	logger := runLogger.WithPhase(phase.Name)

	result := &RunResult{
		RunID: runID,
		Phase: opts.Phase,
		Dir:   phase.Dir,
		Waves: make([]WaveResult, 0, len(waves)),
	}
	for _, w := range waves {
		result.Waves = append(result.Waves, WaveResult{Number: w.Number, State: WavePending})
	}

	logger.Info("phase started",
		"dir", phase.Dir,
		"plans", wave.Count(waves),
		"waves", wave.Numbers(waves),
		"gap_mode", opts.GapMode,
		"dry_run", opts.DryRun)
	s.bus.Publish(event.NewPhaseStartedEvent(runID, opts.Phase, phase.Dir, wave.Count(waves), wave.Numbers(waves), opts.DryRun))

	// stopWatcher flushes pending marker events; it runs before every
	// terminal event so no marker is reported after the phase ends.
	stopWatcher := func() {}
	if s.watchMarkers && !opts.DryRun {
		var units []plan.Unit
		for _, w := range waves {
			units = append(units, w.Units...)
		}
		watcher, err := completion.NewWatcher(phase.Dir, units, s.bus, logger)
		if err != nil {
			logger.Warn("marker watcher unavailable", "error", err.Error())
		} else {
			watcher.Start()
			stopWatcher = watcher.Stop
		}
	}
	defer stopWatcher()

	claims := filelock.NewRegistry()
	for i, w := range waves {
		if err := ctx.Err(); err != nil {
			result.Outcome = Canceled
			result.Duration = time.Since(start)
			cancelErr := fmt.Errorf("phase %s stopped before wave %d: %w", opts.Phase, w.Number, errors.Join(errors.ErrCanceled, err))
			logger.Warn("phase canceled", "next_wave", w.Number)
			stopWatcher()
			s.bus.Publish(event.NewPhaseHaltedEvent(runID, opts.Phase, w.Number, cancelErr))
			return result, cancelErr
		}

		wr, err := s.runWave(ctx, opts, w, claims, logger.WithWave(w.Number))
		result.Waves[i] = wr

		if err != nil {
			result.Outcome = HaltedOnFailure
			result.FailedWave = w.Number
			result.FailedUnits = failedUnits(wr)
			result.Duration = time.Since(start)
			logger.Error("phase halted", "wave", w.Number, "failed_units", result.FailedUnits, "error", err.Error())
			stopWatcher()
			s.bus.Publish(event.NewWaveFailedEvent(opts.Phase, w.Number, result.FailedUnits, err))
			s.bus.Publish(event.NewPhaseHaltedEvent(runID, opts.Phase, w.Number, err))
			return result, err
		}

		if !opts.DryRun {
			s.bus.Publish(event.NewWaveCompletedEvent(opts.Phase, w.Number, wr.Executed(), wr.Skipped()))
		}
	}

	result.Duration = time.Since(start)
	if opts.DryRun {
		result.Outcome = Planned
		return result, nil
	}

	result.Outcome = AllWavesCompleted
	logger.Info("phase completed",
		"executed", result.Executed(),
		"skipped", result.Skipped(),
		"duration_ms", result.Duration.Milliseconds())
	stopWatcher()
	s.bus.Publish(event.NewPhaseCompletedEvent(runID, opts.Phase, result.Executed(), result.Skipped(), result.Duration))
	return result, nil
}

// runWave evaluates completion for every plan of w, launches the rest
// concurrently and waits for all of them.
func (s *Scheduler) runWave(ctx context.Context, opts Options, w wave.Wave, claims *filelock.Registry, logger *logging.Logger) (WaveResult, error) {
	wr := WaveResult{Number: w.Number, State: WavePending}

	ids := make([]string, len(w.Units))
	for i, u := range w.Units {
		ids[i] = u.ID
	}
	s.bus.Publish(event.NewWaveStartedEvent(opts.Phase, w.Number, ids))

	pending, complete := s.tracker.Partition(w.Units)
	for _, u := range complete {
		logger.Info("plan already complete", "unit_id", u.ID)
		wr.Results = append(wr.Results, executor.Skipped(u))
		s.bus.Publish(event.NewUnitSkippedEvent(opts.Phase, w.Number, u.ID, u.MarkerPath))
	}

	for _, u := range pending {
		for _, c := range claims.ClaimUnit(u) {
			logger.Warn("plans in one wave modify the same file", "file", c.FilePath, "owner", c.Owner, "unit_id", c.UnitID)
			s.bus.Publish(event.NewFileConflictEvent(opts.Phase, w.Number, c.FilePath, c.Owner, c.UnitID))
		}
		defer claims.ReleaseAll(u.ID)
	}

	if opts.DryRun {
		for _, u := range pending {
			s.bus.Publish(event.NewUnitStartedEvent(opts.Phase, w.Number, u.ID, true))
		}
		sortResults(wr.Results)
		return wr, nil
	}

	wr.State = WaveRunning
	logger.Info("wave started", "launching", len(pending), "skipped", len(complete))

	results := make(chan executor.Result, len(pending))
	var wg conc.WaitGroup
	for _, u := range pending {
		wg.Go(func() {
			s.bus.Publish(event.NewUnitStartedEvent(opts.Phase, w.Number, u.ID, false))
			res := s.execute(ctx, u, logger)
			s.publishOutcome(opts.Phase, w.Number, u, res)
			results <- res
		})
	}
	wg.Wait()
	close(results)

	for res := range results {
		wr.Results = append(wr.Results, res)
	}
	sortResults(wr.Results)

	var launchErrs []error
	var failures []*errors.UnitFailure
	for _, res := range wr.Results {
		switch {
		case res.Succeeded():
		case res.LaunchFailed():
			launchErrs = append(launchErrs, res.Err)
		default:
			failures = append(failures, res.Failure())
		}
	}

	if len(launchErrs) == 0 && len(failures) == 0 {
		wr.State = WaveCompleted
		logger.Info("wave completed", "executed", wr.Executed(), "skipped", wr.Skipped())
		return wr, nil
	}

	wr.State = WaveFailed
	errs := launchErrs
	if len(failures) > 0 {
		errs = append(errs, errors.NewWaveError(w.Number, failures))
	}
	if len(errs) == 1 {
		return wr, errs[0]
	}
	return wr, errors.Join(errs...)
}

// execute runs a single plan. A panicking runner is reported as a failed
// plan so the barrier still completes.
func (s *Scheduler) execute(ctx context.Context, u plan.Unit, logger *logging.Logger) executor.Result {
	ref := s.project.Rel(u.Path)
	req := executor.Request{
		Unit:        u,
		Payload:     ref,
		Context:     s.contextRefs,
		Instruction: s.prompts.Instruction(ref, u),
		Logger:      logger,
	}

	var res executor.Result
	var pc panics.Catcher
	pc.Try(func() { res = s.runner.Execute(ctx, req) })
	if r := pc.Recovered(); r != nil {
		logger.Error("runner panicked", "unit_id", u.ID, "panic", r.String())
		return executor.Result{
			UnitID:   u.ID,
			Status:   executor.StatusFailure,
			ExitCode: -1,
			Err:      r.AsError(),
		}
	}
	res.UnitID = u.ID
	return res
}

func (s *Scheduler) publishOutcome(phase string, waveNum int, u plan.Unit, res executor.Result) {
	if res.Succeeded() {
		s.bus.Publish(event.NewUnitCompletedEvent(phase, waveNum, u.ID, res.Duration, s.tracker.IsComplete(u)))
		return
	}
	s.bus.Publish(event.NewUnitFailedEvent(phase, waveNum, u.ID, res.ExitCode, res.Stderr, res.Duration, res.Err))
}

func failedUnits(wr WaveResult) []string {
	var ids []string
	for _, r := range wr.Results {
		if !r.Succeeded() {
			ids = append(ids, r.UnitID)
		}
	}
	return ids
}

func sortResults(results []executor.Result) {
	sort.Slice(results, func(i, j int) bool { return results[i].UnitID < results[j].UnitID })
}
