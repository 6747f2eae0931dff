package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/gsd-build/gsd/internal/completion"
	"github.com/gsd-build/gsd/internal/config"
	"github.com/gsd-build/gsd/internal/event"
	"github.com/gsd-build/gsd/internal/executor"
	"github.com/gsd-build/gsd/internal/logging"
	"github.com/gsd-build/gsd/internal/notify"
	"github.com/gsd-build/gsd/internal/plan"
	"github.com/gsd-build/gsd/internal/project"
	"github.com/gsd-build/gsd/internal/prompt"
	"github.com/gsd-build/gsd/internal/scheduler"
)

// runtime holds everything a command needs to plan or run a phase.
type runtime struct {
	cfg       *config.Config
	project   *project.Project
	logger    *logging.Logger
	bus       *event.Bus
	tracker   *completion.Tracker
	scheduler *scheduler.Scheduler
	color     bool
}

// newRuntime loads the configuration and wires the scheduler for the
// project selected by --dir. Close must be called to flush the log.
func newRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	root, err := projectRoot(cmd)
	if err != nil {
		return nil, err
	}
	proj := project.New(root, cfg.Planning.Dir)

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewRotatingLogger(cfg.LogDir(root), cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			Compress:   cfg.Logging.Compress,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	rt := &runtime{
		cfg:     cfg,
		project: proj,
		logger:  logger,
		bus:     event.NewBus(logger),
		tracker: completion.NewTracker(),
		color:   colorOutput(cfg.UI.Color, cmd.OutOrStdout()),
	}

	store, err := plan.NewStore(cfg.Planning.PlanPattern)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("invalid plan pattern: %w", err)
	}

	assetsDir := ""
	if cfg.Planning.AssetsDir != "" {
		assetsDir = proj.Path(cfg.Planning.AssetsDir)
	}
	prompts, err := prompt.NewBuilder(prompt.NewAssets(assetsDir))
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to load prompt assets: %w", err)
	}

	rt.scheduler, err = scheduler.New(scheduler.Config{
		Project:      proj,
		Store:        store,
		Tracker:      rt.tracker,
		Runner:       executor.NewSubprocess(cfg.Executor, root, logger),
		Prompts:      prompts,
		Bus:          rt.bus,
		Logger:       logger,
		ContextFiles: cfg.Planning.ContextFiles,
		WatchMarkers: cfg.Completion.WatchMarkers,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// notifyOptions maps configuration onto notification switches.
func (rt *runtime) notifyOptions() notify.Options {
	return notify.Options{
		WarnMissingSummary: rt.cfg.Completion.WarnMissingSummary,
		ReportMarkers:      rt.cfg.Completion.WatchMarkers,
	}
}

// Close flushes and closes the run log.
func (rt *runtime) Close() {
	_ = rt.logger.Close()
}

func projectRoot(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid project directory %q: %w", dir, err)
	}
	return abs, nil
}

// colorOutput decides whether w gets styled output. "always" also forces
// lipgloss to emit colour when w is not a terminal.
func colorOutput(mode string, w io.Writer) bool {
	if mode == notify.ColorAlways {
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
	return notify.ColorEnabled(mode, w)
}
