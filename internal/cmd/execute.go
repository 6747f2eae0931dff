package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gsd-build/gsd/internal/errors"
	"github.com/gsd-build/gsd/internal/notify"
	"github.com/gsd-build/gsd/internal/scheduler"
	"github.com/gsd-build/gsd/internal/tui"
)

const phasePrompt = "Which phase number do you want to execute? "

var executeCmd = &cobra.Command{
	Use:   "execute-phase [phase]",
	Short: "Execute every plan in a phase, wave by wave",
	Long: `Execute every plan in a phase, wave by wave.

The phase is resolved under .planning/phases: "2" matches "02-build".
All plans of a wave run concurrently; the next wave starts only after every
plan of the current one has exited. A failing plan stops the phase after its
wave finishes. Plans with an existing SUMMARY are skipped, so re-running the
command resumes an interrupted phase.

Press Ctrl-C to stop before the next wave. Running plans are never killed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExecutePhase,
}

var (
	executeGaps   bool
	executeDryRun bool
	executeTUI    bool
)

func init() {
	rootCmd.AddCommand(executeCmd)
	executeCmd.Flags().BoolVar(&executeGaps, "gaps", false, "only run gap-closure plans")
	executeCmd.Flags().BoolVar(&executeDryRun, "dry-run", false, "show what would run without launching plans")
	executeCmd.Flags().BoolVar(&executeTUI, "tui", false, "show a live progress view")
}

func runExecutePhase(cmd *cobra.Command, args []string) error {
	phase, err := phaseArg(cmd, args)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := scheduler.Options{Phase: phase, GapMode: executeGaps, DryRun: executeDryRun}
	out := cmd.OutOrStdout()

	var result *scheduler.RunResult
	if wantTUI(rt, out) {
		detach := notify.New(rt.notifyOptions(), notify.NewLog(rt.logger)).Attach(rt.bus)
		result, err = tui.New(rt.bus, rt.notifyOptions()).Run(ctx, func(ctx context.Context) (*scheduler.RunResult, error) {
			return rt.scheduler.Run(ctx, opts)
		})
		detach()
		printSummary(out, result)
	} else {
		sinks := []notify.Sink{notify.NewConsole(out, rt.color), notify.NewLog(rt.logger)}
		detach := notify.New(rt.notifyOptions(), sinks...).Attach(rt.bus)
		result, err = rt.scheduler.Run(ctx, opts)
		detach()
	}

	if err != nil {
		return fmt.Errorf("execute-phase %s: %w", phase, err)
	}
	return nil
}

// phaseArg returns the phase argument, asking on stdin when it is missing.
func phaseArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	phase, err := promptPhase(cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return "", err
	}
	if phase == "" {
		return "", errors.NewValidationError("phase cannot be empty").WithField("phase")
	}
	return phase, nil
}

func promptPhase(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, phasePrompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read phase: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// wantTUI reports whether the progress view was requested and can be shown.
func wantTUI(rt *runtime, out io.Writer) bool {
	if !executeTUI && !rt.cfg.UI.TUI {
		return false
	}
	f, ok := out.(*os.File)
	if ok && term.IsTerminal(int(f.Fd())) {
		return true
	}
	rt.logger.Warn("progress view needs a terminal, falling back to line output")
	return false
}

// printSummary leaves a one-line record on the terminal once the progress
// view has been torn down.
func printSummary(w io.Writer, r *scheduler.RunResult) {
	if r == nil {
		return
	}
	switch r.Outcome {
	case scheduler.HaltedOnFailure:
		fmt.Fprintf(w, "Phase %s halted at wave %d: %s\n", r.Phase, r.FailedWave, strings.Join(r.FailedUnits, ", "))
	default:
		fmt.Fprintf(w, "Phase %s %s: %d executed, %d skipped in %s\n",
			r.Phase, r.Outcome, r.Executed(), r.Skipped(), r.Duration.Round(time.Second))
	}
}
