package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/gsd-build/gsd/internal/config"
	"github.com/gsd-build/gsd/internal/errors"
	"github.com/gsd-build/gsd/internal/logging"
	"github.com/gsd-build/gsd/internal/testutil"
)

// agentScript creates the summary next to the plan passed as @payload and
// fails for plans containing "FAIL".
const agentScript = `plan="${3#@}"
if grep -q FAIL "$plan"; then
  echo "cannot finish $plan" >&2
  exit 1
fi
echo "# Summary" > "${plan%-PLAN.md}-SUMMARY.md"
`

// executeCommand runs the root command with args and returns captured output
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(resetCommandState)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetCommandState() {
	executeGaps, executeDryRun, executeTUI = false, false, false
	wavesGaps = false
	configInitForce = false
	logsRunID, logsAll, logsUnit, logsPhase = "", false, "", ""
	logsLevel, logsSince, logsGrep, logsTail, logsFields = "", "", "", 0, true
	_ = rootCmd.PersistentFlags().Set("dir", "")
	_ = rootCmd.PersistentFlags().Set("config", "")
	viper.Reset()
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

// isolateConfig keeps the user's real config and environment out of a test.
func isolateConfig(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("GSD_EXECUTOR_COMMAND", "")
	return xdg
}

func setupPhase(t *testing.T) (root, phaseDir string) {
	t.Helper()
	root = testutil.SetupProject(t)
	phaseDir = testutil.WritePhase(t, root, "01-setup", map[string]string{
		"01-01-PLAN.md": "---\nphase: 01-setup\nplan: 01\nwave: 1\n---\n# Scaffold\n",
		"01-02-PLAN.md": "---\nphase: 01-setup\nplan: 02\nwave: 2\ndepends_on: [01-01]\n---\n# Build\n",
	})
	return root, phaseDir
}

func useAgent(t *testing.T) {
	t.Helper()
	testutil.SkipIfNoShell(t)
	script := testutil.WriteScript(t, t.TempDir(), "agent", agentScript)
	t.Setenv("GSD_EXECUTOR_COMMAND", script)
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "gsd" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "gsd")
	}

	expectedCmds := []string{"execute-phase", "waves", "config", "logs"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestExecutePhase_RunsAllWaves(t *testing.T) {
	isolateConfig(t)
	useAgent(t)
	root, phaseDir := setupPhase(t)

	output, err := executeCommand(t, "", "execute-phase", "1", "-C", root)
	if err != nil {
		t.Fatalf("execute-phase failed: %v\n%s", err, output)
	}

	for _, want := range []string{
		"Found 2 plans in 2 waves.",
		"Executing Wave 1...",
		"Starting 01-01-PLAN.md...",
		"Plan 01-02-PLAN.md complete.",
		"Phase 1 execution complete!",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Index(output, "Wave 1 complete.") > strings.Index(output, "Executing Wave 2...") {
		t.Errorf("wave 2 started before wave 1 completed:\n%s", output)
	}

	for _, summary := range []string{"01-01-SUMMARY.md", "01-02-SUMMARY.md"} {
		if !testutil.Exists(t, filepath.Join(phaseDir, summary)) {
			t.Errorf("expected %s to be written", summary)
		}
	}
	if !testutil.Exists(t, filepath.Join(root, testutil.PlanningDir, "logs", logging.FileName)) {
		t.Error("expected a run log under .planning/logs")
	}
}

func TestExecutePhase_SkipsCompletedPlans(t *testing.T) {
	isolateConfig(t)
	useAgent(t)
	root, phaseDir := setupPhase(t)
	testutil.WriteFile(t, filepath.Join(phaseDir, "01-01-SUMMARY.md"), "# Done\n")

	output, err := executeCommand(t, "", "execute-phase", "01-setup", "-C", root)
	if err != nil {
		t.Fatalf("execute-phase failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Plan 01-01-PLAN.md already complete (SUMMARY exists). Skipping.") {
		t.Errorf("expected skip notice:\n%s", output)
	}
	if strings.Contains(output, "Starting 01-01-PLAN.md") {
		t.Errorf("completed plan was started again:\n%s", output)
	}
}

func TestExecutePhase_FailureHalts(t *testing.T) {
	isolateConfig(t)
	useAgent(t)
	root := testutil.SetupProject(t)
	phaseDir := testutil.WritePhase(t, root, "02-build", map[string]string{
		"02-01-PLAN.md": "wave: 1\nFAIL\n",
		"02-02-PLAN.md": "wave: 1\n",
		"02-03-PLAN.md": "wave: 2\n",
	})

	output, err := executeCommand(t, "", "execute-phase", "2", "-C", root)
	if err == nil {
		t.Fatalf("expected an error, output:\n%s", output)
	}
	if !errors.Is(err, errors.ErrWaveFailed) {
		t.Errorf("expected ErrWaveFailed, got %v", err)
	}
	if !strings.Contains(output, "Plan 02-01-PLAN.md failed") {
		t.Errorf("output missing failure notice:\n%s", output)
	}
	if !testutil.Exists(t, filepath.Join(phaseDir, "02-02-SUMMARY.md")) {
		t.Error("sibling plan in the failed wave should still finish")
	}
	if testutil.Exists(t, filepath.Join(phaseDir, "02-03-SUMMARY.md")) {
		t.Error("wave 2 must not run after wave 1 failed")
	}
}

func TestExecutePhase_DryRun(t *testing.T) {
	isolateConfig(t)
	root, phaseDir := setupPhase(t)

	output, err := executeCommand(t, "", "execute-phase", "1", "--dry-run", "-C", root)
	if err != nil {
		t.Fatalf("dry run failed: %v\n%s", err, output)
	}
	for _, want := range []string{"Dry run: no plans will be launched.", "Would start 01-01-PLAN.md."} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if testutil.Exists(t, filepath.Join(phaseDir, "01-01-SUMMARY.md")) {
		t.Error("dry run must not launch plans")
	}
}

func TestExecutePhase_PromptsForPhase(t *testing.T) {
	isolateConfig(t)
	root, _ := setupPhase(t)

	output, err := executeCommand(t, "1\n", "execute-phase", "--dry-run", "-C", root)
	if err != nil {
		t.Fatalf("execute-phase failed: %v\n%s", err, output)
	}
	if !strings.HasPrefix(output, phasePrompt) {
		t.Errorf("expected prompt, got:\n%s", output)
	}
	if !strings.Contains(output, "Found 2 plans in 2 waves.") {
		t.Errorf("prompted phase was not used:\n%s", output)
	}
}

func TestExecutePhase_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  error
	}{
		{"empty prompt answer", "\n", []string{"execute-phase"}, errors.ErrInvalidInput},
		{"unknown phase", "", []string{"execute-phase", "9"}, errors.ErrPhaseNotFound},
		{"gap mode without gap plans", "", []string{"execute-phase", "1", "--gaps"}, errors.ErrEmptyPhase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)
			root, _ := setupPhase(t)

			output, err := executeCommand(t, tt.stdin, append(tt.args, "-C", root)...)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v\n%s", err, tt.want, output)
			}
		})
	}
}

func TestWaves(t *testing.T) {
	isolateConfig(t)
	root, phaseDir := setupPhase(t)
	testutil.WriteFile(t, filepath.Join(phaseDir, "01-01-SUMMARY.md"), "# Done\n")

	output, err := executeCommand(t, "", "waves", "1", "-C", root)
	if err != nil {
		t.Fatalf("waves failed: %v\n%s", err, output)
	}
	for _, want := range []string{
		"Phase 01-setup",
		"WAVE",
		"01-01-PLAN.md",
		"complete",
		"pending",
		"01-01",
		"2 plans in 2 waves, 1 complete.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Index(output, "01-01-PLAN.md") > strings.Index(output, "01-02-PLAN.md") {
		t.Errorf("waves out of order:\n%s", output)
	}
}

func TestWaves_ReportsOverlappingFiles(t *testing.T) {
	isolateConfig(t)
	root := testutil.SetupProject(t)
	testutil.WritePhase(t, root, "05-api", map[string]string{
		"05-01-PLAN.md": "---\nwave: 1\nfiles_modified: [api/routes.go]\n---\n",
		"05-02-PLAN.md": "---\nwave: 1\nfiles_modified: [api/routes.go, api/auth.go]\n---\n",
	})

	output, err := executeCommand(t, "", "waves", "5", "-C", root)
	if err != nil {
		t.Fatalf("waves failed: %v\n%s", err, output)
	}
	want := "wave 1: 05-01-PLAN.md and 05-02-PLAN.md both modify api/routes.go"
	if !strings.Contains(output, want) {
		t.Errorf("output missing %q:\n%s", want, output)
	}
}

func TestConfigShow(t *testing.T) {
	isolateConfig(t)
	t.Setenv("GSD_EXECUTOR_COMMAND", "claude")

	output, err := executeCommand(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"# config file: (none - using defaults)", "command: claude", "watch_markers: true", "color: auto"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestConfigShow_FromFile(t *testing.T) {
	isolateConfig(t)
	cfgFile := filepath.Join(t.TempDir(), "gsd.yaml")
	testutil.WriteFile(t, cfgFile, "executor:\n  command: codex\n  unit_timeout_minutes: 30\n")

	output, err := executeCommand(t, "", "config", "show", "--config", cfgFile)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"# config file: " + cfgFile, "command: codex", "unit_timeout_minutes: 30"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestConfigShow_InvalidConfig(t *testing.T) {
	isolateConfig(t)
	t.Setenv("GSD_UI_COLOR", "sometimes")

	_, err := executeCommand(t, "", "config", "show")
	var verrs config.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
}

func TestConfigInit(t *testing.T) {
	xdg := isolateConfig(t)
	path := filepath.Join(xdg, "gsd", "config.yaml")

	output, err := executeCommand(t, "", "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(output, path) {
		t.Errorf("output should name %s:\n%s", path, output)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if !strings.Contains(string(data), "no_session_flag:") || !strings.Contains(string(data), "--no-session") {
		t.Errorf("config file missing executor defaults:\n%s", data)
	}

	if _, err := executeCommand(t, "", "config", "init"); err == nil {
		t.Error("expected an error when the config file exists")
	}
	if _, err := executeCommand(t, "", "config", "init", "--force"); err != nil {
		t.Errorf("--force should overwrite: %v", err)
	}
}

func TestConfigPath(t *testing.T) {
	xdg := isolateConfig(t)

	output, err := executeCommand(t, "", "config", "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	want := fmt.Sprintf("%s (not created)", filepath.Join(xdg, "gsd", "config.yaml"))
	if !strings.Contains(output, want) {
		t.Errorf("output = %q, want %q", output, want)
	}
}

func TestConfigShow_ProjectFileUnderDir(t *testing.T) {
	isolateConfig(t)
	root := testutil.SetupProject(t)
	local := filepath.Join(root, config.LocalConfigFile)
	testutil.WriteFile(t, local, "executor:\n  command: from-project\n")

	output, err := executeCommand(t, "", "config", "show", "-C", root)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"# config file: " + local, "command: from-project"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestLogs(t *testing.T) {
	isolateConfig(t)
	useAgent(t)
	root, _ := setupPhase(t)
	testutil.WritePhase(t, root, "02-build", map[string]string{
		"02-01-PLAN.md": "wave: 1\nFAIL\n",
		"02-02-PLAN.md": "wave: 1\n",
	})

	if output, err := executeCommand(t, "", "execute-phase", "1", "-C", root); err != nil {
		t.Fatalf("execute-phase 1 failed: %v\n%s", err, output)
	}
	resetCommandState()
	if _, err := executeCommand(t, "", "execute-phase", "2", "-C", root); err == nil {
		t.Fatal("execute-phase 2 should fail")
	}

	resetCommandState()
	output, err := executeCommand(t, "", "logs", "-C", root)
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	for _, want := range []string{"Run ", "phase started", "[wave 1 02-01-PLAN.md] plan stderr", "cannot finish", "phase halted"} {
		if !strings.Contains(output, want) {
			t.Errorf("logs output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "01-01-PLAN.md") {
		t.Errorf("default logs should only show the last run:\n%s", output)
	}

	resetCommandState()
	output, err = executeCommand(t, "", "logs", "-C", root, "--unit", "02-02-PLAN.md")
	if err != nil {
		t.Fatalf("logs --unit failed: %v", err)
	}
	if !strings.Contains(output, "02-02-PLAN.md") || strings.Contains(output, "02-01-PLAN.md") {
		t.Errorf("logs --unit output:\n%s", output)
	}

	resetCommandState()
	output, err = executeCommand(t, "", "logs", "-C", root, "--all", "--phase", "1", "--level", "info")
	if err != nil {
		t.Fatalf("logs --all failed: %v", err)
	}
	if !strings.Contains(output, "01-02-PLAN.md") || strings.Contains(output, "02-01-PLAN.md") {
		t.Errorf("logs --all --phase 1 output:\n%s", output)
	}
}

func TestLogs_NoLog(t *testing.T) {
	isolateConfig(t)
	root := testutil.SetupProject(t)

	output, err := executeCommand(t, "", "logs", "-C", root)
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if !strings.Contains(output, "No run log found") {
		t.Errorf("output = %q", output)
	}
}

func TestExitCode(t *testing.T) {
	waveErr := errors.NewWaveError(1, []*errors.UnitFailure{errors.NewUnitFailure("a-PLAN.md", 1, "boom", nil)})

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"success", nil, ExitOK},
		{"wave failure", fmt.Errorf("execute-phase 1: %w", waveErr), ExitFailure},
		{"discovery failure", errors.NewDiscoveryError("/p", errors.ErrEmptyPhase), ExitFailure},
		{"launch failure", errors.NewLaunchError("a-PLAN.md", "pi", errors.New("not found")), ExitFailure},
		{"canceled", fmt.Errorf("phase 1 stopped: %w", errors.Join(errors.ErrCanceled, context.Canceled)), ExitCanceled},
		{"invalid input", errors.NewValidationError("phase cannot be empty"), ExitUsage},
		{"unknown flag", errors.New("unknown flag: --nope"), ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.code {
				t.Errorf("ExitCode() = %d, want %d", got, tt.code)
			}
		})
	}
}

func TestPrintError(t *testing.T) {
	waveErr := errors.NewWaveError(1, []*errors.UnitFailure{errors.NewUnitFailure("a-PLAN.md", 1, "boom", nil)})

	var buf bytes.Buffer
	printError(&buf, fmt.Errorf("execute-phase 1: %w", waveErr))
	if got := buf.String(); got != "Error: execute-phase 1: wave 1 failed: 1 plan(s) failed: a-PLAN.md\n" {
		t.Errorf("run error printed as %q, want its first line", got)
	}

	buf.Reset()
	printError(&buf, errors.New("read config: line 1\nline 2"))
	if got := buf.String(); got != "Error: read config: line 1\nline 2\n" {
		t.Errorf("other errors should be printed whole, got %q", got)
	}
}
