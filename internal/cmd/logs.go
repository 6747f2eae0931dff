package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gsd-build/gsd/internal/config"
	"github.com/gsd-build/gsd/internal/logging"
	"github.com/gsd-build/gsd/internal/project"
	"github.com/gsd-build/gsd/internal/tui/styles"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View run logs",
	Long: `View and filter the structured run log.

By default, shows the entries of the most recent run. Rotated logs are read
too, so a run that spans a rotation is shown whole.

Examples:
  # Show the last run
  gsd logs

  # Show one plan of a given run
  gsd logs --run 6f1c... --unit 02-03-PLAN.md

  # Warnings and errors from every run of phase 2 in the last day
  gsd logs --all --phase 2 --level warn --since 24h`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsRunID  string
	logsAll    bool
	logsUnit   string
	logsPhase  string
	logsLevel  string
	logsSince  string
	logsGrep   string
	logsTail   int
	logsFields bool
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsRunID, "run", "", "run ID (default: most recent run)")
	logsCmd.Flags().BoolVar(&logsAll, "all", false, "show entries from every run")
	logsCmd.Flags().StringVar(&logsUnit, "unit", "", "only entries for this plan file")
	logsCmd.Flags().StringVar(&logsPhase, "phase", "", "only entries for this phase (number or directory name)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "only entries newer than this duration (e.g. 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "only entries whose message contains this text")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 0, "show only the last N entries (0 for all)")
	logsCmd.Flags().BoolVar(&logsFields, "fields", true, "show extra fields such as stderr")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	root, err := projectRoot(cmd)
	if err != nil {
		return err
	}

	filter := logging.LogFilter{
		Level:           logsLevel,
		UnitID:          logsUnit,
		MessageContains: logsGrep,
	}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since duration: %w", err)
		}
		filter.Since = time.Now().Add(-d)
	}
	if logsPhase != "" {
		phase, err := project.New(root, cfg.Planning.Dir).ResolvePhase(logsPhase)
		if err != nil {
			return fmt.Errorf("logs: %w", err)
		}
		filter.Phase = phase.Name
	}

	out := cmd.OutOrStdout()
	dir := cfg.LogDir(root)
	entries, err := logging.ReadLogs(dir)
	if err != nil {
		fmt.Fprintf(out, "No run log found in %s.\n", dir)
		return nil
	}

	switch {
	case logsRunID != "":
		filter.RunID = logsRunID
	case !logsAll:
		filter.RunID = logging.LastRunID(entries)
	}

	entries = logging.FilterLogs(entries, filter)
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching log entries found.")
		return nil
	}

	color := colorOutput(cfg.UI.Color, out)
	if filter.RunID != "" {
		fmt.Fprintf(out, "Run %s\n", filter.RunID)
	}
	for _, e := range entries {
		writeLogEntry(out, e, color)
	}
	return nil
}

// writeLogEntry prints one entry as
// "15:04:05.000 LEVEL [wave N unit] message key=value...".
func writeLogEntry(w io.Writer, e logging.LogEntry, color bool) {
	render := func(style lipgloss.Style, s string) string {
		if color {
			return style.Render(s)
		}
		return s
	}

	var sb strings.Builder
	sb.WriteString(render(styles.Muted, e.Time.Local().Format("15:04:05.000")))
	sb.WriteString(" ")
	sb.WriteString(render(levelStyle(e.Level), fmt.Sprintf("%-5s", strings.ToUpper(e.Level))))

	var scope []string
	if e.Wave > 0 {
		scope = append(scope, fmt.Sprintf("wave %d", e.Wave))
	}
	if e.UnitID != "" {
		scope = append(scope, e.UnitID)
	}
	if len(scope) > 0 {
		sb.WriteString(" ")
		sb.WriteString(render(styles.Running, "["+strings.Join(scope, " ")+"]"))
	}

	sb.WriteString(" ")
	sb.WriteString(e.Message)

	if logsFields && len(e.Attrs) > 0 {
		keys := make([]string, 0, len(e.Attrs))
		for k := range e.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", render(styles.Muted, k), e.Attrs[k])
		}
	}

	fmt.Fprintln(w, sb.String())
}

func levelStyle(level string) lipgloss.Style {
	switch strings.ToUpper(level) {
	case logging.LevelError:
		return styles.Error
	case logging.LevelWarn:
		return styles.Warning
	case logging.LevelDebug:
		return styles.Muted
	default:
		return styles.Primary
	}
}
