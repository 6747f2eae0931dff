package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/gsd-build/gsd/internal/completion"
	"github.com/gsd-build/gsd/internal/filelock"
	"github.com/gsd-build/gsd/internal/scheduler"
	"github.com/gsd-build/gsd/internal/tui/styles"
	"github.com/gsd-build/gsd/internal/wave"
)

var wavesCmd = &cobra.Command{
	Use:   "waves [phase]",
	Short: "Show how a phase's plans are grouped into waves",
	Long: `Show how a phase's plans are grouped into waves and which plans are
already complete. Nothing is executed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWaves,
}

var wavesGaps bool

func init() {
	rootCmd.AddCommand(wavesCmd)
	wavesCmd.Flags().BoolVar(&wavesGaps, "gaps", false, "only list gap-closure plans")
}

func runWaves(cmd *cobra.Command, args []string) error {
	phase, err := phaseArg(cmd, args)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	resolved, waves, err := rt.scheduler.Plan(scheduler.Options{Phase: phase, GapMode: wavesGaps})
	if err != nil {
		return fmt.Errorf("waves %s: %w", phase, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Phase %s (%s)\n", resolved.Name, rt.project.Rel(resolved.Dir))
	renderWaves(out, waves, rt.tracker, rt.color)
	return nil
}

// renderWaves writes one table row per plan, a totals line and any files
// declared by more than one plan of a wave.
func renderWaves(w io.Writer, waves []wave.Wave, tracker *completion.Tracker, color bool) {
	var rows [][]string
	var statuses []string
	units, complete := 0, 0
	for _, wv := range waves {
		for _, u := range wv.Units {
			status := styles.StatusPending
			if tracker.IsComplete(u) {
				status = styles.StatusComplete
				complete++
			}
			units++
			statuses = append(statuses, status)
			rows = append(rows, []string{
				strconv.Itoa(wv.Number),
				u.ID,
				status,
				strings.Join(u.Meta.DependsOn, ", "),
			})
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WAVE", "PLAN", "STATUS", "DEPENDS ON").
		Rows(rows...)
	if color {
		t = t.BorderStyle(styles.Muted).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return styles.TableHeader
				case col == 2 && row >= 0 && row < len(statuses):
					return styles.Status(statuses[row]).Padding(0, 1)
				default:
					return styles.TableCell
				}
			})
	} else {
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		})
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d plans in %d waves, %d complete.\n", units, len(waves), complete)

	for _, wv := range waves {
		for _, c := range filelock.Overlaps(wv.Units) {
			msg := fmt.Sprintf("wave %d: %s and %s both modify %s", wv.Number, c.Owner, c.UnitID, c.FilePath)
			if color {
				msg = styles.Warning.Render(msg)
			}
			fmt.Fprintln(w, msg)
		}
	}
}
