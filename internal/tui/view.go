package tui

import (
	"fmt"
	"strings"

	"github.com/gsd-build/gsd/internal/notify"
	"github.com/gsd-build/gsd/internal/tui/styles"
	"github.com/gsd-build/gsd/internal/util"
)

// View renders the wave list, recent notifications and a key hint.
func (m Model) View() string {
	var b strings.Builder

	title := "Executing phase " + m.phase
	if m.dryRun {
		title = "Dry run of phase " + m.phase
	}
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n")

	for _, w := range m.waves {
		header := fmt.Sprintf("Wave %d", w.number)
		b.WriteString(styles.WaveHeader.Render(header))
		b.WriteString(" ")
		b.WriteString(styles.Status(w.state).Render(w.state))
		b.WriteString("\n")

		for _, u := range w.units {
			line := "  " + m.icon(u.status) + " " + u.id
			if u.detail != "" {
				line += " " + styles.Muted.Render("("+util.FirstLine(u.detail)+")")
			}
			b.WriteString(util.Truncate(line, m.width))
			b.WriteString("\n")
		}
	}

	if len(m.notices) > 0 {
		b.WriteString("\n")
		for _, n := range m.notices {
			b.WriteString(util.Truncate(renderNotice(n), m.width))
			b.WriteString("\n")
		}
	}

	b.WriteString(styles.Footer.Render(m.hint()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) icon(status string) string {
	switch status {
	case styles.StatusRunning:
		return m.spinner.View()
	case styles.StatusDone:
		return styles.Success.Render("✓")
	case styles.StatusFailed:
		return styles.Error.Render("✗")
	case styles.StatusSkipped:
		return styles.Muted.Render("–")
	default:
		return styles.Muted.Render("·")
	}
}

func (m Model) hint() string {
	switch {
	case m.done:
		return "done"
	case m.stopping:
		return "stopping after the current wave (q again to leave the view)"
	default:
		return "q: stop after the current wave"
	}
}

// renderNotice shows the first line of a notification. Failure notices can
// carry several lines of stderr.
func renderNotice(n notify.Notification) string {
	msg := util.FirstLine(n.Message)
	switch n.Severity {
	case notify.SeverityWarning:
		return styles.Warning.Render(msg)
	case notify.SeverityError:
		return styles.Error.Render(msg)
	default:
		return styles.Muted.Render(msg)
	}
}
