// Package util provides text helpers for clipping agent output before it is
// shown on a terminal.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "..."

// FirstLine returns s up to its first newline.
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// TailLines returns the last n non-blank lines of s, trimmed and joined by
// newlines. Earlier lines are replaced by a single "..." line.
func TailLines(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if line = strings.TrimRight(line, " \t"); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if n <= 0 || len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return ellipsis + "\n" + strings.Join(lines[len(lines)-n:], "\n")
}

// Truncate shortens s to maxWidth terminal columns, ending in "..." when
// anything was cut. Escape sequences and wide characters are measured the
// way the terminal draws them. A maxWidth of zero or less disables
// truncation.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 || lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}
	return ansi.Truncate(s, maxWidth, ellipsis)
}
