package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/gsd-build/gsd/internal/logging"
	"github.com/gsd-build/gsd/internal/tui/styles"
)

// Color modes accepted by ColorEnabled.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ColorEnabled resolves a color mode for w. In auto mode color is used only
// when w is a terminal.
func ColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Console writes one line per notification.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewConsole creates a Console writing to w, styled when color is set.
func NewConsole(w io.Writer, color bool) *Console {
	return &Console{w: w, color: color}
}

// Notify implements Sink.
func (c *Console) Notify(n Notification) {
	line := c.format(n)
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, line)
}

func (c *Console) format(n Notification) string {
	if !c.color {
		switch n.Severity {
		case SeverityWarning:
			return "warning: " + n.Message
		case SeverityError:
			return "error: " + n.Message
		default:
			return n.Message
		}
	}

	var badge, text lipgloss.Style
	var label string
	switch n.Severity {
	case SeverityWarning:
		badge, text, label = styles.WarningBadge, styles.Warning, "!"
	case SeverityError:
		badge, text, label = styles.ErrorBadge, styles.Error, "✗"
	default:
		badge, text, label = styles.InfoBadge, lipgloss.NewStyle(), "•"
	}
	return badge.Render(label) + " " + text.Render(n.Message)
}

// Log writes notifications to the structured run log.
type Log struct {
	logger *logging.Logger
}

// NewLog creates a Log sink.
func NewLog(logger *logging.Logger) *Log {
	return &Log{logger: logger}
}

// Notify implements Sink.
func (l *Log) Notify(n Notification) {
	switch n.Severity {
	case SeverityWarning:
		l.logger.Warn(n.Message, "source", "notify")
	case SeverityError:
		l.logger.Error(n.Message, "source", "notify")
	default:
		l.logger.Info(n.Message, "source", "notify")
	}
}

// Func adapts a function to Sink.
type Func func(Notification)

// Notify implements Sink.
func (f Func) Notify(n Notification) { f(n) }
