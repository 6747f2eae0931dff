// Package notify turns progress events into severity-tagged notifications
// for the operator and the run log.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/gsd-build/gsd/internal/errors"
	"github.com/gsd-build/gsd/internal/event"
	"github.com/gsd-build/gsd/internal/plan"
	"github.com/gsd-build/gsd/internal/util"
)

// stderrTailLines bounds how much of a failed plan's stderr is repeated in
// its failure notice. The full output is in the run log.
const stderrTailLines = 5

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is one operator-facing message.
type Notification struct {
	Severity Severity
	Message  string
	Time     time.Time
}

// Sink receives notifications. Implementations must be safe for concurrent
// use; plans of one wave finish concurrently.
type Sink interface {
	Notify(Notification)
}

// Options tunes which notifications are produced.
type Options struct {
	// WarnMissingSummary warns when a plan exits zero without writing its
	// summary.
	WarnMissingSummary bool
	// ReportMarkers announces summaries as the watcher sees them.
	ReportMarkers bool
}

// Notifier fans notifications out to sinks.
type Notifier struct {
	opts  Options
	sinks []Sink
}

// New creates a Notifier writing to sinks.
func New(opts Options, sinks ...Sink) *Notifier {
	return &Notifier{opts: opts, sinks: sinks}
}

// Attach subscribes the notifier to every event on bus and returns a
// function that detaches it.
func (n *Notifier) Attach(bus *event.Bus) func() {
	id := bus.SubscribeAll(n.Handle)
	return func() { bus.Unsubscribe(id) }
}

// Handle translates e and delivers the resulting notifications.
func (n *Notifier) Handle(e event.Event) {
	for _, msg := range Translate(e, n.opts) {
		msg.Time = e.Timestamp()
		for _, sink := range n.sinks {
			sink.Notify(msg)
		}
	}
}

// Notify delivers a notification not derived from an event.
func (n *Notifier) Notify(severity Severity, format string, args ...any) {
	msg := Notification{Severity: severity, Message: fmt.Sprintf(format, args...), Time: time.Now()}
	for _, sink := range n.sinks {
		sink.Notify(msg)
	}
}

func info(format string, args ...any) Notification {
	return Notification{Severity: SeverityInfo, Message: fmt.Sprintf(format, args...)}
}

func warning(format string, args ...any) Notification {
	return Notification{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

func failure(format string, args ...any) Notification {
	return Notification{Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}

// withSeverity builds a failure notification whose severity follows err's
// classification. A nil err is still a failure.
func withSeverity(err error, format string, args ...any) Notification {
	if err == nil {
		return failure(format, args...)
	}
	return Notification{Severity: SeverityOf(err), Message: fmt.Sprintf(format, args...)}
}

// SeverityOf maps an error's severity onto a notification severity.
func SeverityOf(err error) Severity {
	switch errors.GetSeverity(err) {
	case errors.SeverityDebug, errors.SeverityInfo:
		return SeverityInfo
	case errors.SeverityWarning:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Translate maps an event to zero or more notifications.
func Translate(e event.Event, opts Options) []Notification {
	switch e := e.(type) {
	case event.PhaseStartedEvent:
		out := []Notification{info("Found %d plans in %d waves.", e.Plans, len(e.Waves))}
		if e.DryRun {
			out = append(out, info("Dry run: no plans will be launched."))
		}
		return out

	case event.WaveStartedEvent:
		return []Notification{info("Executing Wave %d...", e.Wave)}

	case event.UnitSkippedEvent:
		return []Notification{info("Plan %s already complete (SUMMARY exists). Skipping.", e.UnitID)}

	case event.UnitStartedEvent:
		if e.DryRun {
			return []Notification{info("Would start %s.", e.UnitID)}
		}
		return []Notification{info("Starting %s...", e.UnitID)}

	case event.UnitCompletedEvent:
		out := []Notification{info("Plan %s complete.", e.UnitID)}
		if !e.MarkerWritten && opts.WarnMissingSummary {
			marker, _ := plan.MarkerName(e.UnitID)
			out = append(out, warning("Plan %s finished without writing %s; a re-run will execute it again.", e.UnitID, marker))
		}
		return out

	case event.UnitFailedEvent:
		return []Notification{failure("Plan %s failed: %s", e.UnitID, unitFailureDetail(e))}

	case event.FileConflictEvent:
		return []Notification{warning("Plans %s and %s in wave %d both modify %s.", e.Owner, e.UnitID, e.Wave, e.FilePath)}

	case event.WaveCompletedEvent:
		return []Notification{info("Wave %d complete.", e.Wave)}

	case event.WaveFailedEvent:
		return []Notification{withSeverity(e.Err, "Wave %d failed: %s", e.Wave, waveFailureDetail(e))}

	case event.PhaseCompletedEvent:
		return []Notification{
			info("All waves executed. Verifying phase..."),
			info("Phase %s execution complete! Run /gsd:verify-work to verify.", e.Phase),
		}

	case event.PhaseHaltedEvent:
		if errors.Is(e.Err, errors.ErrCanceled) {
			return []Notification{warning("Phase %s canceled before wave %d.", e.Phase, e.Wave)}
		}
		return []Notification{withSeverity(e.Err, "Phase %s halted at wave %d. Re-run to resume; completed plans are skipped.", e.Phase, e.Wave)}

	case event.PhaseDiscoveryFailedEvent:
		return []Notification{withSeverity(e.Err, "%s", discoveryDetail(e))}

	case event.MarkerWrittenEvent:
		if opts.ReportMarkers {
			return []Notification{info("Summary written for %s.", e.UnitID)}
		}
	}
	return nil
}

func unitFailureDetail(e event.UnitFailedEvent) string {
	detail := fmt.Sprintf("exit status %d", e.ExitCode)
	if e.Err != nil {
		detail = e.Err.Error()
	}
	if stderr := util.TailLines(e.Stderr, stderrTailLines); stderr != "" {
		detail += ": " + stderr
	}
	return detail
}

func waveFailureDetail(e event.WaveFailedEvent) string {
	if errors.Is(e.Err, errors.ErrLaunchFailed) {
		return "could not launch the agent: " + util.FirstLine(e.Err.Error())
	}
	return strings.Join(e.UnitIDs, ", ")
}

func discoveryDetail(e event.PhaseDiscoveryFailedEvent) string {
	switch {
	case errors.Is(e.Err, errors.ErrPhaseNotFound):
		return fmt.Sprintf("Phase %s not found.", e.Phase)
	case errors.Is(e.Err, errors.ErrEmptyPhase):
		return fmt.Sprintf("No plans found in phase %s.", e.Phase)
	default:
		return fmt.Sprintf("Phase %q could not be planned: %s", e.Phase, util.FirstLine(e.Err.Error()))
	}
}
