// Package completion decides whether a plan has already been executed.
//
// A plan is complete when its summary file exists. The check is a pure
// filesystem read made right before a wave launches, so a summary written by
// an earlier wave (or an earlier run) is always seen.
package completion

import (
	"os"

	"github.com/gsd-build/gsd/internal/plan"
)

// Tracker answers completion queries for plans.
type Tracker struct{}

// NewTracker creates a Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// IsComplete reports whether the plan's summary exists as a regular file.
// Unreadable locations count as incomplete; the plan will be executed.
func (t *Tracker) IsComplete(u plan.Unit) bool {
	info, err := os.Stat(u.MarkerPath)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Partition splits units into those still to run and those already complete,
// preserving order.
func (t *Tracker) Partition(units []plan.Unit) (pending, complete []plan.Unit) {
	for _, u := range units {
		if t.IsComplete(u) {
			complete = append(complete, u)
		} else {
			pending = append(pending, u)
		}
	}
	return pending, complete
}
