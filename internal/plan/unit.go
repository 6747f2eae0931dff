// Package plan discovers the plans (work units) of a phase.
//
// A plan is a markdown file named like "01-02-PLAN.md" inside a phase
// directory. Its wave is declared in the payload text ("wave: 2") and its
// completion is proven by a sibling summary file ("01-02-SUMMARY.md").
package plan

import (
	"path/filepath"
	"strings"
)

// DefaultWave is assigned to plans without a parsable wave declaration.
const DefaultWave = 1

const (
	planSuffix    = "-PLAN"
	summarySuffix = "-SUMMARY"
)

// Unit is one independently executable plan. Units are immutable once
// discovered; Wave is read from the payload exactly once.
type Unit struct {
	// ID is the plan's file name, unique within its phase.
	ID string
	// Wave orders execution; lower waves run first.
	Wave int
	// Path is the absolute path of the plan payload.
	Path string
	// MarkerPath is the summary file whose existence marks the plan complete.
	MarkerPath string
	// Meta holds optional frontmatter; zero when the plan has none.
	Meta Frontmatter
}

// MarkerName derives the summary file name for a plan file name by
// replacing the final "-PLAN" segment before the extension with
// "-SUMMARY". It reports false for names without that exact segment.
//
//	MarkerName("01-02-PLAN.md")   // "01-02-SUMMARY.md", true
//	MarkerName("01-02-PLANS.md")  // "", false
func MarkerName(id string) (string, bool) {
	ext := filepath.Ext(id)
	stem := strings.TrimSuffix(id, ext)
	if !strings.HasSuffix(stem, planSuffix) || stem == planSuffix {
		return "", false
	}
	return strings.TrimSuffix(stem, planSuffix) + summarySuffix + ext, true
}

// IsMarkerName reports whether name is a summary file name.
func IsMarkerName(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasSuffix(stem, summarySuffix) && stem != summarySuffix
}

// PlanName is the inverse of MarkerName.
func PlanName(marker string) (string, bool) {
	if !IsMarkerName(marker) {
		return "", false
	}
	ext := filepath.Ext(marker)
	stem := strings.TrimSuffix(marker, ext)
	return strings.TrimSuffix(stem, summarySuffix) + planSuffix + ext, true
}

// Dir returns the phase directory containing the plan.
func (u Unit) Dir() string {
	return filepath.Dir(u.Path)
}

// MarkerID returns the file name of the plan's summary.
func (u Unit) MarkerID() string {
	return filepath.Base(u.MarkerPath)
}
