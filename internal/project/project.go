// Package project locates a project's planning documents on disk.
//
// A project keeps its planning state under a planning directory
// (".planning" by default) at the project root; phases live in
// {planning}/phases/{phase}-{slug}/. All paths are computed from the root
// passed to New, never from the process working directory.
package project

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gsd-build/gsd/internal/errors"
)

// PhasesDirName is the directory under the planning dir holding one
// directory per phase.
const PhasesDirName = "phases"

// Project is a project root plus its planning directory.
type Project struct {
	Root        string
	PlanningDir string
}

// New creates a Project. planningDir may be relative to root or absolute.
func New(root, planningDir string) *Project {
	if !filepath.IsAbs(planningDir) {
		planningDir = filepath.Join(root, planningDir)
	}
	return &Project{Root: root, PlanningDir: planningDir}
}

// Path returns a path inside the planning directory.
func (p *Project) Path(name ...string) string {
	return filepath.Join(append([]string{p.PlanningDir}, name...)...)
}

// PhasesDir returns {planning}/phases.
func (p *Project) PhasesDir() string {
	return p.Path(PhasesDirName)
}

// Phase is a resolved phase directory.
type Phase struct {
	// ID is the identifier the phase was requested by (e.g. "2").
	ID string
	// Name is the directory name (e.g. "02-build").
	Name string
	// Dir is the absolute phase directory.
	Dir string
}

// ResolvePhase finds the directory for phase inside PhasesDir. A directory
// matches when its name equals phase or starts with phase + "-". Numeric
// phases also match their zero-padded form, so "2" resolves "02-build".
// When several directories match, the lexically first one wins.
func (p *Project) ResolvePhase(phase string) (*Phase, error) {
	phase = strings.TrimSpace(phase)
	if phase == "" {
		return nil, errors.NewValidationError("phase cannot be empty").WithField("phase")
	}

	phasesDir := p.PhasesDir()
	entries, err := os.ReadDir(phasesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewDiscoveryError(phasesDir,
				errors.NewNotFoundError("phases directory", phasesDir).WithCause(errors.ErrPhaseNotFound)).
				WithPhase(phase)
		}
		return nil, errors.Wrapf(err, "failed to read %s", phasesDir)
	}

	candidates := phaseKeys(phase)
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		for _, key := range candidates {
			if e.Name() == key || strings.HasPrefix(e.Name(), key+"-") {
				names = append(names, e.Name())
				break
			}
		}
	}

	if len(names) == 0 {
		return nil, errors.NewDiscoveryError(phasesDir,
			errors.NewNotFoundError("phase", phase).WithCause(errors.ErrPhaseNotFound)).
			WithPhase(phase)
	}

	sort.Strings(names)
	return &Phase{
		ID:   phase,
		Name: names[0],
		Dir:  filepath.Join(phasesDir, names[0]),
	}, nil
}

// phaseKeys returns the directory-name prefixes that identify phase.
func phaseKeys(phase string) []string {
	keys := []string{phase}
	n, err := strconv.Atoi(phase)
	if err != nil || n < 0 {
		return keys
	}
	for _, k := range []string{strconv.Itoa(n), padded(n)} {
		if k != phase {
			keys = append(keys, k)
		}
	}
	return keys
}

func padded(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// ContextRefs returns the given planning documents as paths relative to the
// project root, in order. Subprocesses run with the project root as working
// directory and receive these as @-references.
func (p *Project) ContextRefs(names []string) []string {
	refs := make([]string, 0, len(names))
	for _, name := range names {
		refs = append(refs, p.Rel(p.Path(name)))
	}
	return refs
}

// Rel returns path relative to the project root, falling back to path
// itself when it lies outside the root.
func (p *Project) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
