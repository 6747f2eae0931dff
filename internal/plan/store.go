package plan

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"github.com/gsd-build/gsd/internal/errors"
)

// DefaultPattern selects plan files within a phase directory.
const DefaultPattern = "*-PLAN.md"

// Store discovers plans in phase directories.
type Store struct {
	pattern string
	matcher glob.Glob
}

// NewStore creates a Store selecting file names that match pattern, a
// shell-style glob. An empty pattern selects DefaultPattern.
func NewStore(pattern string) (*Store, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.NewValidationError("invalid plan pattern").
			WithField("planning.plan_pattern").
			WithValue(pattern)
	}
	return &Store{pattern: pattern, matcher: g}, nil
}

// Pattern returns the glob the store selects plans with.
func (s *Store) Pattern() string {
	return s.pattern
}

// Matches reports whether name is selected as a plan file.
func (s *Store) Matches(name string) bool {
	if !s.matcher.Match(name) {
		return false
	}
	_, ok := MarkerName(name)
	return ok
}

// Discover returns every plan in dir ordered by ID. Only regular files
// directly inside dir are considered; subdirectories are not descended.
//
// Errors are *errors.DiscoveryError wrapping errors.ErrPhaseNotFound when dir
// does not exist and errors.ErrEmptyPhase when it holds no plans.
func (s *Store) Discover(dir string) ([]Unit, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewDiscoveryError(dir,
				errors.NewNotFoundError("phase directory", dir).WithCause(errors.ErrPhaseNotFound))
		}
		return nil, errors.NewDiscoveryError(dir, err)
	}

	var units []Unit
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !s.Matches(entry.Name()) {
			continue
		}
		u, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.NewDiscoveryError(dir, err)
		}
		units = append(units, u)
	}

	if len(units) == 0 {
		return nil, errors.NewDiscoveryError(dir, errors.ErrEmptyPhase)
	}

	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	return units, nil
}

// Load reads a single plan file and returns its Unit. path must name a plan
// file (see MarkerName).
func Load(path string) (Unit, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Unit{}, err
	}
	id := filepath.Base(abs)
	marker, ok := MarkerName(id)
	if !ok {
		return Unit{}, errors.NewValidationError("not a plan file name").
			WithField("plan").
			WithValue(id)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return Unit{}, errors.Wrapf(err, "read plan %s", id)
	}

	meta, _ := ParseFrontmatter(content)
	return Unit{
		ID:         id,
		Wave:       ParseWave(string(content)),
		Path:       abs,
		MarkerPath: filepath.Join(filepath.Dir(abs), marker),
		Meta:       meta,
	}, nil
}

// FilterGapClosure returns the units whose frontmatter sets gap_closure.
// Order is preserved.
func FilterGapClosure(units []Unit) []Unit {
	var out []Unit
	for _, u := range units {
		if u.Meta.GapClosure {
			out = append(out, u)
		}
	}
	return out
}
