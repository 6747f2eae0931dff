package filelock

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gsd-build/gsd/internal/errors"
	"github.com/gsd-build/gsd/internal/plan"
)

// Sentinel errors returned by registry operations.
var (
	// ErrAlreadyClaimed is returned when a file is claimed by another plan.
	ErrAlreadyClaimed = errors.New("file already claimed by another plan")

	// ErrNotOwner is returned when a plan releases a file it does not own.
	ErrNotOwner = errors.New("plan does not own this file")

	// ErrNotClaimed is returned when releasing an unclaimed file.
	ErrNotClaimed = errors.New("file is not claimed")
)

// FileClaim records that a plan declared a file.
type FileClaim struct {
	UnitID    string
	FilePath  string
	ClaimedAt time.Time
}

// Conflict is a file declared by two plans of the same wave.
type Conflict struct {
	FilePath string
	// Owner claimed the file first.
	Owner string
	// UnitID is the plan whose claim was refused.
	UnitID string
}

// Registry maps declared files to the plan that claimed them.
type Registry struct {
	mu     sync.RWMutex
	claims map[string]FileClaim // normalized path -> claim
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{claims: make(map[string]FileClaim)}
}

// normalize makes "./src/a.go" and "src//a.go" the same key.
func normalize(filePath string) string {
	return filepath.ToSlash(filepath.Clean(filePath))
}

// Claim registers unitID as the owner of filePath. Claiming a file the plan
// already owns is a no-op.
func (r *Registry) Claim(unitID, filePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimLocked(unitID, normalize(filePath))
}

func (r *Registry) claimLocked(unitID, key string) error {
	if existing, ok := r.claims[key]; ok {
		if existing.UnitID == unitID {
			return nil
		}
		return fmt.Errorf("%w: %s owns %s", ErrAlreadyClaimed, existing.UnitID, key)
	}
	r.claims[key] = FileClaim{UnitID: unitID, FilePath: key, ClaimedAt: time.Now()}
	return nil
}

// ClaimUnit claims every file in u's files_modified list and returns the
// files another plan already holds. Unlike Claim, a refused file does not
// stop the remaining claims.
func (r *Registry) ClaimUnit(u plan.Unit) []Conflict {
	r.mu.Lock()
	defer r.mu.Unlock()

	var conflicts []Conflict
	for _, fp := range u.Meta.FilesModified {
		if fp == "" {
			continue
		}
		key := normalize(fp)
		if err := r.claimLocked(u.ID, key); err != nil {
			conflicts = append(conflicts, Conflict{FilePath: key, Owner: r.claims[key].UnitID, UnitID: u.ID})
		}
	}
	return conflicts
}

// Release gives up unitID's claim on filePath.
func (r *Registry) Release(unitID, filePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalize(filePath)
	existing, ok := r.claims[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotClaimed, key)
	}
	if existing.UnitID != unitID {
		return fmt.Errorf("%w: %s is owned by %s", ErrNotOwner, key, existing.UnitID)
	}
	delete(r.claims, key)
	return nil
}

// ReleaseAll drops every claim held by unitID and returns how many there were.
func (r *Registry) ReleaseAll(unitID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key, claim := range r.claims {
		if claim.UnitID == unitID {
			delete(r.claims, key)
			n++
		}
	}
	return n
}

// Owner returns the plan that claimed filePath.
func (r *Registry) Owner(filePath string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	claim, ok := r.claims[normalize(filePath)]
	return claim.UnitID, ok
}

// Files returns the files claimed by unitID, sorted.
func (r *Registry) Files(unitID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var files []string
	for key, claim := range r.claims {
		if claim.UnitID == unitID {
			files = append(files, key)
		}
	}
	sort.Strings(files)
	return files
}

// Overlaps reports the files declared by more than one of units, claiming in
// the order given. It does not need a long-lived Registry and suits a plan
// preview.
func Overlaps(units []plan.Unit) []Conflict {
	reg := NewRegistry()
	var conflicts []Conflict
	for _, u := range units {
		conflicts = append(conflicts, reg.ClaimUnit(u)...)
	}
	return conflicts
}
