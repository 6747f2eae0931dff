package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gsd-build/gsd/internal/errors"
)

func makePhases(t *testing.T, names ...string) *Project {
	t.Helper()
	root := t.TempDir()
	p := New(root, ".planning")
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(p.PhasesDir(), name), 0755); err != nil {
			t.Fatal(err)
		}
	}
	return p
}

func TestNew(t *testing.T) {
	p := New("/repo", ".planning")
	if p.PlanningDir != filepath.Join("/repo", ".planning") {
		t.Errorf("PlanningDir = %q", p.PlanningDir)
	}
	if p.PhasesDir() != filepath.Join("/repo", ".planning", "phases") {
		t.Errorf("PhasesDir() = %q", p.PhasesDir())
	}

	abs := New("/repo", "/elsewhere/plans")
	if abs.PlanningDir != "/elsewhere/plans" {
		t.Errorf("absolute planning dir rewritten to %q", abs.PlanningDir)
	}
}

func TestResolvePhase(t *testing.T) {
	p := makePhases(t, "01-setup", "02-build", "10-release", "beta")
	// A regular file with a matching prefix must never resolve.
	if err := os.WriteFile(filepath.Join(p.PhasesDir(), "03-notes"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		phase string
		want  string
	}{
		{"1", "01-setup"},
		{"01", "01-setup"},
		{"2", "02-build"},
		{"10", "10-release"},
		{"beta", "beta"},
		{" 2 ", "02-build"},
	}

	for _, tt := range tests {
		t.Run(tt.phase, func(t *testing.T) {
			got, err := p.ResolvePhase(tt.phase)
			if err != nil {
				t.Fatalf("ResolvePhase(%q) error = %v", tt.phase, err)
			}
			if got.Name != tt.want {
				t.Errorf("Name = %q, want %q", got.Name, tt.want)
			}
			if got.Dir != filepath.Join(p.PhasesDir(), tt.want) {
				t.Errorf("Dir = %q", got.Dir)
			}
		})
	}

	t.Run("prefix must end at a dash", func(t *testing.T) {
		if _, err := p.ResolvePhase("0"); err == nil {
			t.Error("phase 0 should not match 01-setup")
		}
	})

	t.Run("missing phase", func(t *testing.T) {
		_, err := p.ResolvePhase("3")
		if !errors.Is(err, errors.ErrPhaseNotFound) {
			t.Fatalf("error = %v, want ErrPhaseNotFound", err)
		}
		var de *errors.DiscoveryError
		if !errors.As(err, &de) || de.Phase != "3" {
			t.Errorf("expected DiscoveryError for phase 3, got %v", err)
		}
	})

	t.Run("empty phase", func(t *testing.T) {
		if _, err := p.ResolvePhase(""); !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestResolvePhase_NoPhasesDir(t *testing.T) {
	p := New(t.TempDir(), ".planning")
	_, err := p.ResolvePhase("1")
	if !errors.Is(err, errors.ErrPhaseNotFound) {
		t.Fatalf("error = %v, want ErrPhaseNotFound", err)
	}
}

func TestContextRefs(t *testing.T) {
	p := New("/repo", ".planning")
	refs := p.ContextRefs([]string{"STATE.md", "PROJECT.md"})
	want := []string{".planning/STATE.md", ".planning/PROJECT.md"}
	if len(refs) != len(want) {
		t.Fatalf("ContextRefs() = %v, want %v", refs, want)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("refs[%d] = %q, want %q", i, refs[i], want[i])
		}
	}
}

func TestRel(t *testing.T) {
	p := New("/repo", ".planning")
	if got := p.Rel("/repo/.planning/phases/01-a/01-01-PLAN.md"); got != ".planning/phases/01-a/01-01-PLAN.md" {
		t.Errorf("Rel() = %q", got)
	}
	if got := p.Rel("/other/file.md"); got != "/other/file.md" {
		t.Errorf("Rel() outside root = %q, want absolute path", got)
	}
}
