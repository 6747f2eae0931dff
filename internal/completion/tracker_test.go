package completion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gsd-build/gsd/internal/plan"
)

func unitIn(dir, id string) plan.Unit {
	marker, _ := plan.MarkerName(id)
	return plan.Unit{
		ID:         id,
		Wave:       1,
		Path:       filepath.Join(dir, id),
		MarkerPath: filepath.Join(dir, marker),
	}
}

func TestTracker_IsComplete(t *testing.T) {
	dir := t.TempDir()
	tracker := NewTracker()

	done := unitIn(dir, "01-01-PLAN.md")
	if err := os.WriteFile(done.MarkerPath, []byte("# Summary"), 0o644); err != nil {
		t.Fatal(err)
	}
	empty := unitIn(dir, "01-02-PLAN.md")
	if err := os.WriteFile(empty.MarkerPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	dirMarker := unitIn(dir, "01-03-PLAN.md")
	if err := os.Mkdir(dirMarker.MarkerPath, 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		unit plan.Unit
		want bool
	}{
		{"summary exists", done, true},
		{"empty summary counts", empty, true},
		{"directory is not a summary", dirMarker, false},
		{"no summary", unitIn(dir, "01-04-PLAN.md"), false},
		{"missing phase dir", unitIn(filepath.Join(dir, "nope"), "01-05-PLAN.md"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tracker.IsComplete(tt.unit); got != tt.want {
				t.Errorf("IsComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTracker_IsCompleteReadsFilesystemEachTime(t *testing.T) {
	u := unitIn(t.TempDir(), "01-01-PLAN.md")
	tracker := NewTracker()

	if tracker.IsComplete(u) {
		t.Fatal("IsComplete() = true before summary written")
	}
	if err := os.WriteFile(u.MarkerPath, []byte("done"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !tracker.IsComplete(u) {
		t.Error("IsComplete() = false after summary written")
	}
}

func TestTracker_Partition(t *testing.T) {
	dir := t.TempDir()
	a, b, c := unitIn(dir, "a-PLAN.md"), unitIn(dir, "b-PLAN.md"), unitIn(dir, "c-PLAN.md")
	if err := os.WriteFile(b.MarkerPath, []byte("done"), 0o644); err != nil {
		t.Fatal(err)
	}

	pending, complete := NewTracker().Partition([]plan.Unit{a, b, c})
	if len(pending) != 2 || pending[0].ID != "a-PLAN.md" || pending[1].ID != "c-PLAN.md" {
		t.Errorf("pending = %+v", pending)
	}
	if len(complete) != 1 || complete[0].ID != "b-PLAN.md" {
		t.Errorf("complete = %+v", complete)
	}
}
