package plan

import "testing"

func TestMarkerName(t *testing.T) {
	tests := []struct {
		id     string
		want   string
		wantOK bool
	}{
		{"01-02-PLAN.md", "01-02-SUMMARY.md", true},
		{"03-PLAN.md", "03-SUMMARY.md", true},
		{"a-PLAN-PLAN.md", "a-PLAN-SUMMARY.md", true},
		{"x-PLAN", "x-SUMMARY", true},
		{"01-PLANS.md", "", false},
		{"01-plan.md", "", false},
		{"PLAN.md", "", false},
		{"-PLAN.md", "", false},
		{"01-PLAN-notes.md", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := MarkerName(tt.id)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("MarkerName(%q) = %q, %v; want %q, %v", tt.id, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPlanName(t *testing.T) {
	got, ok := PlanName("01-02-SUMMARY.md")
	if !ok || got != "01-02-PLAN.md" {
		t.Errorf("PlanName() = %q, %v", got, ok)
	}
	if _, ok := PlanName("01-02-PLAN.md"); ok {
		t.Error("PlanName() accepted a plan name")
	}
	if IsMarkerName("SUMMARY.md") {
		t.Error("IsMarkerName() accepted a bare suffix")
	}
}

func TestUnit_Paths(t *testing.T) {
	u := Unit{ID: "01-01-PLAN.md", Path: "/p/phases/01-a/01-01-PLAN.md", MarkerPath: "/p/phases/01-a/01-01-SUMMARY.md"}
	if u.Dir() != "/p/phases/01-a" {
		t.Errorf("Dir() = %q", u.Dir())
	}
	if u.MarkerID() != "01-01-SUMMARY.md" {
		t.Errorf("MarkerID() = %q", u.MarkerID())
	}
}
