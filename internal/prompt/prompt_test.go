package prompt

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/gsd-build/gsd/internal/errors"
	"github.com/gsd-build/gsd/internal/plan"
	"github.com/gsd-build/gsd/internal/testutil"
)

func TestAssets_ReadEmbedded(t *testing.T) {
	a := NewAssets("")
	for _, s := range sections {
		t.Run(s.name, func(t *testing.T) {
			text, err := a.Read(s.kind, s.name)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if strings.TrimSpace(text) == "" {
				t.Error("embedded asset is empty")
			}
		})
	}
}

func TestAssets_Override(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "references", "tdd.md"), "custom tdd\n")

	a := NewAssets(dir)
	got, err := a.Read(Reference, "tdd.md")
	if err != nil || got != "custom tdd\n" {
		t.Errorf("Read(override) = %q, %v", got, err)
	}

	got, err = a.Read(Workflow, "execute-plan.md")
	if err != nil || !strings.Contains(got, "# Execute Plan") {
		t.Errorf("missing override should fall back to the embedded asset: %q, %v", got, err)
	}
}

func TestAssets_Unknown(t *testing.T) {
	_, err := NewAssets("").Read(Template, "nope.md")
	var nf *errors.NotFoundError
	if !errors.As(err, &nf) || nf.ResourceID != "nope.md" {
		t.Errorf("Read(unknown) error = %v, want NotFoundError", err)
	}
}

func TestBuilder_Instruction(t *testing.T) {
	dir := t.TempDir()
	for _, s := range sections {
		testutil.WriteFile(t, filepath.Join(dir, string(s.kind), s.name), s.name+" body\n")
	}

	b, err := NewBuilder(NewAssets(dir))
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	u := plan.Unit{ID: "01-02-PLAN.md", MarkerPath: "/p/.planning/phases/01-a/01-02-SUMMARY.md"}
	got := b.Instruction(".planning/phases/01-a/01-02-PLAN.md", u)

	want := "Execute the plan defined in @.planning/phases/01-a/01-02-PLAN.md. create 01-02-SUMMARY.md when done.\n\n" +
		"<execution_context>\n" +
		"Execute Plan Workflow:\nexecute-plan.md body\n\n" +
		"Summary Template:\nsummary.md body\n\n" +
		"Checkpoints Reference:\ncheckpoints.md body\n\n" +
		"TDD Reference:\ntdd.md body\n" +
		"</execution_context>\n"
	if got != want {
		t.Errorf("Instruction() =\n%s\nwant\n%s", got, want)
	}
}
