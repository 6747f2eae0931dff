package prompt

import (
	"fmt"
	"strings"

	"github.com/gsd-build/gsd/internal/plan"
)

// Builder produces per-plan instructions. The execution context is loaded
// once and shared by every plan of a run.
type Builder struct {
	execContext string
}

// contextSection is one titled document of the execution context.
type contextSection struct {
	title string
	kind  Kind
	name  string
}

var sections = []contextSection{
	{"Execute Plan Workflow", Workflow, "execute-plan.md"},
	{"Summary Template", Template, "summary.md"},
	{"Checkpoints Reference", Reference, "checkpoints.md"},
	{"TDD Reference", Reference, "tdd.md"},
}

// NewBuilder loads the execution context from assets.
func NewBuilder(assets *Assets) (*Builder, error) {
	var b strings.Builder
	b.WriteString("<execution_context>\n")
	for i, s := range sections {
		text, err := assets.Read(s.kind, s.name)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s:\n%s\n", s.title, strings.TrimRight(text, "\n"))
	}
	b.WriteString("</execution_context>\n")
	return &Builder{execContext: b.String()}, nil
}

// ExecutionContext returns the shared execution context block.
func (b *Builder) ExecutionContext() string {
	return b.execContext
}

// Instruction returns the directive for u, where ref is the plan's path
// relative to the agent's working directory.
func (b *Builder) Instruction(ref string, u plan.Unit) string {
	return fmt.Sprintf("Execute the plan defined in @%s. create %s when done.\n\n%s",
		ref, u.MarkerID(), b.execContext)
}
