// Package prompt assembles the instruction handed to the agent for each plan.
//
// The instruction embeds an execution context built from four documents: the
// execute-plan workflow, the summary template, and the checkpoint and TDD
// references. Defaults are compiled into the binary; a project may override
// any of them by placing a file with the same relative path under its assets
// directory (for example .planning/assets/workflows/execute-plan.md).
package prompt

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/gsd-build/gsd/internal/errors"
)

//go:embed assets
var embedded embed.FS

// Kind is a category of asset.
type Kind string

const (
	Workflow  Kind = "workflows"
	Template  Kind = "templates"
	Reference Kind = "references"
)

// Assets reads workflow, template and reference documents.
type Assets struct {
	dir string
}

// NewAssets returns Assets that prefer files under dir. An empty dir uses
// only the embedded defaults.
func NewAssets(dir string) *Assets {
	return &Assets{dir: dir}
}

// Read returns the named asset, preferring the override directory.
func (a *Assets) Read(kind Kind, name string) (string, error) {
	if a.dir != "" {
		data, err := os.ReadFile(filepath.Join(a.dir, string(kind), name))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", errors.Wrapf(err, "read %s asset %s", kind, name)
		}
	}

	data, err := embedded.ReadFile(path.Join("assets", string(kind), name))
	if err != nil {
		return "", errors.NewNotFoundError(string(kind), name).WithCause(err)
	}
	return string(data), nil
}
