package internal

import (
	"bytes"
	"go/format"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestGofmt fails when a Go file under internal/ or cmd/ differs from its
// gofmt output. Fix with: gofmt -w ./internal/ ./cmd/
func TestGofmt(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	root := wd
	if filepath.Base(wd) == "internal" {
		root = filepath.Dir(wd)
	}

	var unformatted []string
	for _, dir := range []string{"internal", "cmd"} {
		err := filepath.WalkDir(filepath.Join(root, dir), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if name := d.Name(); name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".go") {
				return nil
			}

			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			formatted, err := format.Source(src)
			if err != nil {
				rel, _ := filepath.Rel(root, path)
				t.Errorf("%s does not parse: %v", rel, err)
				return nil
			}
			if !bytes.Equal(src, formatted) {
				rel, _ := filepath.Rel(root, path)
				unformatted = append(unformatted, rel)
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			t.Fatalf("failed to walk %s: %v", dir, err)
		}
	}

	if len(unformatted) > 0 {
		t.Errorf("files not gofmt-formatted:\n  %s\nrun: gofmt -w ./internal/ ./cmd/", strings.Join(unformatted, "\n  "))
	}
}
