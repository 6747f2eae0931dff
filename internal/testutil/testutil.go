// Package testutil provides fixtures for gsd tests: throwaway projects with
// planning directories, phases and plans, plus stand-in agent scripts.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
)

// PlanningDir is the planning directory created by SetupProject.
const PlanningDir = ".planning"

// SetupProject creates a temporary project root with a planning directory,
// an empty phases directory and the default context documents. The project
// is removed when the test completes.
func SetupProject(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, PlanningDir, "phases"), 0755); err != nil {
		t.Fatalf("failed to create phases dir: %v", err)
	}
	WriteFile(t, filepath.Join(root, PlanningDir, "STATE.md"), "# State\n")
	WriteFile(t, filepath.Join(root, PlanningDir, "PROJECT.md"), "# Project\n")
	return root
}

// WritePhase creates .planning/phases/{name} under root with the given plan
// files (file name -> content) and returns the phase directory.
func WritePhase(t *testing.T, root, name string, plans map[string]string) string {
	t.Helper()

	dir := filepath.Join(root, PlanningDir, "phases", name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create phase dir %s: %v", name, err)
	}
	for file, content := range plans {
		WriteFile(t, filepath.Join(dir, file), content)
	}
	return dir
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}

// WriteScript writes an executable /bin/sh script named name into dir and
// returns its path. body is everything after the shebang line.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("failed to write script %s: %v", name, err)
	}
	return path
}

// Exists reports whether path exists.
func Exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

// ListFiles returns the sorted names of the regular files in dir.
func ListFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// SkipIfNoShell skips the test when /bin/sh scripts cannot run.
func SkipIfNoShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows, skipping test")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH, skipping test")
	}
}
