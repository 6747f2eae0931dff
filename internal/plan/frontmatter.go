package plan

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the optional YAML header of a plan file:
//
//	---
//	phase: 01-setup
//	plan: 02
//	type: execute
//	wave: 2
//	depends_on: [01-01]
//	autonomous: true
//	---
//
// The wave field is not read from here; ParseWave owns wave extraction.
type Frontmatter struct {
	Phase         string   `yaml:"phase"`
	Plan          string   `yaml:"plan"`
	Type          string   `yaml:"type"`
	DependsOn     []string `yaml:"depends_on"`
	FilesModified []string `yaml:"files_modified"`
	Autonomous    *bool    `yaml:"autonomous"`
	GapClosure    bool     `yaml:"gap_closure"`
}

// ParseFrontmatter extracts the YAML header from a plan. ok is false when
// the document has no header or the header is not valid YAML; plans without
// usable frontmatter are still executable.
func ParseFrontmatter(content []byte) (fm Frontmatter, ok bool) {
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return Frontmatter{}, false
	}
	rest := normalized[4:]

	var header []byte
	if bytes.HasPrefix(rest, []byte("---\n")) || bytes.Equal(rest, []byte("---")) {
		header = nil
	} else {
		parts := bytes.SplitN(rest, []byte("\n---"), 2)
		if len(parts) < 2 {
			return Frontmatter{}, false
		}
		header = parts[0]
	}

	if err := yaml.Unmarshal(header, &fm); err != nil {
		return Frontmatter{}, false
	}
	return fm, true
}
