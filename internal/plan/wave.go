package plan

import (
	"regexp"
	"strconv"
)

// waveDecl matches the wave label followed by an integer.
var waveDecl = regexp.MustCompile(`wave:\s*(\d+)`)

// ParseWave returns the wave declared in a plan's text: the integer
// following the first "wave:" label that is followed by one. It returns
// DefaultWave when no declaration exists or the number does not fit in an
// int. The label is case-sensitive and may appear anywhere, including in
// YAML frontmatter.
func ParseWave(text string) int {
	m := waveDecl.FindStringSubmatch(text)
	if m == nil {
		return DefaultWave
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return DefaultWave
	}
	return n
}
