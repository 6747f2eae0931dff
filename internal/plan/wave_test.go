package plan

import "testing"

func TestParseWave(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"frontmatter", "---\nphase: 01\nwave: 2\n---\n# Plan", 2},
		{"no space", "wave:3", 3},
		{"extra whitespace", "wave:   \t 7", 7},
		{"newline after label", "wave:\n4", 4},
		{"first declaration wins", "wave: 5\nlater wave: 9", 5},
		{"inline prose", "This runs in wave: 3 of the phase", 3},
		{"leading zeros", "wave: 002", 2},
		{"zero", "wave: 0", 0},
		{"missing", "# Plan\nno declaration", DefaultWave},
		{"empty", "", DefaultWave},
		{"case sensitive", "Wave: 4", DefaultWave},
		{"non numeric", "wave: two", DefaultWave},
		{"skips label without number", "wave: tbd\nwave: 6", 6},
		{"overflow", "wave: 99999999999999999999999", DefaultWave},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseWave(tt.text); got != tt.want {
				t.Errorf("ParseWave(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}
