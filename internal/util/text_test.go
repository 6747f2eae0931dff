package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestFirstLine(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"", ""},
		{"one line", "one line"},
		{"first\nsecond", "first"},
		{"\nsecond", ""},
	}

	for _, tt := range tests {
		if got := FirstLine(tt.input); got != tt.want {
			t.Errorf("FirstLine(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTailLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{"empty", "", 3, ""},
		{"fewer lines than n", "a\nb\n", 3, "a\nb"},
		{"blank lines dropped", "a\n\n  \nb\n", 3, "a\nb"},
		{"keeps the tail", "a\nb\nc\nd\n", 2, "...\nc\nd"},
		{"crlf", "a\r\nb\r\n", 5, "a\nb"},
		{"trailing spaces trimmed", "a  \nb\t\n", 5, "a\nb"},
		{"n disabled", "a\nb\nc", 0, "a\nb\nc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TailLines(tt.input, tt.n); got != tt.want {
				t.Errorf("TailLines(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"short unchanged", "hello", 10, "hello"},
		{"exact width unchanged", "hello", 5, "hello"},
		{"long truncated", "hello world", 8, "hello..."},
		{"tiny width", "hello", 3, "..."},
		{"disabled", "hello world", 0, "hello world"},
		{"wide characters", "日本語テキスト", 7, "日本..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.maxWidth); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestTruncate_PreservesStyling(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("a rather long styled line")

	got := Truncate(styled, 10)
	if w := lipgloss.Width(got); w > 10 {
		t.Errorf("visible width = %d, want <= 10", w)
	}
}
