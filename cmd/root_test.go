package cmd

import (
	"testing"
	"time"
)

func TestParseSince(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		err   bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"2h30m", 2*time.Hour + 30*time.Minute, false},
		{"invalid", 0, true},
		{"", 0, true},
		{"d", 0, true},
	}

	for _, tt := range tests {
		got, err := parseSince(tt.input)
		if tt.err {
			if err == nil {
				t.Errorf("parseSince(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSince(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSince(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFirstWords(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short post", 60, "short post"},
		{"first line\nsecond line", 60, "first line"},
		{"aaaaaaaaaaaa", 10, "aaaaaaa..."},
	}
	for _, tt := range tests {
		if got := firstWords(tt.input, tt.max); got != tt.want {
			t.Errorf("firstWords(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.input); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
