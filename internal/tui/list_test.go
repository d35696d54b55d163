package tui

import (
	"testing"
	"time"

	"github.com/SimonStenelid/X-team/internal/store"
)

func TestTruncateStr(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"this is a long string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := truncateStr(tt.input, tt.n); got != tt.want {
			t.Errorf("truncateStr(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"single line", "single line"},
		{"first\nsecond\nthird", "first"},
		{"  spaced   out  \nrest", "spaced out"},
	}
	for _, tt := range tests {
		if got := firstLine(tt.input); got != tt.want {
			t.Errorf("firstLine(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFilterPosts(t *testing.T) {
	posts := []store.PostRecord{
		{ID: "1", Type: store.TypeNews, Text: "A story about Kubernetes"},
		{ID: "2", Type: store.TypeMeme, Text: "when the build passes locally"},
		{ID: "3", Type: store.TypeNews, Text: "another kubernetes incident"},
	}

	if got := filterPosts(posts, "", ""); len(got) != 3 {
		t.Errorf("no filter: got %d posts", len(got))
	}
	if got := filterPosts(posts, "kubernetes", ""); len(got) != 2 {
		t.Errorf("text filter: got %d posts, want 2", len(got))
	}
	if got := filterPosts(posts, "", store.TypeMeme); len(got) != 1 || got[0].ID != "2" {
		t.Errorf("type filter: got %v", got)
	}
	if got := filterPosts(posts, "kubernetes", store.TypeMeme); len(got) != 0 {
		t.Errorf("combined filter: got %v", got)
	}
}

func TestNextTypeFilterCycles(t *testing.T) {
	seen := map[store.ContentType]bool{}
	cur := store.ContentType("")
	for i := 0; i < len(store.AllTypes())+1; i++ {
		cur = nextTypeFilter(cur)
		seen[cur] = true
	}
	if cur != "" {
		t.Errorf("cycle should end back at all, got %q", cur)
	}
	if len(seen) != len(store.AllTypes())+1 {
		t.Errorf("cycle visited %d states, want %d", len(seen), len(store.AllTypes())+1)
	}
}

func TestRenderListEmpty(t *testing.T) {
	out := renderList(nil, 0, 10, 40)
	if out == "" {
		t.Error("empty list should render placeholder")
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Now()
	if got := relativeTime(now.Add(-30 * time.Second)); got != "just now" {
		t.Errorf("got %q", got)
	}
	if got := relativeTime(now.Add(-2 * time.Hour)); got != "2h" {
		t.Errorf("got %q", got)
	}
	if got := relativeTime(now.Add(-3 * 24 * time.Hour)); got != "3d" {
		t.Errorf("got %q", got)
	}
}
