package collab

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SimonStenelid/X-team/internal/store"
)

func TestSelectItemPrefersFreshest(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	items := []item{
		{Title: "Older story about Kubernetes", Link: "https://a.example/1", Published: now.Add(-10 * time.Hour)},
		{Title: "Newer story about Anthropic", Link: "https://a.example/2", Published: now.Add(-1 * time.Hour)},
	}

	got := selectItem(items, Request{})
	if got == nil || got.Link != "https://a.example/2" {
		t.Errorf("expected freshest item, got %+v", got)
	}
}

func TestSelectItemSkipsAvoidedSources(t *testing.T) {
	now := time.Now()
	items := []item{
		{Title: "Fresh but already curated", Link: "https://a.example/used", Published: now},
		{Title: "Older but unused", Link: "https://a.example/free", Published: now.Add(-2 * time.Hour)},
	}

	got := selectItem(items, Request{AvoidSources: []string{"https://a.example/used"}})
	if got == nil || got.Link != "https://a.example/free" {
		t.Errorf("expected unused item, got %+v", got)
	}
}

func TestSelectItemSkipsAvoidedTopics(t *testing.T) {
	now := time.Now()
	items := []item{
		{Title: "OpenAI ships another model", Link: "https://a.example/1", Published: now},
		{Title: "Postgres tuning deep dive", Link: "https://a.example/2", Published: now.Add(-time.Hour)},
	}

	got := selectItem(items, Request{AvoidTopics: []string{"openai"}})
	if got == nil || got.Link != "https://a.example/2" {
		t.Errorf("expected non-avoided topic, got %+v", got)
	}

	if got := selectItem(items, Request{AvoidTopics: []string{"openai", "postgres"}}); got != nil {
		t.Errorf("all topics avoided, expected nil, got %+v", got)
	}
}

func TestComposeNewsIncludesLink(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	it := &item{
		Title:       "Anthropic releases new tooling",
		Link:        "https://a.example/story",
		Description: "A short summary.",
	}
	text := composeNews(it, rng)
	for _, want := range []string{it.Title, it.Link, it.Description} {
		if !strings.Contains(text, want) {
			t.Errorf("composed text missing %q:\n%s", want, text)
		}
	}
}

func TestCuratorCandidateMarksSource(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c := NewCurator(NewNews(nil, rng), rng)

	// No sources configured: fetch yields nothing.
	if _, err := c.Generate(context.Background(), Request{Type: store.TypeCurator}); !errors.Is(err, ErrNoContent) {
		t.Errorf("expected ErrNoContent, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"this is a long string", 10, "this is..."},
		{"abcd", 3, "abc"},
		{"こんにちは世界です", 5, "こん..."},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.input, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hello</p>", "Hello"},
		{"<b>Bold</b> and <i>italic</i>", "Bold and italic"},
		{"<div>  Multiple   spaces  </div>", "Multiple spaces"},
		{"No tags here", "No tags here"},
	}
	for _, tt := range tests {
		if got := stripHTML(tt.input); got != tt.want {
			t.Errorf("stripHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func writeBackupFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup_content.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadBackupAndGenerate(t *testing.T) {
	path := writeBackupFile(t, `
content:
  meme:
    - text: "When the cron job finally fires on time"
      media_path: "memes/cron.jpg"
      topic: "automation"
  image:
    - text: "Behind the scenes of the pipeline"
      media_path: "images/pipeline.png"
`)
	rng := rand.New(rand.NewSource(1))
	b, err := LoadBackup(path, rng)
	if err != nil {
		t.Fatalf("LoadBackup: %v", err)
	}
	if b.Len(store.TypeMeme) != 1 || b.Len(store.TypeImage) != 1 {
		t.Fatalf("unexpected library sizes: meme=%d image=%d", b.Len(store.TypeMeme), b.Len(store.TypeImage))
	}

	c, err := b.Generate(context.Background(), Request{Type: store.TypeMeme})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if c.MediaPath != "memes/cron.jpg" || c.Collaborator != "backup" {
		t.Errorf("unexpected candidate: %+v", c)
	}

	if _, err := b.Generate(context.Background(), Request{Type: store.TypeNews}); !errors.Is(err, ErrNoContent) {
		t.Errorf("empty pool should return ErrNoContent, got %v", err)
	}
}

func TestLoadBackupMissingFile(t *testing.T) {
	b, err := LoadBackup(filepath.Join(t.TempDir(), "nope.yaml"), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if _, err := b.Generate(context.Background(), Request{Type: store.TypeMeme}); !errors.Is(err, ErrNoContent) {
		t.Errorf("expected ErrNoContent from empty library, got %v", err)
	}
}

func TestLoadBackupRejectsUnknownType(t *testing.T) {
	path := writeBackupFile(t, "content:\n  podcast:\n    - text: nope\n")
	if _, err := LoadBackup(path, rand.New(rand.NewSource(1))); err == nil {
		t.Error("unknown content type should fail")
	}
}

func TestBackupAvoidsTopicsWhenPossible(t *testing.T) {
	path := writeBackupFile(t, `
content:
  meme:
    - text: "agents meme"
      topic: "agents"
    - text: "compilers meme"
      topic: "compilers"
`)
	b, err := LoadBackup(path, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		c, err := b.Generate(context.Background(), Request{Type: store.TypeMeme, AvoidTopics: []string{"agents"}})
		if err != nil {
			t.Fatal(err)
		}
		if c.Topic == "agents" {
			t.Fatal("avoided topic served while alternatives existed")
		}
	}

	// When everything is avoided, still serve something.
	c, err := b.Generate(context.Background(), Request{Type: store.TypeMeme, AvoidTopics: []string{"agents", "compilers"}})
	if err != nil || c == nil {
		t.Fatalf("fully-avoided pool should still serve: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	b, _ := LoadBackup("", rand.New(rand.NewSource(1)))
	r.Register(store.TypeMeme, b)

	if c, err := r.For(store.TypeMeme); err != nil || c.Name() != "backup" {
		t.Errorf("For(meme) = %v, %v", c, err)
	}
	if _, err := r.For(store.TypeNews); err == nil {
		t.Error("unregistered type should fail")
	}
}
