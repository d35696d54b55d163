package embed

import (
	"context"
	"math"
	"testing"

	"github.com/SimonStenelid/X-team/internal/config"
)

func TestNewProviders(t *testing.T) {
	if _, err := New(nil, ""); err != nil {
		t.Errorf("nil config should yield local provider: %v", err)
	}
	if _, err := New(&config.EmbedderConfig{Provider: "local"}, ""); err != nil {
		t.Errorf("local provider: %v", err)
	}
	if _, err := New(&config.EmbedderConfig{Provider: "openai"}, "sk-test"); err != nil {
		t.Errorf("openai provider with key: %v", err)
	}
	if _, err := New(&config.EmbedderConfig{Provider: "openai"}, ""); err == nil {
		t.Error("openai provider without key should fail")
	}
	if _, err := New(&config.EmbedderConfig{Provider: "markov"}, ""); err == nil {
		t.Error("unknown provider should fail")
	}
}

func TestLocalDeterministic(t *testing.T) {
	p := localProvider{}
	a, err := p.Embed(context.Background(), "AI agents are transforming how we work")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, _ := p.Embed(context.Background(), "AI agents are transforming how we work")

	if len(a) != localDims {
		t.Fatalf("expected %d dims, got %d", localDims, len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %g vs %g", i, a[i], b[i])
		}
	}
}

func TestLocalNormalized(t *testing.T) {
	p := localProvider{}
	vec, err := p.Embed(context.Background(), "some ordinary text about nothing special")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if math.Abs(norm-1.0) > 1e-9 {
		t.Errorf("expected unit vector, squared norm %g", norm)
	}
}

func TestLocalEmptyText(t *testing.T) {
	p := localProvider{}
	vec, err := p.Embed(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatal("empty text should give zero vector")
		}
	}
}

func TestLocalSimilarTextsCloserThanDifferent(t *testing.T) {
	p := localProvider{}
	ctx := context.Background()
	a, _ := p.Embed(ctx, "AI agents are transforming how we work every day")
	b, _ := p.Embed(ctx, "AI agents are transforming how we all work every day")
	c, _ := p.Embed(ctx, "my cat refuses to eat breakfast again")

	if dot(a, b) <= dot(a, c) {
		t.Errorf("near-duplicate similarity %g should exceed unrelated %g", dot(a, b), dot(a, c))
	}
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
