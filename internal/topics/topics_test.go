package topics

import "testing"

func TestExtractCapitalizedWords(t *testing.T) {
	got := Extract("OpenAI ships a new Codex release for developers", 3)
	want := map[string]bool{"openai": true, "codex": true}
	for _, topic := range got {
		delete(want, topic)
	}
	if len(want) != 0 {
		t.Errorf("Extract missed topics %v, got %v", want, got)
	}
}

func TestExtractTechTerms(t *testing.T) {
	got := Extract("why agents and embeddings change automation forever", 5)
	want := []string{"agents", "embeddings", "automation"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("topic[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractSkipsStopwords(t *testing.T) {
	got := Extract("This Will Just Make Those", 5)
	if len(got) != 0 {
		t.Errorf("expected no topics from stopwords, got %v", got)
	}
}

func TestExtractRespectsCap(t *testing.T) {
	got := Extract("Anthropic OpenAI Google Meta Mistral Cohere", 3)
	if len(got) != 3 {
		t.Errorf("expected 3 topics, got %d: %v", len(got), got)
	}
}

func TestExtractDeduplicates(t *testing.T) {
	got := Extract("Claude and Claude and Claude again", 5)
	if len(got) != 1 || got[0] != "claude" {
		t.Errorf("expected single deduplicated topic, got %v", got)
	}
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"disjoint", []string{"ai", "agents"}, []string{"rust", "go"}, 0},
		{"full", []string{"ai", "agents"}, []string{"agents", "ai"}, 1},
		{"half", []string{"ai", "rust"}, []string{"ai", "go"}, 0.5},
		{"empty a", nil, []string{"ai"}, 0},
		{"empty b", []string{"ai"}, nil, 0},
		{"case insensitive", []string{"AI"}, []string{"ai"}, 1},
	}
	for _, tt := range tests {
		if got := Overlap(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: Overlap = %g, want %g", tt.name, got, tt.want)
		}
	}
}
