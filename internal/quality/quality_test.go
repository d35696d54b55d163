package quality

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/SimonStenelid/X-team/internal/config"
)

var testCfg = config.QualityConfig{MinScore: 6.0, MaxTextLength: 300, MaxMediaMB: 10}

const goodText = "OpenAI just shipped Codex updates and the Agents SDK now supports " +
	"structured handoffs. What does that mean for teams running 10+ automations in production?"

func TestValidateAcceptsGoodText(t *testing.T) {
	r := Validate(Input{Text: goodText}, testCfg, nil)
	if !r.Accepted {
		t.Errorf("good text rejected: score %.1f, violations %v", r.Score, r.Violations)
	}
}

func TestValidateEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		r := Validate(Input{Text: text}, testCfg, FixedScorer{Value: 10})
		if r.Accepted {
			t.Errorf("empty text %q accepted", text)
		}
		if !slices.Contains(r.Violations, ViolationEmptyText) {
			t.Errorf("expected %s for %q, got %v", ViolationEmptyText, text, r.Violations)
		}
	}
}

func TestValidateTextTooLong(t *testing.T) {
	long := make([]byte, 301)
	for i := range long {
		long[i] = 'a'
	}
	r := Validate(Input{Text: string(long)}, testCfg, FixedScorer{Value: 10})
	if !slices.Contains(r.Violations, ViolationTextTooLong) {
		t.Errorf("expected %s, got %v", ViolationTextTooLong, r.Violations)
	}
}

func TestValidateUnbalancedFormatting(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{`He said "let's go`, true},
		{`He said "let's go" today`, false},
		{`a (parenthetical that never closes`, true},
		{`a [bracket] and (paren) both closed`, false},
	}
	for _, tt := range tests {
		r := Validate(Input{Text: tt.text}, testCfg, FixedScorer{Value: 10})
		got := slices.Contains(r.Violations, ViolationUnbalancedFormatting)
		if got != tt.want {
			t.Errorf("%q: unbalanced=%v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestValidateMediaChecks(t *testing.T) {
	dir := t.TempDir()

	r := Validate(Input{Text: goodText, MediaPath: filepath.Join(dir, "nope.png")}, testCfg, FixedScorer{Value: 10})
	if !slices.Contains(r.Violations, ViolationMediaMissing) {
		t.Errorf("missing file: got %v", r.Violations)
	}

	bad := filepath.Join(dir, "clip.exe")
	if err := os.WriteFile(bad, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	r = Validate(Input{Text: goodText, MediaPath: bad}, testCfg, FixedScorer{Value: 10})
	if !slices.Contains(r.Violations, ViolationMediaBadFormat) {
		t.Errorf("bad extension: got %v", r.Violations)
	}

	big := filepath.Join(dir, "big.mp4")
	if err := os.WriteFile(big, make([]byte, 2<<20), 0o644); err != nil {
		t.Fatal(err)
	}
	small := config.QualityConfig{MinScore: 6.0, MaxTextLength: 300, MaxMediaMB: 1}
	r = Validate(Input{Text: goodText, MediaPath: big}, small, FixedScorer{Value: 10})
	if !slices.Contains(r.Violations, ViolationMediaTooLarge) {
		t.Errorf("oversized file: got %v", r.Violations)
	}

	ok := filepath.Join(dir, "ok.jpg")
	if err := os.WriteFile(ok, []byte("jpegdata"), 0o644); err != nil {
		t.Fatal(err)
	}
	r = Validate(Input{Text: goodText, MediaPath: ok}, testCfg, FixedScorer{Value: 10})
	if !r.Accepted {
		t.Errorf("valid media rejected: %v", r.Violations)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	r := Validate(Input{Text: `"`}, testCfg, FixedScorer{Value: 0})
	for _, want := range []string{ViolationUnbalancedFormatting, ViolationScoreBelowMinimum} {
		if !slices.Contains(r.Violations, want) {
			t.Errorf("missing %s in %v", want, r.Violations)
		}
	}
	if len(r.Violations) < 2 {
		t.Errorf("expected multiple violations, got %v", r.Violations)
	}
}

func TestValidateScoreBoundary(t *testing.T) {
	if r := Validate(Input{Text: goodText}, testCfg, FixedScorer{Value: 6.0}); !r.Accepted {
		t.Errorf("score equal to minimum should pass, got %v", r.Violations)
	}
	r := Validate(Input{Text: goodText}, testCfg, FixedScorer{Value: 5.9})
	if r.Accepted || !slices.Contains(r.Violations, ViolationScoreBelowMinimum) {
		t.Errorf("score below minimum should fail, got %+v", r)
	}
}

func TestHeuristicScorerRange(t *testing.T) {
	s := HeuristicScorer{MaxTextLength: 300}
	for _, text := range []string{"", "hi", goodText, "no caps no numbers no questions at all whatsoever today"} {
		b := s.Score(Input{Text: text})
		if b.Final < 0 || b.Final > 10 {
			t.Errorf("score %g out of range for %q", b.Final, text)
		}
	}
}

func TestHeuristicScorerOrdering(t *testing.T) {
	s := HeuristicScorer{MaxTextLength: 300}
	good := s.Score(Input{Text: goodText}).Final
	weak := s.Score(Input{Text: "ok"}).Final
	if good <= weak {
		t.Errorf("substantial post scored %g, throwaway scored %g", good, weak)
	}
}

func TestHeuristicScorerPenalizesHashtagWalls(t *testing.T) {
	s := HeuristicScorer{MaxTextLength: 300}
	spam := s.Score(Input{Text: "Check this #ai #agents #llm #startup #tech #growth link"})
	clean := s.Score(Input{Text: "Check this new Agents release from Anthropic, worth a read"})
	if spam.Formatting >= clean.Formatting {
		t.Errorf("hashtag wall formatting %g should be below clean %g", spam.Formatting, clean.Formatting)
	}
}
