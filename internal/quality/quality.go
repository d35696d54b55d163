package quality

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SimonStenelid/X-team/internal/config"
	"github.com/SimonStenelid/X-team/internal/topics"
)

// Violation names, stable for logging and tests.
const (
	ViolationEmptyText            = "empty_text"
	ViolationTextTooLong          = "text_too_long"
	ViolationUnbalancedFormatting = "unbalanced_formatting"
	ViolationMediaMissing         = "media_missing"
	ViolationMediaTooLarge        = "media_too_large"
	ViolationMediaBadFormat       = "media_bad_format"
	ViolationScoreBelowMinimum    = "quality_score_below_minimum"
)

var allowedMediaExtensions = map[string]bool{
	".mp4": true, ".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webm": true,
}

// Input holds the candidate fields the gate inspects.
type Input struct {
	Text      string
	MediaPath string
}

// Result is the gate's verdict. All violations are collected, not just the
// first, so the caller can judge whether regeneration is worthwhile.
type Result struct {
	Accepted   bool
	Score      float64
	Violations []string
}

// Scorer computes a 0-10 quality score for a candidate. Pluggable so an
// LLM-backed judge can replace the heuristic without touching the gate.
type Scorer interface {
	Score(in Input) Breakdown
}

// Validate runs every check and the scorer; acceptance requires all checks
// to pass and the score to reach cfg.MinScore. A nil scorer uses the
// heuristic default.
func Validate(in Input, cfg config.QualityConfig, scorer Scorer) Result {
	if scorer == nil {
		scorer = HeuristicScorer{MaxTextLength: cfg.MaxTextLength}
	}

	var violations []string

	text := strings.TrimSpace(in.Text)
	if text == "" {
		violations = append(violations, ViolationEmptyText)
	}
	if max := cfg.MaxTextLength; max > 0 && len([]rune(in.Text)) > max {
		violations = append(violations, ViolationTextTooLong)
	}
	if !balancedFormatting(in.Text) {
		violations = append(violations, ViolationUnbalancedFormatting)
	}
	violations = append(violations, mediaViolations(in.MediaPath, cfg.MaxMediaMB)...)

	score := scorer.Score(in).Final
	if score < cfg.MinScore {
		violations = append(violations, ViolationScoreBelowMinimum)
	}

	return Result{
		Accepted:   len(violations) == 0,
		Score:      score,
		Violations: violations,
	}
}

// balancedFormatting rejects text with unterminated quotes or brackets.
func balancedFormatting(text string) bool {
	if strings.Count(text, `"`)%2 != 0 {
		return false
	}
	for _, pair := range [][2]string{{"(", ")"}, {"[", "]"}} {
		if strings.Count(text, pair[0]) != strings.Count(text, pair[1]) {
			return false
		}
	}
	return true
}

func mediaViolations(path string, maxMB int) []string {
	if path == "" {
		return nil
	}
	var out []string

	info, err := os.Stat(path)
	if err != nil {
		return []string{ViolationMediaMissing}
	}
	if maxMB > 0 && info.Size() > int64(maxMB)<<20 {
		out = append(out, ViolationMediaTooLarge)
	}
	if !allowedMediaExtensions[strings.ToLower(filepath.Ext(path))] {
		out = append(out, ViolationMediaBadFormat)
	}
	return out
}

// Reasons renders violations for log output.
func (r Result) Reasons() string {
	return strings.Join(r.Violations, "; ")
}

// Breakdown shows how each component contributed to the final score.
type Breakdown struct {
	LengthFit  float64
	Formatting float64
	Hook       float64
	Density    float64
	Final      float64
}

const (
	weightLength     = 0.30
	weightFormatting = 0.25
	weightHook       = 0.25
	weightDensity    = 0.20
)

// HeuristicScorer is the default quality scorer: a weighted blend of length
// fit, formatting health, hook strength, and topical density, scaled to
// 0.0-10.0.
type HeuristicScorer struct {
	MaxTextLength int
}

func (s HeuristicScorer) Score(in Input) Breakdown {
	b := Breakdown{
		LengthFit:  lengthScore(in.Text, s.MaxTextLength),
		Formatting: formattingScore(in.Text),
		Hook:       hookScore(in.Text),
		Density:    densityScore(in.Text),
	}
	raw := b.LengthFit*weightLength +
		b.Formatting*weightFormatting +
		b.Hook*weightHook +
		b.Density*weightDensity
	b.Final = float64(int(raw*100+0.5)) / 10 // scale to 0.0-10.0
	return b
}

// lengthScore rewards posts with enough substance to land but room to spare
// under the platform cap.
func lengthScore(text string, max int) float64 {
	if max <= 0 {
		max = 300
	}
	n := len([]rune(strings.TrimSpace(text)))
	switch {
	case n == 0:
		return 0.0
	case n < 20:
		return 0.3
	case n > max:
		return 0.1
	case n > max-max/10:
		return 0.6
	default:
		return 1.0
	}
}

func formattingScore(text string) float64 {
	if !balancedFormatting(text) {
		return 0.0
	}
	// Walls of hashtags or mentions read as spam.
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0.0
	}
	tagged := 0
	for _, f := range fields {
		if strings.HasPrefix(f, "#") || strings.HasPrefix(f, "@") {
			tagged++
		}
	}
	if float64(tagged)/float64(len(fields)) > 0.3 {
		return 0.4
	}
	return 1.0
}

// hookScore is a rough proxy for whether the opening earns attention:
// questions, numbers, and contrast markers all help.
func hookScore(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0.0
	}
	score := 0.5
	if strings.ContainsAny(text, "?") {
		score += 0.25
	}
	if strings.ContainsAny(text, "0123456789") {
		score += 0.25
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// densityScore measures topical substance via extracted topics per sentence
// of text.
func densityScore(text string) float64 {
	found := topics.Extract(text, 5)
	score := float64(len(found)) / 3
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// FixedScorer always returns the same score. Test seam for exercising the
// gate's accept/reject boundary.
type FixedScorer struct {
	Value float64
}

func (s FixedScorer) Score(Input) Breakdown {
	return Breakdown{Final: s.Value}
}

// String implements fmt.Stringer for log lines.
func (b Breakdown) String() string {
	return fmt.Sprintf("len=%.2f fmt=%.2f hook=%.2f density=%.2f final=%.1f",
		b.LengthFit, b.Formatting, b.Hook, b.Density, b.Final)
}
