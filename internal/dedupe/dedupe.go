package dedupe

import (
	"crypto/sha256"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/SimonStenelid/X-team/internal/store"
	"github.com/SimonStenelid/X-team/internal/topics"
)

// Layer names which detection layer flagged a candidate.
type Layer string

const (
	LayerNone     Layer = ""
	LayerExact    Layer = "exact"
	LayerSemantic Layer = "semantic"
	LayerTopical  Layer = "topical"
)

// Candidate holds the fingerprints of a not-yet-published item.
type Candidate struct {
	Text      string
	MediaHash string
	Embedding []float64
	Topics    []string
	SourceID  string
	Curated   bool
}

type Params struct {
	SimilarityThreshold   float64
	TopicOverlapThreshold float64
}

// Result reports whether a candidate duplicates recent history and which
// layer matched. Any layer match is a full reject.
type Result struct {
	Duplicate bool
	Layer     Layer
	Evidence  string
}

// Check runs the three layers in order, short-circuiting on the first match:
// exact fingerprint, semantic similarity, topic/source overlap. recent must
// already be limited to the retention window; curatedIDs is the tracked set
// of already-curated source ids.
func Check(c Candidate, recent []store.PostRecord, curatedIDs []string, now time.Time, p Params) Result {
	if r := checkExact(c, recent); r.Duplicate {
		return r
	}
	if r := checkSemantic(c, recent, p.SimilarityThreshold); r.Duplicate {
		return r
	}
	return checkTopical(c, recent, curatedIDs, now, p.TopicOverlapThreshold)
}

func checkExact(c Candidate, recent []store.PostRecord) Result {
	hash := Fingerprint(c.Text)
	for _, post := range recent {
		if post.TextHash == hash {
			return Result{true, LayerExact, fmt.Sprintf("text matches post %s", post.ID)}
		}
		if c.MediaHash != "" && post.MediaHash == c.MediaHash {
			return Result{true, LayerExact, fmt.Sprintf("media matches post %s", post.ID)}
		}
	}
	return Result{}
}

func checkSemantic(c Candidate, recent []store.PostRecord, threshold float64) Result {
	if len(c.Embedding) == 0 {
		return Result{}
	}
	for _, post := range recent {
		sim := Cosine(c.Embedding, post.Embedding)
		if sim > threshold {
			return Result{true, LayerSemantic,
				fmt.Sprintf("similarity %.2f with post %s", sim, post.ID)}
		}
	}
	return Result{}
}

func checkTopical(c Candidate, recent []store.PostRecord, curatedIDs []string, now time.Time, threshold float64) Result {
	if c.Curated && c.SourceID != "" {
		for _, id := range curatedIDs {
			if id == c.SourceID {
				return Result{true, LayerTopical, "source already curated: " + c.SourceID}
			}
		}
	}

	if threshold <= 0 || len(c.Topics) == 0 {
		return Result{}
	}
	today := now.Format("2006-01-02")
	var posted []string
	for _, post := range recent {
		if post.PostedAt.In(now.Location()).Format("2006-01-02") == today {
			posted = append(posted, post.Topics...)
		}
	}
	if ratio := topics.Overlap(c.Topics, posted); ratio > threshold {
		return Result{true, LayerTopical,
			fmt.Sprintf("topic overlap %.2f with today's posts", ratio)}
	}
	return Result{}
}

// Fingerprint returns the sha256 hex digest of the normalized text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(NormalizeText(text)))
	return fmt.Sprintf("%x", sum)
}

// NormalizeText collapses whitespace and lowercases, so cosmetic edits don't
// defeat the exact-match layer.
func NormalizeText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Cosine returns dot(a,b) / (|a|*|b|), or 0 when either vector is empty or
// zero-length (the comparison is undefined there, so layer 2 skips it).
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
