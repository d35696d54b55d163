package topics

import (
	"strings"
	"unicode"
)

// stopwords are common words that never count as topics even when they start
// a sentence capitalized.
var stopwords = map[string]bool{
	"the": true, "this": true, "that": true, "these": true, "those": true,
	"with": true, "from": true, "about": true, "into": true, "over": true,
	"after": true, "before": true, "when": true, "what": true, "where": true,
	"which": true, "while": true, "your": true, "just": true, "more": true,
	"also": true, "here": true, "there": true, "have": true, "been": true,
	"will": true, "would": true, "could": true, "should": true, "because": true,
	"every": true, "their": true, "them": true, "they": true, "some": true,
	"like": true, "want": true, "need": true, "make": true, "made": true,
}

// techTerms are lowercase terms that count as topics regardless of casing.
var techTerms = map[string]bool{
	"ai": true, "llm": true, "llms": true, "agent": true, "agents": true,
	"model": true, "models": true, "embedding": true, "embeddings": true,
	"automation": true, "inference": true, "training": true, "robotics": true,
	"startup": true, "startups": true, "opensource": true, "compute": true,
	"benchmark": true, "benchmarks": true, "reasoning": true, "multimodal": true,
}

// Extract pulls a normalized, ordered topic set from post text: capitalized
// words (proper nouns) and known tech terms, lowercased, deduplicated,
// capped at max. Order follows first appearance.
func Extract(text string, max int) []string {
	if max <= 0 {
		max = 3
	}

	var (
		out  []string
		seen = make(map[string]bool)
	)
	add := func(topic string) bool {
		if topic == "" || seen[topic] {
			return len(out) < max
		}
		seen[topic] = true
		out = append(out, topic)
		return len(out) < max
	}

	for _, word := range strings.Fields(text) {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(trimmed) < 2 {
			continue
		}
		lower := strings.ToLower(trimmed)
		if stopwords[lower] {
			continue
		}

		capitalized := len(trimmed) > 3 && unicode.IsUpper([]rune(trimmed)[0])
		if capitalized || techTerms[lower] {
			if !add(lower) {
				break
			}
		}
	}
	return out
}

// Overlap returns the share of a's topics also present in b. Returns 0 when
// either set is empty.
func Overlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inB := make(map[string]bool, len(b))
	for _, t := range b {
		inB[strings.ToLower(t)] = true
	}
	hits := 0
	for _, t := range a {
		if inB[strings.ToLower(t)] {
			hits++
		}
	}
	return float64(hits) / float64(len(a))
}
