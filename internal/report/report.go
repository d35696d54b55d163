package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/SimonStenelid/X-team/internal/store"
)

// TypeStats aggregates engagement for one content type.
type TypeStats struct {
	Type       store.ContentType
	Posts      int
	Likes      int
	Reposts    int
	Views      int
	AvgLikes   float64
	AvgReposts float64
	AvgScore   float64
}

// Report is an engagement summary over a posting window.
type Report struct {
	Since    time.Time
	Total    int
	ByType   []TypeStats
	TopPosts []store.PostRecord
}

// GenerateOpts holds options for the Generate function.
type GenerateOpts struct {
	Store   *store.Store
	Since   time.Time
	TopSize int
}

// Generate aggregates engagement by content type over the window and picks
// the highest-engagement posts. It reads only; counters come in via the
// engagement command.
func Generate(opts GenerateOpts) (*Report, error) {
	if opts.TopSize <= 0 {
		opts.TopSize = 3
	}

	posts, err := opts.Store.RecentPosts(opts.Since)
	if err != nil {
		return nil, fmt.Errorf("fetching posts: %w", err)
	}

	r := &Report{Since: opts.Since, Total: len(posts)}
	if len(posts) == 0 {
		return r, nil
	}

	agg := make(map[store.ContentType]*TypeStats)
	for _, p := range posts {
		s, ok := agg[p.Type]
		if !ok {
			s = &TypeStats{Type: p.Type}
			agg[p.Type] = s
		}
		s.Posts++
		s.Likes += p.Likes
		s.Reposts += p.Reposts
		s.Views += p.Views
		s.AvgScore += p.QualityScore
	}
	for _, s := range agg {
		n := float64(s.Posts)
		s.AvgLikes = float64(s.Likes) / n
		s.AvgReposts = float64(s.Reposts) / n
		s.AvgScore /= n
		r.ByType = append(r.ByType, *s)
	}
	// Highest average engagement first; ties break on post volume.
	sort.Slice(r.ByType, func(i, j int) bool {
		a, b := r.ByType[i], r.ByType[j]
		if a.AvgLikes != b.AvgLikes {
			return a.AvgLikes > b.AvgLikes
		}
		return a.Posts > b.Posts
	})

	top := append([]store.PostRecord(nil), posts...)
	sort.Slice(top, func(i, j int) bool {
		return engagement(top[i]) > engagement(top[j])
	})
	if len(top) > opts.TopSize {
		top = top[:opts.TopSize]
	}
	r.TopPosts = top

	return r, nil
}

// engagement is the ranking signal for top posts: reposts carry more weight
// than likes, views barely register.
func engagement(p store.PostRecord) float64 {
	return float64(p.Likes) + 2*float64(p.Reposts) + 0.01*float64(p.Views)
}
