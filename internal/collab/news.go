package collab

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/SimonStenelid/X-team/internal/config"
	"github.com/SimonStenelid/X-team/internal/topics"
)

// item is one fetched feed entry, normalized for selection.
type item struct {
	Title       string
	Link        string
	Description string
	Source      string
	Published   time.Time
}

// News drafts a news-commentary post from the freshest item across the
// configured RSS sources.
type News struct {
	sources []config.Source
	parser  *gofeed.Parser
	rng     *rand.Rand
	maxAge  time.Duration
}

func NewNews(sources []config.Source, rng *rand.Rand) *News {
	return &News{
		sources: sources,
		parser:  gofeed.NewParser(),
		rng:     rng,
		maxAge:  48 * time.Hour,
	}
}

func (n *News) Name() string { return "news" }

func (n *News) Generate(ctx context.Context, req Request) (*Candidate, error) {
	items, errs := n.fetchAll(ctx)
	if len(items) == 0 {
		if len(errs) > 0 {
			return nil, fmt.Errorf("all sources failed: %w", errs[0])
		}
		return nil, ErrNoContent
	}

	picked := selectItem(items, req)
	if picked == nil {
		return nil, ErrNoContent
	}

	topic := ""
	if ts := topics.Extract(picked.Title, 1); len(ts) > 0 {
		topic = ts[0]
	}
	return &Candidate{
		Text:         composeNews(picked, n.rng),
		SourceID:     picked.Link,
		Topic:        topic,
		Collaborator: n.Name(),
	}, nil
}

func (n *News) fetchAll(ctx context.Context) ([]item, []error) {
	var (
		mu    sync.Mutex
		items []item
		errs  []error
		wg    sync.WaitGroup
	)
	cutoff := time.Now().Add(-n.maxAge)

	for _, src := range n.sources {
		wg.Add(1)
		go func(s config.Source) {
			defer wg.Done()
			feed, err := n.parser.ParseURLWithContext(s.URL, ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("fetching %s: %w", s.Name, err))
				return
			}
			for _, fi := range feed.Items {
				pub := time.Now()
				if fi.PublishedParsed != nil {
					pub = *fi.PublishedParsed
				} else if fi.UpdatedParsed != nil {
					pub = *fi.UpdatedParsed
				}
				if pub.Before(cutoff) {
					continue
				}
				desc := fi.Description
				if desc == "" {
					desc = fi.Content
				}
				items = append(items, item{
					Title:       fi.Title,
					Link:        fi.Link,
					Description: truncate(stripHTML(desc), 200),
					Source:      s.Name,
					Published:   pub,
				})
			}
		}(src)
	}
	wg.Wait()
	return items, errs
}

// selectItem returns the freshest item whose topic and link are not on the
// avoid lists, or nil when everything is filtered out.
func selectItem(items []item, req Request) *item {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})
	for i := range items {
		it := &items[i]
		if avoided(it.Link, req.AvoidSources) {
			continue
		}
		if hasAvoidedTopic(it.Title, req.AvoidTopics) {
			continue
		}
		return it
	}
	return nil
}

func hasAvoidedTopic(title string, avoid []string) bool {
	for _, t := range topics.Extract(title, 3) {
		if avoided(t, avoid) {
			return true
		}
	}
	return false
}

var newsLeads = []string{
	"Worth watching:",
	"Big news today:",
	"This caught my eye:",
	"Just in:",
}

func composeNews(it *item, rng *rand.Rand) string {
	lead := newsLeads[rng.Intn(len(newsLeads))]
	text := fmt.Sprintf("%s %s", lead, it.Title)
	if it.Description != "" {
		text += "\n\n" + it.Description
	}
	return text + "\n\n" + it.Link
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
