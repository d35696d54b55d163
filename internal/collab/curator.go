package collab

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/SimonStenelid/X-team/internal/topics"
)

// Curator drafts quote-style commentary on someone else's item. The source
// link becomes the candidate's SourceID so the duplicate detector can refuse
// to curate the same item twice.
type Curator struct {
	news *News
	rng  *rand.Rand
}

func NewCurator(news *News, rng *rand.Rand) *Curator {
	return &Curator{news: news, rng: rng}
}

func (c *Curator) Name() string { return "curator" }

var curatorTemplates = []string{
	"Sharp take on %s. The interesting part is what it implies for everyone building on top of this.\n\n%s",
	"Been thinking about %s all morning. Most people will read the headline and miss the second-order effects.\n\n%s",
	"%s is the kind of story that looks small now and obvious in a year.\n\n%s",
	"If you work anywhere near %s, read this one slowly.\n\n%s",
}

func (c *Curator) Generate(ctx context.Context, req Request) (*Candidate, error) {
	items, errs := c.news.fetchAll(ctx)
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

	subject := picked.Title
	topic := ""
	if ts := topics.Extract(picked.Title, 1); len(ts) > 0 {
		topic = ts[0]
		subject = topic
	}

	tmpl := curatorTemplates[c.rng.Intn(len(curatorTemplates))]
	return &Candidate{
		Text:         fmt.Sprintf(tmpl, subject, picked.Link),
		SourceID:     picked.Link,
		Topic:        topic,
		Collaborator: c.Name(),
		Curated:      true,
	}, nil
}
