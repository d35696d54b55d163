package collab

import (
	"context"
	"errors"
	"fmt"

	"github.com/SimonStenelid/X-team/internal/store"
)

// ErrNoContent means a collaborator had nothing usable to offer for the
// request. The engine treats it like any other generation failure.
var ErrNoContent = errors.New("no content available")

// Request tells a collaborator what to produce and what to steer around.
// AvoidTopics and AvoidSources come from recent posting history so fresh
// candidates don't rehash what just went out.
type Request struct {
	Type         store.ContentType
	AvoidTopics  []string
	AvoidSources []string
	StyleHints   []string
}

// Candidate is a not-yet-validated draft post.
type Candidate struct {
	Text         string
	MediaPath    string
	SourceID     string
	Topic        string
	Collaborator string
	Curated      bool
}

// Collaborator produces draft content for one or more content types. External
// agents (LLM pipelines, human queues) plug in behind this interface; the
// reference implementations in this package are RSS and file backed.
type Collaborator interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Candidate, error)
}

// Registry routes a content type to its collaborator.
type Registry struct {
	byType map[store.ContentType]Collaborator
}

func NewRegistry() *Registry {
	return &Registry{byType: make(map[store.ContentType]Collaborator)}
}

func (r *Registry) Register(t store.ContentType, c Collaborator) {
	r.byType[t] = c
}

func (r *Registry) For(t store.ContentType) (Collaborator, error) {
	c, ok := r.byType[t]
	if !ok {
		return nil, fmt.Errorf("no collaborator registered for type %q", t)
	}
	return c, nil
}

func avoided(value string, avoid []string) bool {
	for _, a := range avoid {
		if a == value {
			return true
		}
	}
	return false
}
