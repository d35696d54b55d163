package collab

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SimonStenelid/X-team/internal/store"
)

// BackupItem is a pre-authored post held in reserve for days when every
// generated candidate fails validation.
type BackupItem struct {
	Text      string `yaml:"text"`
	MediaPath string `yaml:"media_path,omitempty"`
	Topic     string `yaml:"topic,omitempty"`
}

type backupFile struct {
	Content map[string][]BackupItem `yaml:"content"`
}

// Backup serves authored items from a yaml library, keyed by content type.
// It doubles as the regular collaborator for types with no live source
// (memes, images) and as the last-resort fallback for every type.
type Backup struct {
	items map[store.ContentType][]BackupItem
	rng   *rand.Rand
}

// LoadBackup reads the backup library. A missing file is not an error; it
// just yields an empty library that returns ErrNoContent.
func LoadBackup(path string, rng *rand.Rand) (*Backup, error) {
	b := &Backup{items: make(map[store.ContentType][]BackupItem), rng: rng}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return nil, fmt.Errorf("reading backup content: %w", err)
	}

	var f backupFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing backup content %s: %w", path, err)
	}
	for typeName, items := range f.Content {
		if !store.ValidType(typeName) {
			return nil, fmt.Errorf("backup content: unknown type %q", typeName)
		}
		b.items[store.ContentType(typeName)] = items
	}
	return b, nil
}

func (b *Backup) Name() string { return "backup" }

// Len reports how many items are available for a type.
func (b *Backup) Len(t store.ContentType) int { return len(b.items[t]) }

func (b *Backup) Generate(_ context.Context, req Request) (*Candidate, error) {
	pool := b.items[req.Type]
	if len(pool) == 0 {
		return nil, ErrNoContent
	}

	// Prefer items whose topic isn't on the avoid list; fall back to any.
	var usable []BackupItem
	for _, it := range pool {
		if it.Topic != "" && avoided(it.Topic, req.AvoidTopics) {
			continue
		}
		usable = append(usable, it)
	}
	if len(usable) == 0 {
		usable = pool
	}

	it := usable[b.rng.Intn(len(usable))]
	return &Candidate{
		Text:         it.Text,
		MediaPath:    it.MediaPath,
		Topic:        it.Topic,
		Collaborator: b.Name(),
	}, nil
}
