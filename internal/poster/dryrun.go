package poster

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// DryRun is a poster that publishes nowhere. It hands back a synthetic post
// id so the rest of the run, including persistence, behaves exactly like a
// real publish.
type DryRun struct {
	// Out receives the would-be post for display; nil discards it.
	Out func(text, mediaPath string)
}

func (d *DryRun) Name() string { return "dry-run" }

func (d *DryRun) Post(_ context.Context, text, mediaPath string) (*Result, error) {
	if d.Out != nil {
		d.Out(text, mediaPath)
	}
	id := uuid.NewString()
	return &Result{
		PostID: "dryrun:" + id,
		URL:    fmt.Sprintf("file:///dev/null#%s", id),
	}, nil
}
