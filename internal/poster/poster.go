package poster

import "context"

// Result identifies a published post on the target platform.
type Result struct {
	PostID string
	URL    string
}

// Poster publishes an accepted candidate. Implementations must be safe to
// call once per run; the engine never retries a failed Post in the same run.
type Poster interface {
	Name() string
	Post(ctx context.Context, text, mediaPath string) (*Result, error)
}
