package store

import "time"

// ContentType is one of the fixed post categories.
type ContentType string

const (
	TypeNews    ContentType = "news"
	TypeCurator ContentType = "curator"
	TypeMeme    ContentType = "meme"
	TypeImage   ContentType = "image"
)

// AllTypes returns the content types in canonical order.
func AllTypes() []ContentType {
	return []ContentType{TypeNews, TypeCurator, TypeMeme, TypeImage}
}

// ValidType reports whether s names a known content type.
func ValidType(s string) bool {
	for _, t := range AllTypes() {
		if string(t) == s {
			return true
		}
	}
	return false
}

// PostRecord is one published (or backup-used) item. Immutable after commit
// except the engagement counters, which are updated out-of-band.
type PostRecord struct {
	ID           string
	PostedAt     time.Time
	Type         ContentType
	Text         string
	TextHash     string
	Embedding    []float64
	Topics       []string
	MediaPath    string
	MediaHash    string
	Collaborator string
	SourceID     string
	QualityScore float64
	Likes        int
	Reposts      int
	Views        int
}

// HistoryEntry records that a post of the given type went out on a given day.
type HistoryEntry struct {
	Type ContentType `json:"type"`
	Date string      `json:"date"` // YYYY-MM-DD in the configured timezone
}

// State is the orchestrator's persisted state. The store owns it exclusively:
// the engine receives a snapshot and hands back a RunDelta, never writing
// fields in place between loads.
type State struct {
	LastPostTime      time.Time
	History           []HistoryEntry
	WeekCounts        map[ContentType]int
	RecentTopics      []string
	CuratedSourceIDs  []string
	NextPostScheduled time.Time
	WeekStartDate     string // YYYY-MM-DD anchor for weekly quota resets
}

// NewState returns an empty state anchored at the given day.
func NewState(weekStart string) State {
	counts := make(map[ContentType]int, len(AllTypes()))
	for _, t := range AllTypes() {
		counts[t] = 0
	}
	return State{
		WeekCounts:    counts,
		WeekStartDate: weekStart,
	}
}

// Clone returns a deep copy, so transforms can build a new state without
// touching the loaded snapshot.
func (s State) Clone() State {
	out := s
	out.History = append([]HistoryEntry(nil), s.History...)
	out.RecentTopics = append([]string(nil), s.RecentTopics...)
	out.CuratedSourceIDs = append([]string(nil), s.CuratedSourceIDs...)
	out.WeekCounts = make(map[ContentType]int, len(s.WeekCounts))
	for k, v := range s.WeekCounts {
		out.WeekCounts[k] = v
	}
	return out
}

// RunDelta is everything a run wants persisted: the full replacement state
// and, when a post went out, the new record. Applied in one transaction.
type RunDelta struct {
	State       State
	Post        *PostRecord
	PruneBefore time.Time // zero means no pruning this run
}
