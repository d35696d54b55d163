package engine

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/SimonStenelid/X-team/internal/collab"
	"github.com/SimonStenelid/X-team/internal/config"
	"github.com/SimonStenelid/X-team/internal/dedupe"
	"github.com/SimonStenelid/X-team/internal/embed"
	"github.com/SimonStenelid/X-team/internal/poster"
	"github.com/SimonStenelid/X-team/internal/quality"
	"github.com/SimonStenelid/X-team/internal/schedule"
	"github.com/SimonStenelid/X-team/internal/selector"
	"github.com/SimonStenelid/X-team/internal/store"
	"github.com/SimonStenelid/X-team/internal/topics"
)

const (
	dateLayout = "2006-01-02"
	historyCap = 30
	weekLength = 7 * 24 * time.Hour
)

// Run failure classes. The run outcome wraps one of these so callers can
// distinguish a collaborator that produced nothing from a transport that
// refused a finished post.
var (
	ErrCollaborator = errors.New("collaborator failure")
	ErrValidation   = errors.New("validation failure")
	ErrDuplicate    = errors.New("duplicate candidate")
	ErrTransport    = errors.New("transport failure")
)

// Result is the terminal outcome class of a run.
type Result string

const (
	ResultNoop    Result = "noop"
	ResultPosted  Result = "posted"
	ResultAborted Result = "aborted"
)

// Outcome summarizes one invocation of the decision loop.
type Outcome struct {
	Result   Result
	Type     store.ContentType
	PostID   string
	URL      string
	Reason   string
	Err      error // cause when Result is aborted
	Attempts int
	NextPost time.Time
}

// Options wires the engine's dependencies. Collaborators handle the primary
// generation path; Backup is the fallback when regeneration is exhausted.
type Options struct {
	Config        *config.Config
	Store         *store.Store
	Collaborators *collab.Registry
	Backup        *collab.Backup
	Poster        poster.Poster
	Embedder      embed.Embedder
	Scorer        quality.Scorer
	Rand          *rand.Rand
	Logger        *slog.Logger

	// Force skips the due check. The rest of the pipeline runs unchanged.
	Force bool
}

// Engine drives one posting decision per Run call: due check, type
// selection, candidate generation, quality gate, duplicate check, publish,
// and a single-transaction state commit.
type Engine struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{opts: opts, log: log}
}

// Run executes the decision loop once. A returned error means the run could
// not complete at all (corrupt state, failed commit); business-level failures
// surface as an aborted Outcome with Err set.
func (e *Engine) Run(ctx context.Context, now time.Time) (Outcome, error) {
	cfg := e.opts.Config
	today := now.In(cfg.Location()).Format(dateLayout)

	st, err := e.opts.Store.LoadState(today)
	if err != nil {
		return Outcome{}, err
	}

	st, reset, err := applyWeeklyReset(st, now, today)
	if err != nil {
		return Outcome{}, err
	}
	if reset {
		e.log.Info("weekly counters reset", "week_start", today)
	}

	if !e.opts.Force && !schedule.IsDue(st.NextPostScheduled, now) {
		// Persist a reset even on a non-posting run; otherwise a not-due
		// run writes nothing at all.
		if reset {
			if err := e.opts.Store.CommitRun(store.RunDelta{State: st}); err != nil {
				return Outcome{}, fmt.Errorf("committing weekly reset: %w", err)
			}
		}
		e.log.Info("not due", "next", st.NextPostScheduled)
		return Outcome{
			Result:   ResultNoop,
			Reason:   "next post not due yet",
			NextPost: st.NextPostScheduled,
		}, nil
	}

	chosen := selector.Select(st, cfg, now, e.opts.Rand)
	e.log.Info("content type selected", "type", chosen)

	recent, err := e.opts.Store.RecentPosts(now.Add(-cfg.RetentionDuration()))
	if err != nil {
		return Outcome{}, fmt.Errorf("loading recent posts: %w", err)
	}

	accepted, attempts, cause := e.findCandidate(ctx, chosen, st, recent, now)
	if accepted == nil {
		return e.abort(st, reset, chosen, attempts, cause)
	}

	postCtx, cancel := context.WithTimeout(ctx, cfg.PostTimeout())
	res, err := e.opts.Poster.Post(postCtx, accepted.text, accepted.mediaPath)
	cancel()
	if err != nil {
		return e.abort(st, reset, chosen, attempts, fmt.Errorf("%w: %v", ErrTransport, err))
	}
	e.log.Info("published", "post_id", res.PostID, "type", chosen, "collaborator", accepted.collaborator)

	record := store.PostRecord{
		ID:           res.PostID,
		PostedAt:     now,
		Type:         chosen,
		Text:         accepted.text,
		TextHash:     accepted.textHash,
		Embedding:    accepted.embedding,
		Topics:       accepted.topics,
		MediaPath:    accepted.mediaPath,
		MediaHash:    accepted.mediaHash,
		Collaborator: accepted.collaborator,
		SourceID:     accepted.sourceID,
		QualityScore: accepted.score,
	}

	next := schedule.Next(now, cfg, e.opts.Rand, st.NextPostScheduled)
	st = advanceState(st, cfg, record, accepted.curated, today, next)

	delta := store.RunDelta{
		State:       st,
		Post:        &record,
		PruneBefore: now.Add(-cfg.RetentionDuration()),
	}
	if err := e.opts.Store.CommitRun(delta); err != nil {
		return Outcome{}, fmt.Errorf("committing run: %w", err)
	}

	return Outcome{
		Result:   ResultPosted,
		Type:     chosen,
		PostID:   res.PostID,
		URL:      res.URL,
		Attempts: attempts,
		NextPost: next,
	}, nil
}

// candidate is an accepted draft with all fingerprints computed.
type candidate struct {
	text         string
	textHash     string
	mediaPath    string
	mediaHash    string
	embedding    []float64
	topics       []string
	sourceID     string
	collaborator string
	score        float64
	curated      bool
}

// findCandidate runs the generate -> quality gate -> duplicate check loop.
// Regeneration is capped; after the cap the backup library gets exactly one
// shot, and a failing backup ends the run.
func (e *Engine) findCandidate(ctx context.Context, chosen store.ContentType, st store.State, recent []store.PostRecord, now time.Time) (*candidate, int, error) {
	cfg := e.opts.Config

	gen, err := e.opts.Collaborators.For(chosen)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrCollaborator, err)
	}

	req := collab.Request{
		Type:         chosen,
		AvoidTopics:  st.RecentTopics,
		AvoidSources: st.CuratedSourceIDs,
	}
	params := dedupe.Params{
		SimilarityThreshold:   cfg.Dedupe.SimilarityThreshold,
		TopicOverlapThreshold: cfg.Dedupe.TopicOverlapThreshold,
	}

	attempts := 0
	onBackup := false
	var lastCause error

	for {
		genCtx, cancel := context.WithTimeout(ctx, cfg.GenerateTimeout())
		draft, err := gen.Generate(genCtx, req)
		cancel()

		if err != nil {
			lastCause = fmt.Errorf("%w: %s: %v", ErrCollaborator, gen.Name(), err)
		} else {
			c, cause := e.vet(ctx, draft, recent, st.CuratedSourceIDs, now, params)
			if c != nil {
				return c, attempts, nil
			}
			lastCause = cause
			// A backup that duplicates history ends the run; there is
			// nothing left to fall back to.
			if onBackup && errors.Is(cause, ErrDuplicate) {
				return nil, attempts, cause
			}
		}

		attempts++
		if attempts <= cfg.Engine.MaxRegenerationAttempts {
			e.log.Warn("regenerating", "attempt", attempts, "cause", lastCause)
			continue
		}
		if !onBackup && e.opts.Backup != nil {
			e.log.Warn("falling back to backup content", "cause", lastCause)
			gen = e.opts.Backup
			onBackup = true
			continue
		}
		return nil, attempts, lastCause
	}
}

// vet applies the quality gate and the duplicate detector to one draft.
func (e *Engine) vet(ctx context.Context, draft *collab.Candidate, recent []store.PostRecord, curatedIDs []string, now time.Time, params dedupe.Params) (*candidate, error) {
	cfg := e.opts.Config

	qr := quality.Validate(quality.Input{Text: draft.Text, MediaPath: draft.MediaPath}, cfg.Quality, e.opts.Scorer)
	if !qr.Accepted {
		e.log.Info("candidate rejected by quality gate", "violations", qr.Reasons(), "score", qr.Score)
		return nil, fmt.Errorf("%w: %s", ErrValidation, qr.Reasons())
	}

	tops := topics.Extract(draft.Text, 3)
	if draft.Topic != "" && !contains(tops, draft.Topic) {
		tops = append([]string{draft.Topic}, tops...)
	}

	var embedding []float64
	if e.opts.Embedder != nil {
		vec, err := e.opts.Embedder.Embed(ctx, draft.Text)
		if err != nil {
			// Semantic dedupe degrades to the other two layers.
			e.log.Warn("embedding failed, skipping semantic check", "err", err)
		} else {
			embedding = vec
		}
	}

	mediaHash := ""
	if draft.MediaPath != "" {
		h, err := hashFile(draft.MediaPath)
		if err != nil {
			return nil, fmt.Errorf("%w: hashing media: %v", ErrValidation, err)
		}
		mediaHash = h
	}

	dr := dedupe.Check(dedupe.Candidate{
		Text:      draft.Text,
		MediaHash: mediaHash,
		Embedding: embedding,
		Topics:    tops,
		SourceID:  draft.SourceID,
		Curated:   draft.Curated,
	}, recent, curatedIDs, now, params)
	if dr.Duplicate {
		e.log.Info("candidate rejected as duplicate", "layer", dr.Layer, "evidence", dr.Evidence)
		return nil, fmt.Errorf("%w: %s: %s", ErrDuplicate, dr.Layer, dr.Evidence)
	}

	return &candidate{
		text:         draft.Text,
		textHash:     dedupe.Fingerprint(draft.Text),
		mediaPath:    draft.MediaPath,
		mediaHash:    mediaHash,
		embedding:    embedding,
		topics:       tops,
		sourceID:     draft.SourceID,
		collaborator: draft.Collaborator,
		score:        qr.Score,
		curated:      draft.Curated,
	}, nil
}

// abort ends the run without a post. A pending weekly reset is still
// committed; everything else stays untouched.
func (e *Engine) abort(st store.State, reset bool, chosen store.ContentType, attempts int, cause error) (Outcome, error) {
	if reset {
		if err := e.opts.Store.CommitRun(store.RunDelta{State: st}); err != nil {
			return Outcome{}, fmt.Errorf("committing weekly reset: %w", err)
		}
	}
	e.log.Error("run aborted", "type", chosen, "attempts", attempts, "cause", cause)
	return Outcome{
		Result:   ResultAborted,
		Type:     chosen,
		Reason:   cause.Error(),
		Err:      cause,
		Attempts: attempts,
		NextPost: st.NextPostScheduled,
	}, nil
}

// applyWeeklyReset zeroes the quota counters when the week anchor is seven
// or more days old.
func applyWeeklyReset(st store.State, now time.Time, today string) (store.State, bool, error) {
	if st.WeekStartDate == "" {
		st.WeekStartDate = today
		return st, false, nil
	}
	start, err := time.Parse(dateLayout, st.WeekStartDate)
	if err != nil {
		return st, false, fmt.Errorf("%w: week_start_date %q: %v", store.ErrStateCorrupt, st.WeekStartDate, err)
	}
	if now.Sub(start) < weekLength {
		return st, false, nil
	}

	st = st.Clone()
	for _, t := range store.AllTypes() {
		st.WeekCounts[t] = 0
	}
	st.WeekStartDate = today
	return st, true, nil
}

// advanceState folds a published post into the state snapshot.
func advanceState(st store.State, cfg *config.Config, rec store.PostRecord, curated bool, today string, next time.Time) store.State {
	st = st.Clone()

	st.LastPostTime = rec.PostedAt
	st.NextPostScheduled = next
	st.WeekCounts[rec.Type]++

	st.History = append(st.History, store.HistoryEntry{Type: rec.Type, Date: today})
	if len(st.History) > historyCap {
		st.History = st.History[len(st.History)-historyCap:]
	}

	for _, t := range rec.Topics {
		if !contains(st.RecentTopics, t) {
			st.RecentTopics = append(st.RecentTopics, t)
		}
	}
	if limit := cfg.RecentTopicsCap(); len(st.RecentTopics) > limit {
		st.RecentTopics = st.RecentTopics[len(st.RecentTopics)-limit:]
	}

	if curated && rec.SourceID != "" {
		if !contains(st.CuratedSourceIDs, rec.SourceID) {
			st.CuratedSourceIDs = append(st.CuratedSourceIDs, rec.SourceID)
		}
		if limit := cfg.CuratedIDsCap(); len(st.CuratedSourceIDs) > limit {
			st.CuratedSourceIDs = st.CuratedSourceIDs[len(st.CuratedSourceIDs)-limit:]
		}
	}
	return st
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
