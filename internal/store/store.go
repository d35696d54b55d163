package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrStateCorrupt marks persisted state that cannot be read back. Callers
// must surface it loudly; the store never silently resets counters.
var ErrStateCorrupt = errors.New("orchestrator state corrupt")

// Store persists the orchestrator state and the post history. sqlite's file
// locking plus the single-connection write handle give at-most-one-writer
// across processes, and the lock dies with the process.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id            TEXT PRIMARY KEY,
			posted_at     DATETIME NOT NULL,
			type          TEXT NOT NULL,
			text          TEXT NOT NULL,
			text_hash     TEXT NOT NULL,
			embedding     TEXT NOT NULL DEFAULT '[]',
			topics        TEXT NOT NULL DEFAULT '[]',
			media_path    TEXT NOT NULL DEFAULT '',
			media_hash    TEXT NOT NULL DEFAULT '',
			collaborator  TEXT NOT NULL DEFAULT '',
			source_id     TEXT NOT NULL DEFAULT '',
			quality_score REAL NOT NULL DEFAULT 0,
			likes         INTEGER NOT NULL DEFAULT 0,
			reposts       INTEGER NOT NULL DEFAULT 0,
			views         INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_posts_posted_at ON posts(posted_at DESC);
		CREATE INDEX IF NOT EXISTS idx_posts_text_hash ON posts(text_hash);

		CREATE TABLE IF NOT EXISTS state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// state table keys
const (
	keyLastPostTime      = "last_post_time"
	keyHistory           = "history"
	keyWeekCounts        = "week_counts"
	keyRecentTopics      = "recent_topics"
	keyCuratedSourceIDs  = "curated_source_ids"
	keyNextPostScheduled = "next_post_scheduled"
	keyWeekStartDate     = "week_start_date"
)

// LoadState returns a snapshot of the orchestrator state. A fresh database
// yields an empty state anchored at today; unreadable stored values yield
// ErrStateCorrupt.
func (s *Store) LoadState(today string) (State, error) {
	rows, err := s.readDB.Query("SELECT key, value FROM state")
	if err != nil {
		return State{}, fmt.Errorf("querying state: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return State{}, fmt.Errorf("scanning state: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("reading state: %w", err)
	}

	if len(values) == 0 {
		return NewState(today), nil
	}

	st := NewState(today)
	if v, ok := values[keyWeekStartDate]; ok {
		st.WeekStartDate = v
	}
	if v, ok := values[keyLastPostTime]; ok && v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return State{}, fmt.Errorf("%w: last_post_time %q: %v", ErrStateCorrupt, v, err)
		}
		st.LastPostTime = t
	}
	if v, ok := values[keyNextPostScheduled]; ok && v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return State{}, fmt.Errorf("%w: next_post_scheduled %q: %v", ErrStateCorrupt, v, err)
		}
		st.NextPostScheduled = t
	}
	if err := decodeStateJSON(values, keyHistory, &st.History); err != nil {
		return State{}, err
	}
	if err := decodeStateJSON(values, keyWeekCounts, &st.WeekCounts); err != nil {
		return State{}, err
	}
	if err := decodeStateJSON(values, keyRecentTopics, &st.RecentTopics); err != nil {
		return State{}, err
	}
	if err := decodeStateJSON(values, keyCuratedSourceIDs, &st.CuratedSourceIDs); err != nil {
		return State{}, err
	}

	for _, e := range st.History {
		if !ValidType(string(e.Type)) {
			return State{}, fmt.Errorf("%w: history entry with unknown type %q", ErrStateCorrupt, e.Type)
		}
	}
	return st, nil
}

func decodeStateJSON(values map[string]string, key string, dst any) error {
	v, ok := values[key]
	if !ok || v == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStateCorrupt, key, err)
	}
	return nil
}

// CommitRun applies a run's delta atomically: the replacement state, the new
// post record if any, and retention pruning. Nothing is visible to readers
// until the transaction commits.
func (s *Store) CommitRun(delta RunDelta) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := writeState(tx, delta.State); err != nil {
		return err
	}

	if p := delta.Post; p != nil {
		embedding, err := json.Marshal(p.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}
		topics, err := json.Marshal(p.Topics)
		if err != nil {
			return fmt.Errorf("encoding topics: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO posts (id, posted_at, type, text, text_hash, embedding, topics,
				media_path, media_hash, collaborator, source_id, quality_score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.PostedAt, string(p.Type), p.Text, p.TextHash, string(embedding), string(topics),
			p.MediaPath, p.MediaHash, p.Collaborator, p.SourceID, p.QualityScore)
		if err != nil {
			return fmt.Errorf("inserting post %s: %w", p.ID, err)
		}
	}

	if !delta.PruneBefore.IsZero() {
		if _, err := tx.Exec("DELETE FROM posts WHERE posted_at < ?", delta.PruneBefore); err != nil {
			return fmt.Errorf("pruning posts: %w", err)
		}
	}

	return tx.Commit()
}

func writeState(tx *sql.Tx, st State) error {
	stmt, err := tx.Prepare(`
		INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	history, err := json.Marshal(st.History)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	counts, err := json.Marshal(st.WeekCounts)
	if err != nil {
		return fmt.Errorf("encoding week_counts: %w", err)
	}
	topics, err := json.Marshal(st.RecentTopics)
	if err != nil {
		return fmt.Errorf("encoding recent_topics: %w", err)
	}
	curated, err := json.Marshal(st.CuratedSourceIDs)
	if err != nil {
		return fmt.Errorf("encoding curated_source_ids: %w", err)
	}

	pairs := []struct{ key, value string }{
		{keyLastPostTime, formatTime(st.LastPostTime)},
		{keyHistory, string(history)},
		{keyWeekCounts, string(counts)},
		{keyRecentTopics, string(topics)},
		{keyCuratedSourceIDs, string(curated)},
		{keyNextPostScheduled, formatTime(st.NextPostScheduled)},
		{keyWeekStartDate, st.WeekStartDate},
	}
	for _, p := range pairs {
		if _, err := stmt.Exec(p.key, p.value); err != nil {
			return fmt.Errorf("writing state key %s: %w", p.key, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// RecentPosts returns posts published at or after since, newest first.
func (s *Store) RecentPosts(since time.Time) ([]PostRecord, error) {
	rows, err := s.readDB.Query(`
		SELECT id, posted_at, type, text, text_hash, embedding, topics,
			media_path, media_hash, collaborator, source_id, quality_score,
			likes, reposts, views
		FROM posts WHERE posted_at >= ? ORDER BY posted_at DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

// Posts returns the most recent posts up to limit, newest first.
func (s *Store) Posts(limit int) ([]PostRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.readDB.Query(`
		SELECT id, posted_at, type, text, text_hash, embedding, topics,
			media_path, media_hash, collaborator, source_id, quality_score,
			likes, reposts, views
		FROM posts ORDER BY posted_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func scanPosts(rows *sql.Rows) ([]PostRecord, error) {
	var posts []PostRecord
	for rows.Next() {
		var (
			p                    PostRecord
			typ, embedding, tops string
		)
		if err := rows.Scan(&p.ID, &p.PostedAt, &typ, &p.Text, &p.TextHash, &embedding, &tops,
			&p.MediaPath, &p.MediaHash, &p.Collaborator, &p.SourceID, &p.QualityScore,
			&p.Likes, &p.Reposts, &p.Views); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		p.Type = ContentType(typ)
		if err := json.Unmarshal([]byte(embedding), &p.Embedding); err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(tops), &p.Topics); err != nil {
			return nil, fmt.Errorf("decoding topics for %s: %w", p.ID, err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// UpdateEngagement sets the engagement counters for a post. Counters are the
// only mutable part of a PostRecord.
func (s *Store) UpdateEngagement(postID string, likes, reposts, views int) error {
	res, err := s.writeDB.Exec(`
		UPDATE posts SET likes = ?, reposts = ?, views = ? WHERE id = ?
	`, likes, reposts, views, postID)
	if err != nil {
		return fmt.Errorf("updating engagement for %s: %w", postID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no post with id %s", postID)
	}
	return nil
}

// Prune removes posts older than the retention window. Returns rows deleted.
func (s *Store) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res, err := s.writeDB.Exec("DELETE FROM posts WHERE posted_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Stats returns the post count and database file size.
func (s *Store) Stats(dbPath string) (count int, size int64, err error) {
	if err := s.readDB.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count); err != nil {
		return 0, 0, err
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, err
	}
	return count, info.Size(), nil
}
