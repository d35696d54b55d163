package config

import (
	"embed"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Window is a named time-of-day interval with a selection probability.
type Window struct {
	Name        string  `yaml:"name"`
	StartHour   int     `yaml:"start_hour"`
	EndHour     int     `yaml:"end_hour"`
	Probability float64 `yaml:"probability"`
}

type Source struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type SelectorConfig struct {
	RecencyPenalty    float64 `yaml:"recency_penalty"`
	MaxSameTypeStreak int     `yaml:"max_same_type_streak"`
	UnderuseDays      int     `yaml:"underuse_days"`
	UnderuseBoost     float64 `yaml:"underuse_boost"`
	QuotaDamping      float64 `yaml:"quota_damping"`
}

type QualityConfig struct {
	MinScore      float64 `yaml:"min_score"`
	MaxTextLength int     `yaml:"max_text_length"`
	MaxMediaMB    int     `yaml:"max_media_mb"`
}

type DedupeConfig struct {
	SimilarityThreshold   float64 `yaml:"similarity_threshold"`
	TopicOverlapThreshold float64 `yaml:"topic_overlap_threshold"`
}

type HistoryConfig struct {
	Retention    string `yaml:"retention"`
	RecentTopics int    `yaml:"recent_topics"`
	CuratedIDs   int    `yaml:"curated_ids"`
}

type EngineConfig struct {
	MaxRegenerationAttempts int    `yaml:"max_regeneration_attempts"`
	GenerateTimeout         string `yaml:"generate_timeout"`
	PostTimeout             string `yaml:"post_timeout"`
}

type EmbedderConfig struct {
	Provider string `yaml:"provider"` // "local" or "openai"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key,omitempty"`
}

type Config struct {
	Timezone      string             `yaml:"timezone"`
	Windows       []Window           `yaml:"windows"`
	JitterMinutes int                `yaml:"jitter_minutes"`
	Weights       map[string]float64 `yaml:"weights"`
	Selector      SelectorConfig     `yaml:"selector"`
	Quality       QualityConfig      `yaml:"quality"`
	Dedupe        DedupeConfig       `yaml:"dedupe"`
	History       HistoryConfig      `yaml:"history"`
	Engine        EngineConfig       `yaml:"engine"`
	Embedder      EmbedderConfig     `yaml:"embedder"`
	Sources       []Source           `yaml:"sources"`
	BackupContent string             `yaml:"backup_content,omitempty"`
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EmbedderKey returns the resolved embeddings API key (config or env var).
func (c *Config) EmbedderKey() string {
	if c.Embedder.APIKey != "" {
		return c.Embedder.APIKey
	}
	return os.Getenv("XTEAM_OPENAI_KEY")
}

// RetentionDuration returns the post history retention window.
func (c *Config) RetentionDuration() time.Duration {
	return parseDays(c.History.Retention, 30*24*time.Hour)
}

func (c *Config) GenerateTimeout() time.Duration {
	d, err := time.ParseDuration(c.Engine.GenerateTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

func (c *Config) PostTimeout() time.Duration {
	d, err := time.ParseDuration(c.Engine.PostTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// WeeklyQuota returns the proportional weekly target for a content type,
// derived from its base weight (weight x 7 days).
func (c *Config) WeeklyQuota(contentType string) float64 {
	return c.Weights[contentType] * 7
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// RecentTopicsCap returns the recent-topics list bound, defaulting to 10.
func (c *Config) RecentTopicsCap() int {
	if c.History.RecentTopics <= 0 {
		return 10
	}
	return c.History.RecentTopics
}

// CuratedIDsCap returns the curated-source-id list bound, defaulting to 50.
func (c *Config) CuratedIDsCap() int {
	if c.History.CuratedIDs <= 0 {
		return 50
	}
	return c.History.CuratedIDs
}

func parseDays(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	// Support "Nd" day syntax
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "xteam", "config.yaml")
}

func StatePath() string {
	return filepath.Join(xdg.StateHome, "xteam", "xteam.db")
}

func BackupContentPath() string {
	return filepath.Join(xdg.ConfigHome, "xteam", "backup_content.yaml")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

// Validate checks invariants the decision engine depends on: positive base
// weights summing to 1, window probabilities summing to 1, and sane hours.
func Validate(cfg *Config) error {
	if len(cfg.Weights) == 0 {
		return fmt.Errorf("weights: at least one content type is required")
	}
	var weightSum float64
	for name, w := range cfg.Weights {
		if w <= 0 {
			return fmt.Errorf("weights: %q must be positive, got %g", name, w)
		}
		weightSum += w
	}
	if math.Abs(weightSum-1.0) > 0.01 {
		return fmt.Errorf("weights: must sum to 1.0, got %g", weightSum)
	}

	if len(cfg.Windows) == 0 {
		return fmt.Errorf("windows: at least one posting window is required")
	}
	var probSum float64
	for _, w := range cfg.Windows {
		if w.Name == "" {
			return fmt.Errorf("windows: name is required")
		}
		if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
			return fmt.Errorf("window %q: invalid hour range %d-%d", w.Name, w.StartHour, w.EndHour)
		}
		if w.Probability < 0 {
			return fmt.Errorf("window %q: probability must not be negative", w.Name)
		}
		probSum += w.Probability
	}
	if math.Abs(probSum-1.0) > 0.01 {
		return fmt.Errorf("windows: probabilities must sum to 1.0, got %g", probSum)
	}

	if cfg.JitterMinutes < 0 {
		return fmt.Errorf("jitter_minutes must not be negative")
	}
	if cfg.Quality.MinScore < 0 || cfg.Quality.MinScore > 10 {
		return fmt.Errorf("quality.min_score must be in 0-10, got %g", cfg.Quality.MinScore)
	}
	if t := cfg.Dedupe.SimilarityThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("dedupe.similarity_threshold must be in (0,1], got %g", t)
	}
	if cfg.Engine.MaxRegenerationAttempts < 0 {
		return fmt.Errorf("engine.max_regeneration_attempts must not be negative")
	}

	for _, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source: name is required")
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
	}
	return nil
}
