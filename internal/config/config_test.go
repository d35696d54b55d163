package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	if len(cfg.Windows) == 0 {
		t.Error("expected at least one default window")
	}
	if len(cfg.Weights) != 4 {
		t.Errorf("expected 4 default content types, got %d", len(cfg.Weights))
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestWeeklyQuota(t *testing.T) {
	cfg := &Config{Weights: map[string]float64{"news": 0.35, "meme": 0.20}}
	if q := cfg.WeeklyQuota("news"); q != 2.45 {
		t.Errorf("expected news quota 2.45, got %g", q)
	}
	if q := cfg.WeeklyQuota("image"); q != 0 {
		t.Errorf("expected zero quota for unknown type, got %g", q)
	}
}

func TestRetentionDuration(t *testing.T) {
	tests := []struct {
		input    string
		wantDays int
	}{
		{"30d", 30},
		{"7d", 7},
		{"720h", 30},
		{"", 30},        // default
		{"invalid", 30}, // fallback to default
	}
	for _, tt := range tests {
		cfg := &Config{History: HistoryConfig{Retention: tt.input}}
		got := cfg.RetentionDuration()
		wantHours := float64(tt.wantDays * 24)
		if got.Hours() != wantHours {
			t.Errorf("RetentionDuration(%q) = %v, want %dd", tt.input, got, tt.wantDays)
		}
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}

	cfg.Weights["news"] = 0.80 // sum now 1.45
	if err := Validate(cfg); err == nil {
		t.Error("expected error for weights not summing to 1")
	}

	cfg.Weights["news"] = -0.1
	if err := Validate(cfg); err == nil {
		t.Error("expected error for negative weight")
	}
}

func TestValidateRejectsBadWindows(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}

	cfg.Windows[0].StartHour = 12
	cfg.Windows[0].EndHour = 10
	if err := Validate(cfg); err == nil {
		t.Error("expected error for inverted hour range")
	}

	cfg.Windows[0].StartHour = 8
	cfg.Windows[0].Probability = 0.9 // probabilities no longer sum to 1
	if err := Validate(cfg); err == nil {
		t.Error("expected error for window probabilities not summing to 1")
	}
}

func TestValidateRejectsBadSource(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	cfg.Sources = append(cfg.Sources, Source{Name: "bad", URL: "ftp://example.com/feed"})
	if err := Validate(cfg); err == nil {
		t.Error("expected error for non-http source url")
	}
}

func TestLoadMissingFileWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Windows) == 0 {
		t.Error("expected defaults from missing file")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected defaults written to %s: %v", path, err)
	}
}

func TestTimeoutFallbacks(t *testing.T) {
	cfg := &Config{}
	if d := cfg.GenerateTimeout().Seconds(); d != 60 {
		t.Errorf("expected 60s default generate timeout, got %gs", d)
	}
	if d := cfg.PostTimeout().Seconds(); d != 30 {
		t.Errorf("expected 30s default post timeout, got %gs", d)
	}
}
