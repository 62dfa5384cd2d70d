package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHelpProbability(t *testing.T) {
	coop := Default().Cooperation
	cases := []struct {
		inclination float64
		want        float64
	}{
		{inclination: 0.95, want: 0.97},
		{inclination: 0.9, want: 0.97},
		{inclination: 0.8, want: 0.85},
		{inclination: 0.65, want: 0.7},
		{inclination: 0.5, want: 0.55},
		{inclination: 0.2, want: 0.35},
	}
	for _, tc := range cases {
		if got := coop.HelpProbability(tc.inclination); got != tc.want {
			t.Errorf("HelpProbability(%.2f) = %.2f, want %.2f", tc.inclination, got, tc.want)
		}
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	doc := "social:\n  chat_probability: 0.9\nseed: 7\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Social.ChatProbability != 0.9 {
		t.Errorf("chat probability = %v, want 0.9", got.Social.ChatProbability)
	}
	if got.Seed != 7 {
		t.Errorf("seed = %d", got.Seed)
	}
	// Untouched sections keep their defaults.
	if got.Phases.RecoveryMinutes != 60 {
		t.Errorf("recovery minutes = %d, want default 60", got.Phases.RecoveryMinutes)
	}
	if got.Damage.InjuredBelow != 60 {
		t.Errorf("injured threshold = %d, want default 60", got.Damage.InjuredBelow)
	}
}

func TestLoadMissingPath(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if got.TickPacingMillis != 100 {
		t.Errorf("tick pacing = %d", got.TickPacingMillis)
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()
	if cfg.MotionInterval() != 150*time.Millisecond {
		t.Errorf("MotionInterval = %v", cfg.MotionInterval())
	}
	if cfg.TickPacing() != 100*time.Millisecond {
		t.Errorf("TickPacing = %v", cfg.TickPacing())
	}
	if cfg.LLMTimeout() != 300*time.Second {
		t.Errorf("LLMTimeout = %v", cfg.LLMTimeout())
	}
}
