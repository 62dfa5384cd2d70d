// Package config holds the tunable constants of the simulation. Every number
// that shapes agent behavior (damage rolls, cooperation odds, chat gating,
// phase durations) lives here so experiments can override them from a YAML
// file instead of recompiling.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LLM configures the text-generation endpoint.
type LLM struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	LogCapacity    int    `yaml:"log_capacity"`
}

// Damage configures earthquake damage rolls.
type Damage struct {
	// Building integrity loss: intensity*Base + intensity*Vulnerability*(100-integrity)/100 + U(-Jitter, Jitter).
	BuildingBase          float64 `yaml:"building_base"`
	BuildingVulnerability float64 `yaml:"building_vulnerability"`
	BuildingJitter        float64 `yaml:"building_jitter"`

	// Agent damage at quake onset.
	SevereIntegrityBelow float64 `yaml:"severe_integrity_below"`
	SevereMinFactor      float64 `yaml:"severe_min_factor"`
	SevereMaxFactor      float64 `yaml:"severe_max_factor"`
	IndoorChanceFactor   float64 `yaml:"indoor_chance_factor"`
	IndoorMaxFactor      float64 `yaml:"indoor_max_factor"`
	OutdoorChanceFactor  float64 `yaml:"outdoor_chance_factor"`
	OutdoorMaxFactor     float64 `yaml:"outdoor_max_factor"`

	// Minor ongoing damage per earthquake step.
	StepChanceFactor float64 `yaml:"step_chance_factor"`
	StepMax          int     `yaml:"step_max"`

	InjuredBelow int `yaml:"injured_below"`
}

// CoopTier maps a cooperation inclination floor to a help probability.
type CoopTier struct {
	Inclination float64 `yaml:"inclination"`
	Probability float64 `yaml:"probability"`
}

// Cooperation configures helping behavior during disasters.
type Cooperation struct {
	Tiers             []CoopTier `yaml:"tiers"`
	BaseProbability   float64    `yaml:"base_probability"`
	UnsafeAbandonMult float64    `yaml:"unsafe_abandon_mult"`
	HealMin           int        `yaml:"heal_min"`
	HealMax           int        `yaml:"heal_max"`
	SupportMin        int        `yaml:"support_min"`
	SupportMax        int        `yaml:"support_max"`
}

// Social configures chats and monologues.
type Social struct {
	ChatProbability      float64 `yaml:"chat_probability"`
	MonologueProbability float64 `yaml:"monologue_probability"`
	MemoryTailChars      int     `yaml:"memory_tail_chars"`
}

// Phases configures the disaster state machine timings.
type Phases struct {
	RecoveryMinutes     int `yaml:"recovery_minutes"`
	DiscussionHours     int `yaml:"discussion_hours"`
	RecoveryStepMinutes int `yaml:"recovery_step_minutes"`
	ConflictCooldownMin int `yaml:"conflict_cooldown_min"`
	ConflictCooldownMax int `yaml:"conflict_cooldown_max"`
}

// Motion configures the micro-motion loop.
type Motion struct {
	IntervalMillis int     `yaml:"interval_millis"`
	WanderRadius   float64 `yaml:"wander_radius"`
}

// Tuning is the full tunable surface of the engine.
type Tuning struct {
	LLM         LLM         `yaml:"llm"`
	Damage      Damage      `yaml:"damage"`
	Cooperation Cooperation `yaml:"cooperation"`
	Social      Social      `yaml:"social"`
	Phases      Phases      `yaml:"phases"`
	Motion      Motion      `yaml:"motion"`

	TickPacingMillis int   `yaml:"tick_pacing_millis"`
	Seed             int64 `yaml:"seed"`
}

// Default returns the built-in tuning values.
func Default() *Tuning {
	return &Tuning{
		LLM: LLM{
			Endpoint:       "http://127.0.0.1:11434/api",
			Model:          "deepseek-r1:14b",
			TimeoutSeconds: 300,
			LogCapacity:    400,
		},
		Damage: Damage{
			BuildingBase:          20,
			BuildingVulnerability: 30,
			BuildingJitter:        5,
			SevereIntegrityBelow:  50,
			SevereMinFactor:       25,
			SevereMaxFactor:       55,
			IndoorChanceFactor:    0.5,
			IndoorMaxFactor:       30,
			OutdoorChanceFactor:   0.25,
			OutdoorMaxFactor:      15,
			StepChanceFactor:      0.1,
			StepMax:               5,
			InjuredBelow:          60,
		},
		Cooperation: Cooperation{
			Tiers: []CoopTier{
				{Inclination: 0.9, Probability: 0.97},
				{Inclination: 0.75, Probability: 0.85},
				{Inclination: 0.6, Probability: 0.7},
				{Inclination: 0.45, Probability: 0.55},
			},
			BaseProbability:   0.35,
			UnsafeAbandonMult: 0.5,
			HealMin:           6,
			HealMax:           20,
			SupportMin:        4,
			SupportMax:        10,
		},
		Social: Social{
			ChatProbability:      0.6,
			MonologueProbability: 0.3,
			MemoryTailChars:      300,
		},
		Phases: Phases{
			RecoveryMinutes:     60,
			DiscussionHours:     6,
			RecoveryStepMinutes: 10,
			ConflictCooldownMin: 5,
			ConflictCooldownMax: 8,
		},
		Motion: Motion{
			IntervalMillis: 150,
			WanderRadius:   3.5,
		},
		TickPacingMillis: 100,
	}
}

// Load reads a YAML tuning file over the defaults. A missing path returns the
// defaults unchanged.
func Load(path string) (*Tuning, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(b, t); err != nil {
		return nil, fmt.Errorf("parse tuning file: %w", err)
	}
	return t, nil
}

// LLMTimeout returns the per-call LLM timeout as a duration.
func (t *Tuning) LLMTimeout() time.Duration {
	return time.Duration(t.LLM.TimeoutSeconds) * time.Second
}

// MotionInterval returns the micro-motion emit cadence.
func (t *Tuning) MotionInterval() time.Duration {
	return time.Duration(t.Motion.IntervalMillis) * time.Millisecond
}

// TickPacing returns the inter-tick sleep.
func (t *Tuning) TickPacing() time.Duration {
	return time.Duration(t.TickPacingMillis) * time.Millisecond
}

// HelpProbability resolves a cooperation inclination to a help probability
// through the tier table.
func (c Cooperation) HelpProbability(inclination float64) float64 {
	for _, tier := range c.Tiers {
		if inclination >= tier.Inclination {
			return tier.Probability
		}
	}
	return c.BaseProbability
}
