package agent

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/talgya/ai-town/internal/classify"
	"github.com/talgya/ai-town/internal/config"
	"github.com/talgya/ai-town/internal/entropy"
	"github.com/talgya/ai-town/internal/llm"
	"github.com/talgya/ai-town/internal/schedule"
	"github.com/talgya/ai-town/internal/town"
)

// Mental states an agent can be in. unconscious is terminal until healed.
const (
	StateCalm        = "calm"
	StateAlert       = "alert"
	StatePanicked    = "panicked"
	StateFrozen      = "frozen"
	StateFocused     = "focused"
	StateHelping     = "helping"
	StateInjured     = "injured"
	StateUnconscious = "unconscious"
)

// ActionWaitingInit is the pre-initialization placeholder action.
const ActionWaitingInit = "等待初始化"

// SyncEvent is a pending notification for the client, drained into the next
// frame.
type SyncEvent struct {
	Type          string `json:"type"`
	FromPortal    string `json:"fromPortal,omitempty"`
	ToPortal      string `json:"toPortal,omitempty"`
	FinalLocation string `json:"finalLocation,omitempty"`
	TargetPlace   string `json:"targetPlace,omitempty"`
}

// Agent is one town inhabitant. Exported fields are owned by the tick
// goroutine between frame barriers; cross-goroutine mutation (healing,
// teleport commands, sync events) goes through the mutex-guarded methods.
type Agent struct {
	Name               string
	MBTI               string
	PersonaSummary     string
	Home               string
	CooperationBase    float64
	AvailableLocations []string

	CurrPlace     string
	TargetPlace   string
	PreviousPlace string

	CurrAction     string
	LastAction     string
	Pronunciatio   string
	CurrentThought string

	MentalState string

	WeeklySchedule map[string]string
	DailySchedule  []schedule.Item
	WakeTime       string
	SleepTime      string

	Memory      string
	DisasterLog []string

	InterruptedAction string

	// Per-disaster one-shots, reset at quake onset.
	quakeCoverTaken  bool
	quakeEvacStarted bool
	supportCommitted bool

	mu         sync.Mutex
	health     int
	isInjured  bool
	syncEvents []SyncEvent

	thinking atomic.Int32

	emojiCache map[string]string

	brain *llm.Client
	rng   *entropy.Source
	cfg   *config.Tuning
	log   *slog.Logger
}

// New constructs an agent from its personality profile.
func New(p Profile, home string, available []string, brain *llm.Client, rng *entropy.Source, cfg *config.Tuning, log *slog.Logger) *Agent {
	a := &Agent{
		Name:               p.Name,
		MBTI:               p.MBTI,
		Home:               home,
		CooperationBase:    p.Coop,
		AvailableLocations: available,
		PersonaSummary:     fmt.Sprintf("MBTI: %s. 個性: %s", p.MBTI, p.Desc),
		CurrPlace:          home,
		TargetPlace:        home,
		PreviousPlace:      home,
		CurrAction:         ActionWaitingInit,
		LastAction:         ActionWaitingInit,
		Pronunciatio:       classify.Emoji(classify.LabelInit),
		MentalState:        StateCalm,
		WeeklySchedule:     make(map[string]string),
		WakeTime:           "07-00",
		SleepTime:          "23-00",
		Memory:             "尚未生成",
		health:             100,
		emojiCache:         make(map[string]string),
		brain:              brain,
		rng:                rng,
		cfg:                cfg,
		log:                log.With("agent", p.Name),
	}
	return a
}

// Health returns the current health points.
func (a *Agent) Health() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.health
}

// Injured reports whether the agent is currently injured.
func (a *Agent) Injured() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isInjured
}

// Alive reports whether health is above zero.
func (a *Agent) Alive() bool {
	return a.Health() > 0
}

// Damage subtracts hp, clamping at zero, and returns the amount actually
// lost. Dropping to zero knocks the agent unconscious.
func (a *Agent) Damage(hp int) int {
	a.mu.Lock()
	before := a.health
	a.health -= hp
	if a.health < 0 {
		a.health = 0
	}
	lost := before - a.health
	if a.health < a.cfg.Damage.InjuredBelow && a.health > 0 {
		a.isInjured = true
	}
	dead := a.health == 0
	if dead {
		a.isInjured = true
	}
	a.mu.Unlock()

	if dead {
		a.MentalState = StateUnconscious
		a.CurrAction = classify.LabelUnconscious
		a.Pronunciatio = classify.Emoji(classify.LabelUnconscious)
	}
	return lost
}

// Heal adds hp, capping at 100, and returns the amount actually restored.
// The injured flag tracks whether the result is still below the injury
// threshold.
func (a *Agent) Heal(hp int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	before := a.health
	a.health += hp
	if a.health > 100 {
		a.health = 100
	}
	a.isInjured = a.health < a.cfg.Damage.InjuredBelow
	return a.health - before
}

// EnterThinking marks the start of a reasoning span. Spans nest; the motion
// loop animates agents whose depth is positive.
func (a *Agent) EnterThinking() {
	a.thinking.Add(1)
}

// ExitThinking closes a reasoning span.
func (a *Agent) ExitThinking() {
	if a.thinking.Add(-1) < 0 {
		a.thinking.Store(0)
	}
}

// IsThinking reports whether any reasoning span is open.
func (a *Agent) IsThinking() bool {
	return a.thinking.Load() > 0
}

// pushSyncEvent queues a client notification for the next frame.
func (a *Agent) pushSyncEvent(ev SyncEvent) {
	a.mu.Lock()
	a.syncEvents = append(a.syncEvents, ev)
	a.mu.Unlock()
}

// DrainSyncEvents removes and returns all pending sync events.
func (a *Agent) DrainSyncEvents() []SyncEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	evs := a.syncEvents
	a.syncEvents = nil
	return evs
}

// IsAsleep reports whether hm falls outside the waking window, handling
// windows that wrap past midnight.
func (a *Agent) IsAsleep(hm string) bool {
	cur, err := schedule.NormalizeHM(hm)
	if err != nil {
		return false
	}
	wake, sleep := a.WakeTime, a.SleepTime
	if wake == sleep {
		return false
	}
	if schedule.HMBefore(wake, sleep) {
		return !(wake <= cur && cur < sleep)
	}
	return cur < wake && cur >= sleep
}

// InterruptAction remembers the current action so it can resume after an
// interruption. Sleep and unconsciousness are not worth resuming.
func (a *Agent) InterruptAction() {
	if a.CurrAction == classify.LabelSleep || a.CurrAction == classify.LabelUnconscious {
		a.InterruptedAction = ""
		return
	}
	a.InterruptedAction = a.CurrAction
}

// Teleport moves the agent through a portal. Unknown portals leave the agent
// where it is with a confused thought. The returned event is also queued for
// the next frame.
func (a *Agent) Teleport(targetPortal string) *SyncEvent {
	toPortal, canonical, ok := town.Traverse(a.rng, targetPortal)
	if !ok {
		a.log.Warn("teleport to unknown portal", "portal", targetPortal)
		a.CurrentThought = "奇怪，這裡好像走不通..."
		return nil
	}

	a.PreviousPlace = a.CurrPlace
	final := a.firstAvailable(canonical, toPortal, a.Home, town.Exterior)
	a.CurrPlace = final

	ev := SyncEvent{
		Type:          "teleport",
		FromPortal:    targetPortal,
		ToPortal:      toPortal,
		FinalLocation: final,
		TargetPlace:   a.TargetPlace,
	}
	a.pushSyncEvent(ev)
	a.CurrentThought = fmt.Sprintf("好了，現在去%s。", a.TargetPlace)
	return &ev
}

// firstAvailable picks the first candidate present in AvailableLocations,
// falling back to the first available location outright.
func (a *Agent) firstAvailable(candidates ...string) string {
	for _, c := range candidates {
		for _, av := range a.AvailableLocations {
			if c == av {
				return c
			}
		}
	}
	if len(a.AvailableLocations) > 0 {
		return a.AvailableLocations[0]
	}
	return a.Home
}

// AppendMemory appends a line to the agent's running memory.
func (a *Agent) AppendMemory(entry string) {
	a.Memory += entry
}

// MemoryTail returns the trailing portion of memory used in prompts.
func (a *Agent) MemoryTail() string {
	limit := a.cfg.Social.MemoryTailChars
	r := []rune(a.Memory)
	if len(r) <= limit {
		return a.Memory
	}
	return string(r[len(r)-limit:])
}

// ResetForQuake clears the per-disaster state at earthquake onset.
func (a *Agent) ResetForQuake() {
	a.DisasterLog = nil
	a.quakeCoverTaken = false
	a.quakeEvacStarted = false
	a.supportCommitted = false
}

// CooperationInclination is the effective inclination during disasters.
func (a *Agent) CooperationInclination() float64 {
	v := a.CooperationBase + DisasterBonus(a.MBTI)
	if v > 1 {
		return 1
	}
	return v
}

// logDisaster appends a short line to the per-disaster experience log.
func (a *Agent) logDisaster(format string, args ...any) {
	a.DisasterLog = append(a.DisasterLog, fmt.Sprintf(format, args...))
}
