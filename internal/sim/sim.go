// Package sim runs the town: the tick engine, the disaster phase machine and
// the social layer that keeps co-located inhabitants talking.
package sim

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/ai-town/internal/agent"
	"github.com/talgya/ai-town/internal/config"
	"github.com/talgya/ai-town/internal/disaster"
	"github.com/talgya/ai-town/internal/entropy"
	"github.com/talgya/ai-town/internal/llm"
	"github.com/talgya/ai-town/internal/protocol"
	"github.com/talgya/ai-town/internal/schedule"
	"github.com/talgya/ai-town/internal/town"
)

// Simulation phases.
const (
	PhaseNormal     = "Normal"
	PhaseEarthquake = "Earthquake"
	PhaseRecovery   = "Recovery"
	PhaseDiscussion = "PostQuakeDiscussion"
)

// Sender delivers frames to the connected client.
type Sender interface {
	Send(f protocol.Frame) error
}

// quakeEvent is one scheduled earthquake with its parsed onset time.
type quakeEvent struct {
	at        time.Time
	duration  int
	intensity float64
}

// Simulation owns the agents, buildings and clock of one run. All mutable
// state is driven from the Run goroutine; external commands arrive through
// the command queue and the step-sync channel.
type Simulation struct {
	cfg   *config.Tuning
	log   *slog.Logger
	rng   *entropy.Source
	brain *llm.Client

	agents    []*agent.Agent
	byName    map[string]*agent.Agent
	buildings *town.Buildings
	logger    *disaster.Logger
	store     *schedule.Store
	conflicts *conflictGenerator

	mode agent.ScheduleMode

	start         time.Time
	now           time.Time
	end           time.Time
	stepMinutes   int
	eqStepMinutes int

	eqEnabled bool
	quakes    []quakeEvent
	nextQuake int

	phase          string
	quakeIntensity float64
	quakeEnd       time.Time
	recoveryEnd    time.Time
	discussionEnd  time.Time

	maxChatGroups int
	stepSync      bool
	stepID        int

	commands chan func()
	stepCh   chan int

	sender Sender

	logMu   sync.Mutex
	tickLog []string
	history []string

	chatMu     sync.Mutex
	chatBuffer map[string][][]string

	reportMu    sync.Mutex
	finalReport *disaster.Report
}

// FinalReport returns the evaluation produced at the end of the run, or nil
// while the run is still in progress.
func (s *Simulation) FinalReport() *disaster.Report {
	s.reportMu.Lock()
	defer s.reportMu.Unlock()
	return s.finalReport
}

// DisasterEvents returns a copy of the disaster recorder's per-agent events.
func (s *Simulation) DisasterEvents() map[string][]disaster.Event {
	return s.logger.AllEvents()
}

// New builds a simulation from validated start parameters.
func New(params *protocol.StartParams, profiles map[string]agent.Profile, store *schedule.Store, brain *llm.Client, cfg *config.Tuning, sender Sender, log *slog.Logger) (*Simulation, error) {
	start := time.Date(params.Year, time.Month(params.Month), params.Day, params.Hour, params.Minute, 0, 0, time.UTC)

	rawQuakes, err := protocol.ParseQuakes(params.EqJSON)
	if err != nil {
		return nil, err
	}
	quakes := make([]quakeEvent, 0, len(rawQuakes))
	for _, q := range rawQuakes {
		at, err := schedule.ParseSim(q.Time)
		if err != nil {
			return nil, fmt.Errorf("earthquake time %q: %w", q.Time, err)
		}
		quakes = append(quakes, quakeEvent{at: at, duration: q.Duration, intensity: q.Intensity})
	}

	available := params.Locations
	if len(available) == 0 {
		available = town.CanGoPlaces()
	}

	rng := entropy.New(cfg.Seed)
	s := &Simulation{
		cfg:           cfg,
		log:           log,
		rng:           rng,
		brain:         brain,
		buildings:     town.NewBuildings(),
		logger:        disaster.NewLogger(log.With("component", "disaster")),
		store:         store,
		conflicts:     newConflictGenerator(rng, cfg),
		start:         start,
		now:           start,
		end:           start.Add(time.Duration(params.Duration) * time.Minute),
		stepMinutes:   params.Step,
		eqStepMinutes: params.EqStep,
		eqEnabled:     params.EqEnabled,
		quakes:        quakes,
		phase:         PhaseNormal,
		maxChatGroups: params.MaxChatGroups,
		stepSync:      params.StepSync,
		commands:      make(chan func(), 64),
		stepCh:        make(chan int, 16),
		sender:        sender,
		byName:        make(map[string]*agent.Agent),
		chatBuffer:    make(map[string][][]string),
	}
	if s.eqStepMinutes < 1 {
		s.eqStepMinutes = 1
	}
	s.mode = agent.ModeLLM
	if params.UseDefaultCalendar {
		s.mode = agent.ModePreset
	}

	for _, mbti := range params.MBTI {
		p, ok := profiles[mbti]
		if !ok {
			return nil, fmt.Errorf("no persona for MBTI type %s", mbti)
		}
		home := params.InitialPositions[p.Name]
		if home == "" {
			home = params.InitialPositions[mbti]
		}
		if home == "" {
			home = town.ApartmentF1
		}
		a := agent.New(p, town.Canonicalize(home), available, brain, rng, cfg, log)
		s.agents = append(s.agents, a)
		s.byName[a.Name] = a
	}
	return s, nil
}

// Agents returns the simulation roster.
func (s *Simulation) Agents() []*agent.Agent {
	return s.agents
}

// Teleport queues a portal traversal for an agent; it executes at the next
// tick boundary so agent state stays single-writer.
func (s *Simulation) Teleport(agentName, portal string) {
	s.enqueue(func() {
		a, ok := s.byName[agentName]
		if !ok {
			s.log.Warn("teleport for unknown agent", "agent", agentName)
			return
		}
		a.Teleport(portal)
	})
}

// StepComplete releases the step-sync gate for the given step id.
func (s *Simulation) StepComplete(id int) {
	select {
	case s.stepCh <- id:
	default:
		s.log.Warn("step_complete dropped, channel full", "step_id", id)
	}
}

func (s *Simulation) enqueue(fn func()) {
	select {
	case s.commands <- fn:
	default:
		s.log.Warn("command queue full, dropping command")
	}
}

func (s *Simulation) drainCommands() {
	for {
		select {
		case fn := <-s.commands:
			fn()
		default:
			return
		}
	}
}

// pushLog appends a line to the current tick's log and the rolling history.
// Chat workers call it from their own goroutines.
func (s *Simulation) pushLog(line string) {
	if line == "" {
		return
	}
	s.logMu.Lock()
	s.tickLog = append(s.tickLog, line)
	s.history = append(s.history, line)
	if len(s.history) > 500 {
		s.history = s.history[len(s.history)-500:]
	}
	s.logMu.Unlock()
}

// takeTickLog drains the current tick's log lines and returns them with a
// snapshot of the rolling history.
func (s *Simulation) takeTickLog() (tick []string, history []string) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	tick = s.tickLog
	s.tickLog = nil
	history = make([]string, len(s.history))
	copy(history, s.history)
	return tick, history
}
