package sim

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/talgya/ai-town/internal/agent"
	"github.com/talgya/ai-town/internal/classify"
	"github.com/talgya/ai-town/internal/disaster"
	"github.com/talgya/ai-town/internal/protocol"
	"github.com/talgya/ai-town/internal/schedule"
	"github.com/talgya/ai-town/internal/town"
)

// Run executes the simulation until its duration elapses or ctx is canceled.
// It owns all agent and building state for the lifetime of the run.
func (s *Simulation) Run(ctx context.Context) error {
	if err := s.initializeAgents(ctx); err != nil {
		s.sendError(err.Error())
		return err
	}
	s.send(protocol.Frame{Type: protocol.TypeStatus, Message: "模擬開始"})

	for s.now.Before(s.end) && ctx.Err() == nil {
		s.drainCommands()
		s.tickPhases(ctx)

		hm := s.hm()
		active := s.activeAgents(hm)
		skipReasoning := len(active) == 0 && s.phase == PhaseNormal

		if (s.phase == PhaseNormal || s.phase == PhaseDiscussion) && !skipReasoning {
			if hm == "03-00" && s.mode == agent.ModeLLM {
				s.refreshSchedules(ctx)
			}
			s.updateAgents(ctx, hm, active)
			s.socialInteraction(ctx, active)
		}

		actions := s.instructions()
		s.stepID++
		if err := s.send(s.updateFrame(actions)); err != nil {
			return fmt.Errorf("send update frame: %w", err)
		}
		if s.stepSync {
			if err := s.waitStep(ctx, s.stepID); err != nil {
				return err
			}
		}

		s.now = s.now.Add(time.Duration(s.phaseStep()) * time.Minute)

		select {
		case <-time.After(s.cfg.TickPacing()):
		case <-ctx.Done():
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	s.finish()
	return nil
}

// initializeAgents prepares every inhabitant concurrently. Any failure aborts
// the run before the first tick.
func (s *Simulation) initializeAgents(ctx context.Context) error {
	errs := make([]error, len(s.agents))
	var wg sync.WaitGroup
	for i, a := range s.agents {
		wg.Add(1)
		go func(i int, a *agent.Agent) {
			defer wg.Done()
			errs[i] = a.Initialize(ctx, s.now, s.mode, s.store)
		}(i, a)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("initialize agents: %w", err)
		}
	}
	for _, a := range s.agents {
		s.logger.Record(a.Name, disaster.KindInit, s.now, map[string]any{"message": "初始化完成"})
	}
	return nil
}

func (s *Simulation) refreshSchedules(ctx context.Context) {
	var wg sync.WaitGroup
	for _, a := range s.agents {
		if !a.Alive() {
			continue
		}
		wg.Add(1)
		go func(a *agent.Agent) {
			defer wg.Done()
			if err := a.RefreshDailySchedule(ctx, s.now); err != nil {
				s.log.Warn("daily schedule refresh failed", "agent", a.Name, "err", err)
			}
		}(a)
	}
	wg.Wait()
}

// updateAgents fans one scheduling step out across all agents: active ones
// follow their daily schedule, inactive ones get the lightweight sleep or
// unconscious state.
func (s *Simulation) updateAgents(ctx context.Context, hm string, active []*agent.Agent) {
	activeSet := make(map[*agent.Agent]bool, len(active))
	for _, a := range active {
		activeSet[a] = true
	}

	var wg sync.WaitGroup
	for _, a := range s.agents {
		wg.Add(1)
		go func(a *agent.Agent) {
			defer wg.Done()
			s.updateAgent(ctx, a, hm, activeSet[a])
		}(a)
	}
	wg.Wait()
}

func (s *Simulation) updateAgent(ctx context.Context, a *agent.Agent, hm string, active bool) {
	if active {
		switch a.LastAction {
		case classify.LabelSleep, classify.LabelUnconscious, agent.ActionWaitingInit:
			a.SetNewAction(ctx, classify.LabelWake, a.Home)
		default:
			if item, ok := a.CurrentScheduledItem(hm); ok {
				target := item.Target
				if target == "" {
					target = a.CurrPlace
				}
				if item.Action != a.CurrAction || town.Canonicalize(target) != a.TargetPlace {
					a.SetNewAction(ctx, item.Action, target)
				}
			}
		}
	} else {
		if !a.Alive() {
			a.SetLightweightAction(classify.LabelUnconscious)
		} else {
			a.SetLightweightAction(classify.LabelSleep)
		}
	}
	a.LastAction = a.CurrAction
}

// instructions converts the post-update agent state into client animation
// commands: queued teleports first, then a move or interact per agent.
func (s *Simulation) instructions() []protocol.AgentAction {
	var actions []protocol.AgentAction
	for _, a := range s.agents {
		for _, ev := range a.DrainSyncEvents() {
			actions = append(actions, protocol.AgentAction{
				Agent:         a.Name,
				Command:       "teleport",
				FromPortal:    ev.FromPortal,
				ToPortal:      ev.ToPortal,
				FinalLocation: ev.FinalLocation,
				TargetPlace:   ev.TargetPlace,
			})
		}

		dest := a.TargetPlace
		if dest == "" {
			dest = a.CurrPlace
		}
		if a.PreviousPlace != dest {
			actions = append(actions, protocol.AgentAction{
				Agent:       a.Name,
				Command:     "move",
				Origin:      a.PreviousPlace,
				Destination: dest,
				NextStep:    a.CurrPlace,
				Action:      a.CurrAction,
			})
		} else {
			actions = append(actions, protocol.AgentAction{
				Agent:   a.Name,
				Command: "interact",
				Action:  a.CurrAction,
				Emoji:   a.Pronunciatio,
			})
		}
	}
	return actions
}

func (s *Simulation) updateFrame(actions []protocol.AgentAction) protocol.Frame {
	tickLog, history := s.takeTickLog()

	agentStates := make(map[string]protocol.AgentState, len(s.agents))
	for _, a := range s.agents {
		agentStates[a.Name] = protocol.AgentState{
			Name:           a.Name,
			CurrentState:   a.CurrAction,
			Location:       a.CurrPlace,
			HP:             a.Health(),
			Schedule:       scheduleText(a.DailySchedule),
			Memory:         a.Memory,
			WeeklySchedule: a.WeeklySchedule,
			DailySchedule:  a.DailySchedule,
		}
	}

	buildingStates := make(map[string]protocol.BuildingState)
	for _, b := range s.buildings.Snapshot() {
		buildingStates[b.ID] = protocol.BuildingState{ID: b.ID, Integrity: b.Integrity}
	}

	llmLog := ""
	if s.brain.Enabled() {
		llmLog = s.brain.Log().Dump()
	}

	return protocol.Frame{
		Type: protocol.TypeUpdate,
		Data: protocol.UpdateData{
			MainLog:        strings.Join(tickLog, "\n"),
			HistoryLog:     history,
			AgentStates:    agentStates,
			BuildingStates: buildingStates,
			LLMLog:         llmLog,
			Status:         s.phase,
			AgentActions:   actions,
			StepID:         s.stepID,
		},
	}
}

// waitStep blocks until the client acknowledges the given step. Stale ids are
// discarded; a gap is logged but still releases the gate.
func (s *Simulation) waitStep(ctx context.Context, want int) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case id := <-s.stepCh:
			if id < want {
				s.log.Debug("stale step_complete", "got", id, "want", want)
				continue
			}
			if id > want {
				s.log.Warn("step_complete gap", "got", id, "want", want)
			}
			return nil
		}
	}
}

// finish emits the evaluation and end frames. Both are best effort.
func (s *Simulation) finish() {
	final := make(map[string]int, len(s.agents))
	for _, a := range s.agents {
		final[a.Name] = a.Health()
	}
	report := s.logger.GenerateReport(final)
	s.reportMu.Lock()
	s.finalReport = &report
	s.reportMu.Unlock()
	s.send(protocol.Frame{Type: protocol.TypeEvaluation, Data: report})
	s.send(protocol.Frame{Type: protocol.TypeEnd, Message: "模擬結束"})
	s.log.Info("simulation finished", "at", s.now, "steps", s.stepID)
}

func (s *Simulation) phaseStep() int {
	switch s.phase {
	case PhaseEarthquake:
		return s.eqStepMinutes
	case PhaseRecovery:
		return s.cfg.Phases.RecoveryStepMinutes
	}
	return s.stepMinutes
}

func (s *Simulation) hm() string {
	return schedule.HM(s.now)
}

// activeAgents are alive and awake at hm.
func (s *Simulation) activeAgents(hm string) []*agent.Agent {
	var out []*agent.Agent
	for _, a := range s.agents {
		if a.Alive() && !a.IsAsleep(hm) {
			out = append(out, a)
		}
	}
	return out
}

func (s *Simulation) send(f protocol.Frame) error {
	return s.sender.Send(f)
}

func (s *Simulation) sendError(msg string) {
	s.send(protocol.Frame{Type: protocol.TypeError, Message: msg})
}

func scheduleText(items []schedule.Item) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		if it.Target != "" {
			lines = append(lines, fmt.Sprintf("%s %s → %s", it.Start, it.Action, it.Target))
		} else {
			lines = append(lines, fmt.Sprintf("%s %s", it.Start, it.Action))
		}
	}
	return strings.Join(lines, "\n")
}
