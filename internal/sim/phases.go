package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/talgya/ai-town/internal/agent"
	"github.com/talgya/ai-town/internal/disaster"
)

// tickPhases advances the disaster state machine by one tick. Phase
// transitions compare simulated wall-clock only, so they never stall on a
// slow or failing model.
func (s *Simulation) tickPhases(ctx context.Context) {
	switch s.phase {
	case PhaseNormal:
		s.maybeStartQuake()

	case PhaseEarthquake:
		s.runQuakeSteps(ctx)
		if !s.now.Before(s.quakeEnd) {
			s.endQuake(ctx)
		}

	case PhaseRecovery:
		s.runRecoverySteps(ctx)
		if !s.now.Before(s.recoveryEnd) {
			s.phase = PhaseDiscussion
			s.discussionEnd = s.now.Add(time.Duration(s.cfg.Phases.DiscussionHours) * time.Hour)
			s.pushLog("恢復階段結束，進入災後討論期。")
			for _, a := range s.agents {
				a.LastAction = "重新評估中"
			}
		}

	case PhaseDiscussion:
		if !s.now.Before(s.discussionEnd) {
			s.phase = PhaseNormal
			s.pushLog("災後討論期結束，恢復正常。")
		}
	}
}

func (s *Simulation) maybeStartQuake() {
	if !s.eqEnabled || s.nextQuake >= len(s.quakes) {
		return
	}
	next := s.quakes[s.nextQuake]
	if s.now.Before(next.at) {
		return
	}

	s.phase = PhaseEarthquake
	s.quakeIntensity = next.intensity
	s.quakeEnd = s.now.Add(time.Duration(next.duration) * time.Minute)
	s.nextQuake++

	s.logger.Reset()
	s.logger.StartDisaster(s.now)
	s.pushLog(fmt.Sprintf("!!! 地震開始 !!! 強度: %.2f. 持續 %d 分鐘.", next.intensity, next.duration))

	s.buildings.ApplyQuake(s.rng, next.intensity, s.cfg.Damage)
	s.pushLog(disaster.BuildingReport(s.buildings.Snapshot(), true))

	for _, a := range s.agents {
		wasAsleep := a.IsAsleep(s.hm())
		a.ResetForQuake()
		reaction := a.ReactToEarthquake(next.intensity, s.buildings, s.agents)

		s.logger.Record(a.Name, disaster.KindReaction, s.now, map[string]any{
			"反應":   reaction.Action,
			"精神狀態": reaction.MentalState,
		})
		if reaction.Damage > 0 {
			s.logger.Record(a.Name, disaster.KindLoss, s.now, map[string]any{
				"傷害":     reaction.Damage,
				"reason": "初始衝擊",
			})
		}

		line := fmt.Sprintf("%s: 初步反應: %s, HP:%d", a.Name, reaction.Action, a.Health())
		if wasAsleep {
			line = fmt.Sprintf("%s: 在睡夢中被驚醒！初步反應: %s, HP:%d", a.Name, reaction.Action, a.Health())
		}
		s.pushLog(line)
	}
}

// runQuakeSteps fans one earthquake step out across all alive agents and
// collects their step logs, then layers in personality conflicts.
func (s *Simulation) runQuakeSteps(ctx context.Context) {
	alive := s.aliveAgents()
	logs := make([]string, len(alive))

	var wg sync.WaitGroup
	for i, a := range alive {
		wg.Add(1)
		go func(i int, a *agent.Agent) {
			defer wg.Done()
			logs[i] = a.PerformEarthquakeStep(ctx, s.agents, s.buildings, s.quakeIntensity, s.logger, s.now)
		}(i, a)
	}
	wg.Wait()

	for _, line := range logs {
		s.pushLog(line)
	}
	for _, line := range s.conflicts.Generate(s.now, s.activeForConflict(), s.logger) {
		s.pushLog(line)
	}
}

func (s *Simulation) endQuake(ctx context.Context) {
	s.phase = PhaseRecovery
	s.recoveryEnd = s.now.Add(time.Duration(s.cfg.Phases.RecoveryMinutes) * time.Minute)
	s.pushLog(fmt.Sprintf("!!! 地震結束 @ %s !!!", s.now.Format("15:04")))
	s.pushLog(disaster.BuildingReport(s.buildings.Snapshot(), false))

	var experienced []*agent.Agent
	for _, a := range s.agents {
		if len(a.DisasterLog) > 0 {
			experienced = append(experienced, a)
		}
	}

	summaries := make([]string, len(experienced))
	var wg sync.WaitGroup
	for i, a := range experienced {
		wg.Add(1)
		go func(i int, a *agent.Agent) {
			defer wg.Done()
			summaries[i] = s.brain.SummarizeDisaster(ctx, a.Name, a.MBTI, a.Health(), a.DisasterLog)
		}(i, a)
	}
	wg.Wait()

	for i, a := range experienced {
		a.AppendMemory("\n[災難記憶] " + summaries[i])
	}
}

func (s *Simulation) runRecoverySteps(ctx context.Context) {
	alive := s.aliveAgents()
	logs := make([]string, len(alive))

	var wg sync.WaitGroup
	for i, a := range alive {
		wg.Add(1)
		go func(i int, a *agent.Agent) {
			defer wg.Done()
			logs[i] = a.PerformRecoveryStep(ctx, s.agents, s.logger, s.now)
		}(i, a)
	}
	wg.Wait()

	for _, line := range logs {
		s.pushLog(line)
	}
}

func (s *Simulation) aliveAgents() []*agent.Agent {
	var out []*agent.Agent
	for _, a := range s.agents {
		if a.Alive() {
			out = append(out, a)
		}
	}
	return out
}

// activeForConflict filters to conscious agents, the only ones that can
// quarrel.
func (s *Simulation) activeForConflict() []*agent.Agent {
	var out []*agent.Agent
	for _, a := range s.agents {
		if a.Alive() && a.MentalState != agent.StateUnconscious {
			out = append(out, a)
		}
	}
	return out
}
