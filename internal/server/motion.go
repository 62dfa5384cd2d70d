package server

import (
	"context"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/ai-town/internal/agent"
	"github.com/talgya/ai-town/internal/entropy"
	"github.com/talgya/ai-town/internal/protocol"
	"github.com/talgya/ai-town/internal/town"
)

// Micro-motion modes. wander jitters around the current spot, lookaround
// keeps the feet still, slow_walk_to_temp drifts toward a point around the
// agent's home anchor, not around its current place.
const (
	modeWander     = "wander"
	modeLookaround = "lookaround"
	modeSlowWalk   = "slow_walk_to_temp"
)

var motionModes = []string{modeWander, modeLookaround, modeSlowWalk}

// motionLoop emits cosmetic movement hints for agents that are mid-reasoning,
// at a much faster cadence than the tick engine. Ticks with no thinking agent
// emit nothing.
func (c *session) motionLoop(ctx context.Context, roster []*agent.Agent) {
	cfg := c.srv.Cfg
	noise := opensimplex.NewNormalized(cfg.Seed)
	rng := entropy.New(cfg.Seed + 1)

	ticker := time.NewTicker(cfg.MotionInterval())
	defer ticker.Stop()

	var t float64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		t += cfg.MotionInterval().Seconds()

		var motions []protocol.MicroMotion
		for i, a := range roster {
			if !a.IsThinking() && !c.explicitlyThinking(a.Name) {
				continue
			}
			motions = append(motions, c.microMotion(noise, rng, t, i, a))
		}
		if len(motions) == 0 {
			continue
		}
		frame := protocol.Frame{
			Type: protocol.TypeMotion,
			Data: protocol.MotionData{MicroMotions: motions},
		}
		if err := c.Send(frame); err != nil {
			c.log.Warn("motion frame dropped", "err", err)
			return
		}
	}
}

// microMotion shapes one agent's hint: the mode is uniform random while the
// radius, period and speed ride the noise field so consecutive frames stay
// smooth instead of twitching.
func (c *session) microMotion(noise opensimplex.Noise, rng *entropy.Source, t float64, idx int, a *agent.Agent) protocol.MicroMotion {
	n := noise.Eval2(t*0.4, float64(idx))
	m := protocol.MicroMotion{
		Agent:  a.Name,
		Mode:   motionModes[rng.IntN(len(motionModes))],
		Radius: c.srv.Cfg.Motion.WanderRadius * (0.5 + n),
		Period: 1.2 + 1.8*noise.Eval2(float64(idx), t*0.4),
		Speed:  0.6 + 0.8*n,
	}

	if m.Mode == modeSlowWalk {
		x, y, ok := town.Anchor(a.Home)
		if !ok {
			m.Mode = modeWander
			return m
		}
		dx := (noise.Eval2(t*0.25, float64(idx)+100) - 0.5) * 2 * m.Radius
		dy := (noise.Eval2(float64(idx)+100, t*0.25) - 0.5) * 2 * m.Radius
		m.TempTarget = &protocol.XY{X: x + dx, Y: y + dy}
		m.ArriveTolerance = 0.5
	}
	return m
}
