package sim

import (
	"fmt"
	"strings"
	"time"

	"github.com/talgya/ai-town/internal/agent"
	"github.com/talgya/ai-town/internal/config"
	"github.com/talgya/ai-town/internal/disaster"
	"github.com/talgya/ai-town/internal/entropy"
)

// conflictChance is the per-tick probability of each eligible friction firing.
const conflictChance = 0.3

// talkativeKeywords mark an extrovert as actively talking for the
// communication-friction pairing.
var talkativeKeywords = []string{"聊天", "討論", "安撫", "指揮", "交談"}

// conflictKind pairs a matcher for each side of an argument with a line
// template. Templates receive (nameA, mbtiA, nameB, mbtiB).
type conflictKind struct {
	name     string
	sideA    func(*agent.Agent) bool
	sideB    func(*agent.Agent) bool
	template string
}

var conflictKinds = []conflictKind{
	{
		name:     "route",
		sideA:    func(a *agent.Agent) bool { return agent.IsSentinel(a.MBTI) },
		sideB:    func(a *agent.Agent) bool { return agent.IsExplorer(a.MBTI) },
		template: "%s(%s) 堅持按原訂路線撤離，%s(%s) 想抄捷徑，兩人爭執不下。",
	},
	{
		name:     "rescue",
		sideA:    func(a *agent.Agent) bool { return agent.IsDiplomat(a.MBTI) },
		sideB:    func(a *agent.Agent) bool { return agent.IsRationalThinker(a.MBTI) },
		template: "%s(%s) 主張先救傷患，%s(%s) 認為應先確保出口，救援優先順序吵了起來。",
	},
	{
		name:     "leadership",
		sideA:    func(a *agent.Agent) bool { return agent.IsLeader(a.MBTI) },
		sideB:    func(a *agent.Agent) bool { return agent.IsContrarian(a.MBTI) },
		template: "%s(%s) 試圖接管指揮，%s(%s) 不服，現場爆發領導權之爭。",
	},
	{
		name:  "communication",
		sideA: func(a *agent.Agent) bool { return agent.IsIntrovert(a.MBTI) },
		sideB: func(a *agent.Agent) bool {
			if !agent.IsExtrovert(a.MBTI) {
				return false
			}
			for _, kw := range talkativeKeywords {
				if strings.Contains(a.CurrAction, kw) {
					return true
				}
			}
			return false
		},
		template: "%s(%s) 被 %s(%s) 連珠炮般的指令搞得更加煩躁，兩人溝通出現摩擦。",
	},
}

// conflictGenerator emits personality-driven quarrels between co-located
// agents during the shaking, throttled per location and kind.
type conflictGenerator struct {
	rng       *entropy.Source
	cfg       *config.Tuning
	cooldowns map[string]time.Time
}

func newConflictGenerator(rng *entropy.Source, cfg *config.Tuning) *conflictGenerator {
	return &conflictGenerator{
		rng:       rng,
		cfg:       cfg,
		cooldowns: make(map[string]time.Time),
	}
}

// Generate scans each occupied location for matchable personality pairs and
// returns the textual events it produced. Both participants of a quarrel get
// an event recorded against their score.
func (g *conflictGenerator) Generate(now time.Time, agents []*agent.Agent, rec agent.EventRecorder) []string {
	groups := make(map[string][]*agent.Agent)
	for _, a := range agents {
		groups[a.CurrPlace] = append(groups[a.CurrPlace], a)
	}

	var events []string
	for place, group := range groups {
		if len(group) < 2 {
			continue
		}
		for _, kind := range conflictKinds {
			key := place + "|" + kind.name
			if until, ok := g.cooldowns[key]; ok && now.Before(until) {
				continue
			}
			a, b := matchPair(group, kind)
			if a == nil {
				continue
			}
			if g.rng.Float() >= conflictChance {
				continue
			}

			line := fmt.Sprintf(kind.template, a.Name, a.MBTI, b.Name, b.MBTI)
			events = append(events, line)
			details := map[string]any{"message": line, "類型": kind.name, "地點": place}
			rec.Record(a.Name, disaster.KindQuarrel, now, details)
			rec.Record(b.Name, disaster.KindQuarrel, now, details)

			cooldown := g.rng.Between(g.cfg.Phases.ConflictCooldownMin, g.cfg.Phases.ConflictCooldownMax)
			g.cooldowns[key] = now.Add(time.Duration(cooldown) * time.Minute)
		}
	}
	return events
}

// matchPair finds the first distinct (sideA, sideB) pair in a group.
func matchPair(group []*agent.Agent, kind conflictKind) (*agent.Agent, *agent.Agent) {
	for _, a := range group {
		if !kind.sideA(a) {
			continue
		}
		for _, b := range group {
			if b != a && kind.sideB(b) {
				return a, b
			}
		}
	}
	return nil, nil
}
