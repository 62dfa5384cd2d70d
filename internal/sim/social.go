package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/talgya/ai-town/internal/agent"
	"github.com/talgya/ai-town/internal/classify"
	"github.com/talgya/ai-town/internal/entropy"
	"github.com/talgya/ai-town/internal/llm"
	"github.com/talgya/ai-town/internal/schedule"
)

// socialInteraction groups co-located active agents and lets a capped number
// of groups chat. A lone agent may instead produce an inner monologue.
func (s *Simulation) socialInteraction(ctx context.Context, active []*agent.Agent) {
	if len(active) == 0 {
		return
	}

	groups := make(map[string][]*agent.Agent)
	for _, a := range active {
		groups[a.CurrPlace] = append(groups[a.CurrPlace], a)
	}

	places := make([]string, 0, len(groups))
	for place, group := range groups {
		if len(group) >= 2 {
			places = append(places, place)
		}
	}
	sort.Strings(places)

	chatting := make(map[*agent.Agent]bool)
	var wg sync.WaitGroup
	started := 0
	for _, place := range places {
		if started >= s.maxChatGroups {
			break
		}
		if s.rng.Float() >= s.cfg.Social.ChatProbability {
			continue
		}
		group := groups[place]
		started++
		for _, member := range group {
			chatting[member] = true
		}
		wg.Add(1)
		go func(place string, group []*agent.Agent) {
			defer wg.Done()
			s.runChat(ctx, place, group)
		}(place, group)
	}

	if s.rng.Float() < s.cfg.Social.MonologueProbability {
		var loners []*agent.Agent
		for _, a := range active {
			if !chatting[a] {
				loners = append(loners, a)
			}
		}
		if len(loners) > 0 {
			a := entropy.Pick(s.rng, loners)
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.runMonologue(ctx, a)
			}()
		}
	}

	wg.Wait()
}

// runChat marks the whole group as chatting, generates a dialogue between two
// random members and commits it to every member's memory.
func (s *Simulation) runChat(ctx context.Context, place string, group []*agent.Agent) {
	for _, member := range group {
		member.CurrAction = classify.LabelChat
		member.Pronunciatio = classify.Emoji(classify.LabelChat)
		member.EnterThinking()
	}
	defer func() {
		for _, member := range group {
			member.ExitThinking()
		}
	}()

	i := s.rng.IntN(len(group))
	j := s.rng.IntN(len(group) - 1)
	if j >= i {
		j++
	}
	a, b := group[i], group[j]

	cc := llm.ChatContext{
		Location:   place,
		A:          chatParticipant(a),
		B:          chatParticipant(b),
		NowTime:    schedule.FormatChinese(s.now) + " " + schedule.WeekdayLabel(s.now),
		EnvContext: s.envContext(),
		History:    s.chatHistory(place),
	}
	thought, dialogue := s.brain.DoubleChat(ctx, cc)
	a.CurrentThought = thought
	b.CurrentThought = thought
	if len(dialogue) == 0 {
		return
	}

	serialized, err := json.Marshal(dialogue)
	if err != nil {
		s.log.Warn("serialize dialogue", "error", err)
		return
	}
	s.setChatHistory(place, dialogue)
	entry := fmt.Sprintf("\n[聊天記錄] 與 %s、%s 的對話: %s", a.Name, b.Name, serialized)
	for _, member := range group {
		member.AppendMemory(entry)
	}
	s.pushLog(fmt.Sprintf("%s 的對話: %s 和 %s 聊了起來。", place, a.Name, b.Name))
}

func (s *Simulation) runMonologue(ctx context.Context, a *agent.Agent) {
	a.EnterThinking()
	defer a.ExitThinking()

	mc := llm.MonologueContext{
		Name:       a.Name,
		MBTI:       a.MBTI,
		Persona:    a.PersonaSummary,
		Location:   a.CurrPlace,
		Action:     a.CurrAction,
		NowTime:    schedule.FormatChinese(s.now) + " " + schedule.WeekdayLabel(s.now),
		Memory:     a.MemoryTail(),
		EnvContext: s.envContext(),
	}
	thought, monologue := s.brain.InnerMonologue(ctx, mc)
	if monologue != "" {
		a.CurrentThought = monologue
	} else {
		a.CurrentThought = thought
	}
}

func chatParticipant(a *agent.Agent) llm.ChatParticipant {
	return llm.ChatParticipant{
		Name:    a.Name,
		MBTI:    a.MBTI,
		Persona: a.PersonaSummary,
		Memory:  a.MemoryTail(),
		Action:  a.CurrAction,
	}
}

// envContext describes the town's situation for dialogue prompts.
func (s *Simulation) envContext() string {
	switch s.phase {
	case PhaseDiscussion:
		return "剛發生過地震，大家正在討論災情與重建。"
	case PhaseRecovery, PhaseEarthquake:
		return "地震災害進行中，情勢緊張。"
	}
	return ""
}

func (s *Simulation) chatHistory(place string) [][]string {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	return s.chatBuffer[place]
}

func (s *Simulation) setChatHistory(place string, dialogue [][]string) {
	s.chatMu.Lock()
	s.chatBuffer[place] = dialogue
	s.chatMu.Unlock()
}
