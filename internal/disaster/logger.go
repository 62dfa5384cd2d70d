// Package disaster records per-agent events during an earthquake and scores
// each inhabitant's response once the dust settles.
package disaster

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/talgya/ai-town/internal/town"
)

// Event kinds.
const (
	KindInit     = "初始化"
	KindReaction = "反應"
	KindLoss     = "損失"
	KindCoop     = "合作"
	KindQuarrel  = "爭吵"
)

// Event is one timestamped record for an agent.
type Event struct {
	Time    time.Time
	Kind    string
	Details map[string]any
}

// Logger accumulates events per agent for the duration of one disaster.
// Record is safe for concurrent use; the step runners call it from their own
// goroutines.
type Logger struct {
	mu      sync.Mutex
	log     *slog.Logger
	start   time.Time
	started bool
	events  map[string][]Event
}

// NewLogger returns an empty disaster logger.
func NewLogger(log *slog.Logger) *Logger {
	return &Logger{
		log:    log,
		events: make(map[string][]Event),
	}
}

// StartDisaster marks the simulated onset time. Events other than 初始化
// recorded before this are dropped.
func (l *Logger) StartDisaster(t time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.start = t
	l.started = true
	l.log.Info("disaster started", "at", t)
}

// Reset clears all recorded events for the next disaster.
func (l *Logger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = false
	l.events = make(map[string][]Event)
}

// Record appends one event for agent. Satisfies the agent package's recorder
// contract.
func (l *Logger) Record(agent, kind string, at time.Time, details map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.started && kind != KindInit {
		return
	}
	l.events[agent] = append(l.events[agent], Event{Time: at, Kind: kind, Details: details})
	if msg, ok := details["message"].(string); ok && msg != "" {
		l.log.Info("disaster event", "agent", agent, "kind", kind, "message", msg)
	}
}

// Events returns a copy of the recorded events for one agent.
func (l *Logger) Events(agent string) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	evs := l.events[agent]
	out := make([]Event, len(evs))
	copy(out, evs)
	return out
}

// AllEvents returns a copy of every agent's recorded events.
func (l *Logger) AllEvents() map[string][]Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string][]Event, len(l.events))
	for name, evs := range l.events {
		cp := make([]Event, len(evs))
		copy(cp, evs)
		out[name] = cp
	}
	return out
}

// Score is the per-agent evaluation at report time.
type Score struct {
	Loss       float64 `json:"loss_score"`
	Response   float64 `json:"response_score"`
	Coop       float64 `json:"coop_score"`
	Total      float64 `json:"total_score"`
	CoopEvents int     `json:"合作次數"`
	Notes      string  `json:"notes"`
}

// Report bundles the scores with the rendered table.
type Report struct {
	Scores map[string]Score `json:"scores"`
	Text   string           `json:"text"`
}

// Scores evaluates every agent that produced events. final maps agent name to
// final HP and is used to verify that cooperation actually left the helped
// peer better off.
func (l *Logger) Scores(final map[string]int) map[string]Score {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]Score, len(l.events))
	for agent, events := range l.events {
		totalLoss := 0.0
		reaction := math.Inf(1)
		quarrels := 0
		var coops []map[string]any

		for _, ev := range events {
			switch ev.Kind {
			case KindLoss:
				totalLoss += detailFloat(ev.Details, "傷害")
			case KindReaction:
				if l.started {
					if rt := ev.Time.Sub(l.start).Seconds(); rt < reaction {
						reaction = rt
					}
				}
			case KindCoop:
				coops = append(coops, ev.Details)
			case KindQuarrel:
				quarrels++
			}
		}

		loss := math.Max(0, 10-totalLoss/10)
		response := 0.0
		if !math.IsInf(reaction, 1) {
			response = math.Max(0, 10-math.Max(0, reaction-5)/55*10)
		}

		effective := 0
		for _, c := range coops {
			target, _ := c["受助者"].(string)
			orig, ok := detailInt(c, "原始HP")
			if target == "" || !ok {
				continue
			}
			if hp, found := final[target]; found && hp > orig {
				effective++
			}
		}
		coop := math.Min(10, float64(effective)*2.5)
		penalty := float64(quarrels) * 2

		total := math.Max(0, loss+response+coop-penalty)
		out[agent] = Score{
			Loss:       round2(loss),
			Response:   round2(response),
			Coop:       round2(coop),
			Total:      round2(total),
			CoopEvents: len(coops),
			Notes:      fmt.Sprintf("記錄合作 %d 次, 有效合作 %d 次, 爭吵 %d 次", len(coops), effective, quarrels),
		}
	}
	return out
}

// GenerateReport renders the evaluation as a fixed-width table with per-agent
// notes. Agents are listed in name order.
func (l *Logger) GenerateReport(final map[string]int) Report {
	scores := l.Scores(final)

	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	header := []string{"代理人", "總分", "損失", "反應", "合作", "合作次數"}
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		s := scores[name]
		row := []string{
			name,
			fmt.Sprintf("%.2f", s.Total),
			fmt.Sprintf("%.2f", s.Loss),
			fmt.Sprintf("%.2f", s.Response),
			fmt.Sprintf("%.2f", s.Coop),
			fmt.Sprintf("%d", s.CoopEvents),
		}
		rows = append(rows, row)
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	lines := []string{"--- 災難模擬評分報表 ---", ""}
	if len(rows) > 0 {
		lines = append(lines, joinRow(header, widths))
		sum := 0
		for _, w := range widths {
			sum += w
		}
		lines = append(lines, strings.Repeat("-", sum+2*(len(header)-1)), "")
		for i, row := range rows {
			lines = append(lines, joinRow(row, widths))
			if notes := scores[names[i]].Notes; notes != "" {
				lines = append(lines, "  • "+notes)
			}
			lines = append(lines, "")
		}
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return Report{Scores: scores, Text: strings.Join(lines, "\n")}
}

// BuildingReport renders the structural state of the town as text. initial
// selects the pre-quake assessment title.
func BuildingReport(buildings []town.Building, initial bool) string {
	title := "--- 災後最終損傷報告 ---"
	if initial {
		title = "--- 災前建築狀況評估 ---"
	}
	lines := []string{title, "建築狀況:"}

	var damaged []string
	for _, b := range buildings {
		if b.Integrity < 100 {
			damaged = append(damaged, fmt.Sprintf("  - %s: 完整度 %.1f%%", b.ID, b.Integrity))
		}
	}
	if len(damaged) > 0 {
		sort.Strings(damaged)
		lines = append(lines, damaged...)
	} else {
		lines = append(lines, "  所有建築狀況良好。")
	}
	lines = append(lines, "----------------------")
	return strings.Join(lines, "\n")
}

func joinRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = c + strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c))
	}
	return strings.TrimRight(strings.Join(padded, "  "), " ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func detailFloat(details map[string]any, key string) float64 {
	switch v := details[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func detailInt(details map[string]any, key string) (int, bool) {
	switch v := details[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}
