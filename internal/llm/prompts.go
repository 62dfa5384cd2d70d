package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/talgya/ai-town/internal/entropy"
	"github.com/talgya/ai-town/internal/schedule"
)

// Typed wrappers over the generic Text/Object entry points. Each carries its
// own fallback, so callers always get a usable value.

// GenerateInitialMemory writes an agent's opening backstory. ok is false when
// the model could not be reached and the placeholder memory was returned.
func (c *Client) GenerateInitialMemory(ctx context.Context, name, mbti, persona, home string) (string, bool) {
	const fallback = "記憶生成失敗，請檢查LLM連線。"
	out := c.Text(ctx, "generate_initial_memory",
		[]string{name, mbti, persona, home},
		"僅返回描述代理人背景故事的純文字字串。", fallback)
	return out, out != fallback
}

var weekdayKeys = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// GenerateWeeklySchedule produces a goal per weekday.
func (c *Client) GenerateWeeklySchedule(ctx context.Context, persona string) (map[string]string, bool) {
	fallback := make(map[string]string, 7)
	for _, d := range weekdayKeys {
		fallback[d] = "自由活動"
	}
	var out map[string]string
	if !c.Object(ctx, "generate_weekly_schedule", []string{persona},
		"返回一個包含七天（Monday-Sunday）鍵的 JSON 物件。", fallback, &out) {
		return fallback, false
	}
	if len(out) != 7 {
		return fallback, false
	}
	return out, true
}

// GenerateHourlySchedule produces today's duration list. The fallback is a
// single all-day free-time block.
func (c *Client) GenerateHourlySchedule(ctx context.Context, persona, nowTime, todayGoal string) []schedule.HourlyEntry {
	fallback := []schedule.HourlyEntry{{Label: "自由活動", Minutes: 1440}}
	example := [][]any{{"自由活動", 1440}}

	var raw [][]any
	if !c.Object(ctx, "generate_schedule", []string{persona, nowTime, todayGoal},
		"返回一個列表，其中每個子列表包含[活動名稱, 持續分鐘數]。", example, &raw) {
		return fallback
	}
	entries := make([]schedule.HourlyEntry, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 {
			continue
		}
		label, ok := pair[0].(string)
		if !ok || label == "" {
			continue
		}
		minutes := toMinutes(pair[1])
		if minutes <= 0 {
			continue
		}
		entries = append(entries, schedule.HourlyEntry{Label: label, Minutes: minutes})
	}
	if len(entries) == 0 {
		return fallback
	}
	return entries
}

func toMinutes(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

var hmPattern = regexp.MustCompile(`\b([0-1][0-9]|2[0-3])[:\-]([0-5][0-9])\b`)

// WakeUpHour asks when the agent gets up today, normalized to HH-MM. Garbage
// output falls back to a random morning hour.
func (c *Client) WakeUpHour(ctx context.Context, rng *entropy.Source, persona, nowTime string, hourly []schedule.HourlyEntry) string {
	fallback := fmt.Sprintf("%02d-%s", rng.Between(6, 8), entropy.Pick(rng, []string{"00", "15", "30"}))
	pairs := make([][]any, 0, len(hourly))
	for _, h := range hourly {
		pairs = append(pairs, []any{h.Label, h.Minutes})
	}
	encoded, err := json.Marshal(pairs)
	if err != nil {
		return fallback
	}
	raw := c.Text(ctx, "wake_up_hour", []string{persona, nowTime, string(encoded)},
		`返回 "HH:MM" 或 "HH-MM" 格式的時間字串。`, fallback)
	if m := hmPattern.FindStringSubmatch(raw); m != nil {
		return m[1] + "-" + m[2]
	}
	return fallback
}

// Pronunciatio asks for an emoji for an uncommon action.
func (c *Client) Pronunciatio(ctx context.Context, action string) string {
	return c.Text(ctx, "pronunciatio", []string{action}, "只返回一個最適合的 emoji 圖標字串。", "❓")
}

// ActionThought produces a one-line inner thought about starting an action.
func (c *Client) ActionThought(ctx context.Context, persona, place, action string) string {
	return c.Text(ctx, "generate_action_thought", []string{persona, place, action},
		"返回一句約20字的簡短內心想法字串。", "")
}

type actionThought struct {
	Action  string `json:"action"`
	Thought string `json:"thought"`
}

// EarthquakeStepAction decides what an agent does mid-quake.
func (c *Client) EarthquakeStepAction(ctx context.Context, persona string, health int, mental, place string, intensity float64, disasterLog []string) (action, thought string) {
	fallback := actionThought{Action: "保持警惕", Thought: "(恐懼中...)"}
	out := fallback
	c.Object(ctx, "earthquake_step_action",
		[]string{persona, strconv.Itoa(health), mental, place, formatIntensity(intensity), strings.Join(disasterLog, "\n")},
		`輸出包含 "action" 和 "thought" 鍵的 JSON 物件。`, fallback, &out)
	if out.Action == "" {
		out.Action = fallback.Action
	}
	if out.Thought == "" {
		out.Thought = fallback.Thought
	}
	return out.Action, out.Thought
}

func formatIntensity(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ChatParticipant is one side of a two-agent conversation.
type ChatParticipant struct {
	Name    string
	MBTI    string
	Persona string
	Memory  string
	Action  string
}

// ChatContext is everything a dialogue generation needs.
type ChatContext struct {
	Location   string
	A, B       ChatParticipant
	NowTime    string
	EnvContext string
	History    [][]string
}

type chatResult struct {
	Thought  string     `json:"thought"`
	Dialogue [][]string `json:"dialogue"`
}

// DoubleChat generates a short conversation between two co-located agents.
// Dialogue entries are [speaker, line] pairs.
func (c *Client) DoubleChat(ctx context.Context, cc ChatContext) (thought string, dialogue [][]string) {
	fallback := chatResult{Thought: "解析錯誤。", Dialogue: [][]string{}}
	env := cc.EnvContext
	if env == "" {
		env = "目前一切正常。"
	}
	history, err := json.Marshal(cc.History)
	if err != nil {
		history = []byte("[]")
	}
	out := fallback
	c.Object(ctx, "double_chat",
		[]string{
			cc.Location,
			cc.A.Name, cc.A.MBTI, cc.A.Persona, cc.A.Memory,
			cc.B.Name, cc.B.MBTI, cc.B.Persona, cc.B.Memory,
			cc.NowTime, cc.A.Action, cc.B.Action,
			env, string(history),
		},
		`輸出一個包含 "thought" 和 "dialogue" 鍵的 JSON 物件。`, fallback, &out)
	return out.Thought, out.Dialogue
}

// MonologueContext describes a lone agent about to think out loud.
type MonologueContext struct {
	Name       string
	MBTI       string
	Persona    string
	Location   string
	Action     string
	NowTime    string
	Memory     string
	EnvContext string
}

type monologueResult struct {
	Thought   string `json:"thought"`
	Monologue string `json:"monologue"`
}

// InnerMonologue generates a short self-directed line for an idle agent.
func (c *Client) InnerMonologue(ctx context.Context, mc MonologueContext) (thought, monologue string) {
	fallback := monologueResult{Thought: "解析錯誤。", Monologue: "（正在思考...）"}
	env := mc.EnvContext
	if env == "" {
		env = "目前一切正常。"
	}
	out := fallback
	c.Object(ctx, "inner_monologue",
		[]string{mc.Name, mc.MBTI, mc.Persona, mc.Location, mc.Action, mc.NowTime, mc.Memory, env},
		`輸出一個包含 "thought" 和 "monologue" 鍵的 JSON 物件。`, fallback, &out)
	return out.Thought, out.Monologue
}

// SummarizeDisaster condenses an agent's quake experience into one memory.
func (c *Client) SummarizeDisaster(ctx context.Context, name, mbti string, health int, experience []string) string {
	logStr := strings.Join(experience, "\n")
	if logStr == "" {
		logStr = "(沒有具體事件記錄)"
	}
	return c.Text(ctx, "summarize_disaster",
		[]string{name, mbti, strconv.Itoa(health), logStr},
		"返回簡短的災後記憶總結字串。", "經歷了一場地震，現在安全。")
}

// RecoveryAction suggests what an agent does during the recovery phase.
func (c *Client) RecoveryAction(ctx context.Context, persona, mental, place string) string {
	return c.Text(ctx, "get_recovery_action", []string{persona, mental, place},
		"返回建議的恢復行動短語字串。", "原地休息")
}

// SummarizeChat condenses a conversation into one memory line for an agent.
func (c *Client) SummarizeChat(ctx context.Context, dialogue, day, who string) string {
	return c.Text(ctx, "summarize_chat", []string{dialogue, day, who},
		"返回一句約30字的記憶總結字串。", "和別人聊了一會天。")
}

// GoMap picks the place an activity should happen at.
func (c *Client) GoMap(ctx context.Context, name, home, curr string, places []string, activity string) string {
	return c.Text(ctx, "go_map", []string{name, home, curr, strings.Join(places, "、"), activity},
		"請從清單中選出一個地點名稱，只返回該名稱。", home)
}

// ModifySchedule lets the model adjust a rolled schedule against recent
// memory. Entries are [label, "HH-MM"] pairs; malformed output keeps the
// input unchanged.
func (c *Client) ModifySchedule(ctx context.Context, items []schedule.Item, day, memory, persona string) []schedule.Item {
	pairs := make([][]string, 0, len(items))
	for _, it := range items {
		pairs = append(pairs, []string{it.Action, it.Start})
	}
	encoded, err := json.Marshal(pairs)
	if err != nil {
		return items
	}
	var raw [][]string
	if !c.Object(ctx, "modify_schedule", []string{string(encoded), day, memory, persona},
		"返回與輸入相同格式的列表，每個子列表包含[活動名稱, 開始時間]。", pairs, &raw) {
		return items
	}
	out := make([]schedule.Item, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 {
			continue
		}
		start, err := schedule.NormalizeHM(pair[1])
		if err != nil {
			continue
		}
		out = append(out, schedule.Item{Action: pair[0], Start: start, Target: pair[0]})
	}
	if len(out) == 0 {
		return items
	}
	schedule.SortItems(out)
	return out
}
