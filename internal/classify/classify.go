// Package classify maps free-text activity descriptions onto a closed label
// set with fixed emoji. Everything an external language model produces passes
// through here, so the client only ever sees a small stable vocabulary.
package classify

import "strings"

// Canonical activity labels.
const (
	LabelSleep       = "睡覺"
	LabelRest        = "休息"
	LabelEat         = "吃飯"
	LabelChat        = "聊天"
	LabelWork        = "工作"
	LabelStudy       = "學習"
	LabelWake        = "醒來"
	LabelUnconscious = "意識不明"
	LabelInit        = "初始化中"
	LabelMoving      = "移動中"
)

// Disaster reaction labels.
const (
	LabelSeekCover      = "尋找遮蔽物"
	LabelHideUnderDesk  = "躲到桌下"
	LabelFindExit       = "尋找安全出口"
	LabelLeadEvacuation = "指揮疏散"
	LabelCalmOthers     = "安撫他人"
	LabelSeekMedical    = "尋找醫療救助"
	LabelHelpInjured    = "協助受傷的人"
	LabelAssessArea     = "評估周圍環境"
	LabelEvacToSubway   = "撤離到地鐵"
	LabelShelterSubway  = "在地鐵避難"
)

// emojiByLabel is the fixed label→emoji table.
var emojiByLabel = map[string]string{
	LabelSleep:       "😴",
	LabelRest:        "🛋️",
	LabelEat:         "🍕",
	LabelChat:        "💬",
	LabelWork:        "💼",
	LabelStudy:       "📚",
	LabelWake:        "☀️",
	LabelUnconscious: "😵",
	LabelInit:        "⏳",
	LabelMoving:      "🚶",

	LabelSeekCover:      "⛑️",
	LabelHideUnderDesk:  "🙈",
	LabelFindExit:       "🚪",
	LabelLeadEvacuation: "📢",
	LabelCalmOthers:     "🤗",
	LabelSeekMedical:    "🏥",
	LabelHelpInjured:    "🤝",
	LabelAssessArea:     "🔍",
	LabelEvacToSubway:   "🏃",
	LabelShelterSubway:  "🚇",
}

// rule associates keywords with a canonical label. Rules are evaluated in
// order; within a rule, keywords are substring-matched (CJK) or matched on
// the lower-cased input (ASCII). More specific rules come first.
type rule struct {
	label    string
	keywords []string
}

var rules = []rule{
	// Disaster vocabulary first: these phrases embed generic words like
	// 尋找 or 協助 that must not fall through to the daily labels.
	{LabelShelterSubway, []string{"在地鐵避難", "地鐵避難", "月台避難"}},
	{LabelEvacToSubway, []string{"撤離到地鐵", "撤離", "往地鐵", "前往地鐵"}},
	{LabelHelpInjured, []string{"協助受傷", "救助傷患", "幫助傷者", "救人", "搶救"}},
	{LabelSeekMedical, []string{"尋找醫療", "醫療救助", "就醫", "包紮", "急救"}},
	{LabelLeadEvacuation, []string{"指揮疏散", "指揮", "組織撤離", "帶領大家"}},
	{LabelCalmOthers, []string{"安撫", "穩定情緒", "鼓勵他人"}},
	{LabelHideUnderDesk, []string{"躲到桌下", "桌下", "躲在桌"}},
	{LabelFindExit, []string{"安全出口", "逃生口", "出口"}},
	{LabelAssessArea, []string{"評估周圍", "評估環境", "觀察周圍", "查看損害", "檢查建築"}},
	{LabelSeekCover, []string{"尋找遮蔽", "遮蔽物", "掩護", "躲避", "避難"}},

	{LabelWake, []string{"醒來", "起床", "晨間", "早起", "自然醒", "wake"}},
	{LabelSleep, []string{"睡覺", "睡眠", "就寢", "入睡", "午睡", "打盹", "小睡", "躺下", "sleep"}},
	{LabelChat, []string{"聊天", "交談", "對話", "閒聊", "談話", "chat"}},
	{LabelEat, []string{"吃飯", "用餐", "早餐", "午餐", "晚餐", "宵夜", "聚餐", "便當", "外食", "eat", "lunch", "dinner", "breakfast"}},
	{LabelStudy, []string{"學習", "上課", "讀書", "唸書", "複習", "寫作業", "圖書館", "上學", "study", "class"}},
	{LabelWork, []string{"工作", "上班", "辦公", "會議", "專案", "開會", "加班", "下班", "work", "meeting"}},
	{LabelMoving, []string{"移動", "前往", "走去", "走向", "出發", "路上", "通勤", "搭車"}},
	{LabelRest, []string{"休息", "放鬆", "小憩", "健身", "運動", "鍛鍊", "跑步", "瑜伽", "購物", "採購", "逛街", "散步", "娛樂", "看電影", "喝咖啡", "家務", "打掃", "整理", "rest", "relax", "gym", "shopping"}},
}

// Classify maps a free-text action onto (label, emoji). Unmatchable input
// falls back to 意識不明.
func Classify(raw string) (string, string) {
	if raw == "" {
		return LabelUnconscious, emojiByLabel[LabelUnconscious]
	}

	// A known emoji anywhere in the input owns the classification.
	for label, emoji := range emojiByLabel {
		if strings.Contains(raw, emoji) {
			return label, emoji
		}
	}

	// Exact canonical label short-circuits the keyword scan.
	if emoji, ok := emojiByLabel[raw]; ok {
		return raw, emoji
	}

	lowered := strings.ToLower(raw)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if isASCII(kw) {
				if strings.Contains(lowered, kw) {
					return r.label, emojiByLabel[r.label]
				}
			} else if strings.Contains(raw, kw) {
				return r.label, emojiByLabel[r.label]
			}
		}
	}

	return LabelUnconscious, emojiByLabel[LabelUnconscious]
}

// Emoji returns the fixed emoji for a canonical label, or ❓ for an unknown
// label.
func Emoji(label string) string {
	if e, ok := emojiByLabel[label]; ok {
		return e
	}
	return "❓"
}

// IsCanonical reports whether label belongs to the closed label set.
func IsCanonical(label string) bool {
	_, ok := emojiByLabel[label]
	return ok
}

// IsDisasterLabel reports whether label is one of the disaster reactions.
func IsDisasterLabel(label string) bool {
	switch label {
	case LabelSeekCover, LabelHideUnderDesk, LabelFindExit, LabelLeadEvacuation,
		LabelCalmOthers, LabelSeekMedical, LabelHelpInjured, LabelAssessArea,
		LabelEvacToSubway, LabelShelterSubway:
		return true
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
