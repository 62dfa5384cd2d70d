package agent

import (
	"os"
	"path/filepath"
	"strings"
)

// builtinPersonas describes each type when no persona file overrides it.
var builtinPersonas = map[string]string{
	"ISTJ": "務實、重視規則與秩序，遇事先查證再行動，不喜歡計畫被打亂。",
	"ISFJ": "溫和體貼，習慣默默照顧身邊的人，對熟悉的環境有很強的依賴。",
	"INFJ": "安靜而有理想，關心他人的感受，喜歡有意義的深度交談。",
	"INTJ": "獨立的策略家，凡事講求效率與長期規劃，對閒聊沒什麼耐心。",
	"ISTP": "冷靜的動手派，擅長在混亂中找到實際的解決辦法。",
	"ISFP": "隨性溫柔，喜歡自己的小世界，對美的事物特別敏感。",
	"INFP": "理想主義者，內心戲豐富，願意為別人的困境付出。",
	"INTP": "好奇的分析者，常沉浸在自己的思考裡，說話直接。",
	"ESTP": "精力充沛的行動派，反應快，愛冒險，討厭被關在室內。",
	"ESFP": "開朗愛熱鬧，走到哪裡都能交到朋友，情緒寫在臉上。",
	"ENFP": "熱情洋溢的點子王，容易被新鮮事物吸引，也容易分心。",
	"ENTP": "愛辯論的發明家，喜歡挑戰既有的做法，嘴上不饒人。",
	"ESTJ": "天生的組織者，講求紀律與執行力，習慣指揮大局。",
	"ESFJ": "熱心的照顧者，重視和諧，看到別人需要幫忙就閒不下來。",
	"ENFJ": "有感染力的協調者，擅長鼓舞他人，把團體的氣氛看得很重。",
	"ENTJ": "果斷的領導者，目標導向，緊急時刻會自然接管指揮。",
}

// Profile is one agent's personality card.
type Profile struct {
	Name    string
	MBTI    string
	Desc    string
	Coop    float64
}

// LoadProfiles reads persona files from dir, one subdirectory per MBTI type
// with a 1.txt holding "Name:", "MBTI:" and "Personality:" lines. Types
// without a file fall back to the built-in descriptions.
func LoadProfiles(dir string) map[string]Profile {
	profiles := make(map[string]Profile)
	for mbti, desc := range builtinPersonas {
		profiles[mbti] = Profile{Name: mbti, MBTI: mbti, Desc: desc, Coop: CooperationBase(mbti)}
	}
	if dir == "" {
		return profiles
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return profiles
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		mbti := strings.ToUpper(e.Name())
		content, err := os.ReadFile(filepath.Join(dir, e.Name(), "1.txt"))
		if err != nil {
			continue
		}
		p := parseProfile(string(content))
		if p.Name == "" {
			p.Name = mbti
		}
		p.MBTI = mbti
		if p.Desc == "" {
			p.Desc = builtinPersonas[mbti]
		}
		p.Coop = CooperationBase(mbti)
		profiles[mbti] = p
	}
	return profiles
}

func parseProfile(content string) Profile {
	var p Profile
	for _, line := range strings.Split(content, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch {
		case strings.Contains(key, "name"):
			p.Name = value
		case strings.Contains(key, "mbti"):
			p.MBTI = strings.ToUpper(value)
		case strings.Contains(key, "personality"):
			p.Desc = value
		}
	}
	return p
}
