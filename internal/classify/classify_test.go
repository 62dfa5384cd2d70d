package classify

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: LabelUnconscious},
		{in: LabelWork, want: LabelWork},
		{in: "在辦公室開會討論專案", want: LabelWork},
		{in: "和朋友閒聊幾句", want: LabelChat},
		{in: "準備吃午餐", want: LabelEat},
		{in: "going to sleep", want: LabelSleep},
		{in: "趕快撤離到地鐵站", want: LabelEvacToSubway},
		{in: "在地鐵避難等待餘震結束", want: LabelShelterSubway},
		{in: "協助受傷的鄰居", want: LabelHelpInjured},
		{in: "躲到桌下避免掉落物", want: LabelHideUnderDesk},
		{in: "完全無法理解的動作", want: LabelUnconscious},
	}
	for _, tc := range cases {
		label, emoji := Classify(tc.in)
		if label != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.in, label, tc.want)
			continue
		}
		if emoji != Emoji(label) {
			t.Errorf("Classify(%q) emoji %q != Emoji(%q) %q", tc.in, emoji, label, Emoji(label))
		}
	}
}

func TestClassifyEmojiPassthrough(t *testing.T) {
	// A known emoji in the input decides the label outright.
	label, _ := Classify("目前狀態 " + Emoji(LabelEat))
	if label != LabelEat {
		t.Errorf("emoji passthrough = %q", label)
	}
}

func TestEmoji(t *testing.T) {
	if Emoji(LabelSleep) == "" || Emoji(LabelSleep) == "❓" {
		t.Error("canonical label must have a fixed emoji")
	}
	if Emoji("外星人") != "❓" {
		t.Error("unknown label should fall back to ❓")
	}
}

func TestIsCanonicalAndDisaster(t *testing.T) {
	for _, label := range []string{LabelSleep, LabelWake, LabelSeekCover, LabelShelterSubway} {
		if !IsCanonical(label) {
			t.Errorf("%q should be canonical", label)
		}
	}
	if IsCanonical("發呆") {
		t.Error("發呆 is not canonical")
	}

	if !IsDisasterLabel(LabelEvacToSubway) {
		t.Error("撤離到地鐵 is a disaster label")
	}
	if IsDisasterLabel(LabelWork) {
		t.Error("工作 is not a disaster label")
	}
}
