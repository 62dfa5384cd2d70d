package agent

import (
	"log/slog"
	"testing"

	"github.com/talgya/ai-town/internal/classify"
	"github.com/talgya/ai-town/internal/config"
	"github.com/talgya/ai-town/internal/entropy"
	"github.com/talgya/ai-town/internal/town"
)

func testAgent(name, mbti string, seed int64) *Agent {
	p := Profile{Name: name, MBTI: mbti, Desc: "測試用個性", Coop: CooperationBase(mbti)}
	available := town.CanGoPlaces()
	return New(p, town.ApartmentF1, available, nil, entropy.New(seed), config.Default(), slog.Default())
}

func TestDamageAndHeal(t *testing.T) {
	a := testAgent("小明", "INTJ", 1)
	if a.Health() != 100 || a.Injured() || !a.Alive() {
		t.Fatalf("fresh agent: hp=%d injured=%v", a.Health(), a.Injured())
	}

	if lost := a.Damage(30); lost != 30 {
		t.Errorf("Damage(30) lost %d", lost)
	}
	if a.Injured() {
		t.Error("70 HP should not be injured")
	}
	if lost := a.Damage(15); lost != 15 || !a.Injured() {
		t.Errorf("55 HP should cross the injury threshold, lost=%d injured=%v", lost, a.Injured())
	}

	if lost := a.Damage(200); lost != 55 {
		t.Errorf("overkill lost %d, want clamp at 55", lost)
	}
	if a.Alive() || a.MentalState != StateUnconscious || a.CurrAction != classify.LabelUnconscious {
		t.Errorf("knocked out: alive=%v state=%q action=%q", a.Alive(), a.MentalState, a.CurrAction)
	}

	if restored := a.Heal(20); restored != 20 {
		t.Errorf("Heal(20) restored %d", restored)
	}
	if !a.Alive() || !a.Injured() {
		t.Errorf("20 HP should be alive but injured")
	}
	if restored := a.Heal(500); restored != 80 {
		t.Errorf("overheal restored %d, want cap at 80", restored)
	}
	if a.Injured() {
		t.Error("full HP should clear the injured flag")
	}
}

func TestIsAsleep(t *testing.T) {
	a := testAgent("小明", "ISFJ", 1)
	a.WakeTime, a.SleepTime = "07-00", "23-00"
	cases := []struct {
		hm   string
		want bool
	}{
		{hm: "06-59", want: true},
		{hm: "07-00", want: false},
		{hm: "12-30", want: false},
		{hm: "22-59", want: false},
		{hm: "23-00", want: true},
		{hm: "03-00", want: true},
	}
	for _, tc := range cases {
		if got := a.IsAsleep(tc.hm); got != tc.want {
			t.Errorf("IsAsleep(%q) = %v, want %v", tc.hm, got, tc.want)
		}
	}

	// Waking window that wraps past midnight.
	a.WakeTime, a.SleepTime = "22-00", "06-00"
	if a.IsAsleep("23-00") || a.IsAsleep("02-00") {
		t.Error("night owl should be awake at 23-00 and 02-00")
	}
	if !a.IsAsleep("12-00") {
		t.Error("night owl should sleep at noon")
	}

	if a.IsAsleep("not a time") {
		t.Error("malformed hm should not report asleep")
	}
}

func TestThinkingSpans(t *testing.T) {
	a := testAgent("小明", "ENFP", 1)
	if a.IsThinking() {
		t.Fatal("fresh agent should not be thinking")
	}
	a.EnterThinking()
	a.EnterThinking()
	a.ExitThinking()
	if !a.IsThinking() {
		t.Error("nested span still open")
	}
	a.ExitThinking()
	a.ExitThinking() // extra exit must not go negative
	if a.IsThinking() {
		t.Error("all spans closed")
	}
}

func TestInterruptAction(t *testing.T) {
	a := testAgent("小明", "INTJ", 1)
	a.CurrAction = "寫程式"
	a.InterruptAction()
	if a.InterruptedAction != "寫程式" {
		t.Errorf("interrupted = %q", a.InterruptedAction)
	}
	a.CurrAction = classify.LabelSleep
	a.InterruptAction()
	if a.InterruptedAction != "" {
		t.Error("sleep is not worth resuming")
	}
}

func TestMemoryTail(t *testing.T) {
	a := testAgent("小明", "INTJ", 1)
	a.Memory = ""
	for i := 0; i < 100; i++ {
		a.AppendMemory("今天在學校上課，下午去健身房運動。")
	}
	tail := a.MemoryTail()
	limit := a.cfg.Social.MemoryTailChars
	if n := len([]rune(tail)); n != limit {
		t.Errorf("tail is %d runes, want %d", n, limit)
	}
	if a.Memory[len(a.Memory)-len(tail):] != tail {
		t.Error("tail should be the trailing portion of memory")
	}
}

func TestCooperationInclination(t *testing.T) {
	if CooperationBase("INTJ") != 0.3 || CooperationBase("ENFJ") != 0.9 {
		t.Error("base table mismatch")
	}
	if CooperationBase("怪") != 0.5 {
		t.Error("unknown MBTI should default to 0.5")
	}

	// ENFJ: diplomat +0.15, extrovert +0.10, judger +0.10.
	if got := DisasterBonus("ENFJ"); got != 0.35 {
		t.Errorf("DisasterBonus(ENFJ) = %.2f", got)
	}
	// INFJ: diplomat +0.15, judger +0.10, IN prefix +0.10.
	if got := DisasterBonus("INFJ"); got != 0.35 {
		t.Errorf("DisasterBonus(INFJ) = %.2f", got)
	}
	if got := DisasterBonus("ISTP"); got != 0 {
		t.Errorf("DisasterBonus(ISTP) = %.2f, want 0", got)
	}

	// Inclination caps at 1.
	a := testAgent("小華", "ENFJ", 1)
	if a.CooperationInclination() != 1 {
		t.Errorf("inclination = %.2f, want cap at 1", a.CooperationInclination())
	}
}

func TestTraitPredicates(t *testing.T) {
	if !IsSentinel("ISTJ") || !IsSentinel("ESFJ") || IsSentinel("INTJ") {
		t.Error("sentinel predicate")
	}
	if !IsExplorer("ESFP") || IsExplorer("ENFP") {
		t.Error("explorer predicate")
	}
	if !IsDiplomat("INFP") || IsDiplomat("INTP") {
		t.Error("diplomat predicate")
	}
	if !IsRationalThinker("ENTJ") || !IsRationalThinker("ISTP") || IsRationalThinker("ISTJ") {
		t.Error("rational thinker predicate")
	}
	if !IsLeader("ENTJ") || IsLeader("ENFJ") {
		t.Error("leader predicate")
	}
	if !IsContrarian("ENFP") || !IsContrarian("ISTP") || IsContrarian("ISTJ") {
		t.Error("contrarian predicate")
	}
	if !IsIntrovert("intj") || IsIntrovert("ENTJ") || !IsExtrovert("esfp") {
		t.Error("attitude predicates")
	}
}

func TestTeleport(t *testing.T) {
	a := testAgent("小明", "INTJ", 1)
	a.CurrPlace = "健身房_室內"
	a.TargetPlace = town.Exterior

	ev := a.Teleport("健身房_室內")
	if ev == nil {
		t.Fatal("known portal should traverse")
	}
	if ev.ToPortal != "健身房_室外" || ev.FinalLocation != town.Exterior {
		t.Errorf("event = %+v", ev)
	}
	if a.CurrPlace != town.Exterior || a.PreviousPlace != "健身房_室內" {
		t.Errorf("place = %q prev = %q", a.CurrPlace, a.PreviousPlace)
	}
	evs := a.DrainSyncEvents()
	if len(evs) != 1 || evs[0].Type != "teleport" {
		t.Errorf("sync events = %+v", evs)
	}
	if len(a.DrainSyncEvents()) != 0 {
		t.Error("drain should clear the queue")
	}

	if ev := a.Teleport("不存在的門"); ev != nil {
		t.Errorf("unknown portal traversed: %+v", ev)
	}
}
