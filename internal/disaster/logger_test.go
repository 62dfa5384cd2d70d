package disaster

import (
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/talgya/ai-town/internal/town"
)

func testLogger() (*Logger, time.Time) {
	l := NewLogger(slog.Default())
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	l.StartDisaster(start)
	return l, start
}

func TestRecordDropsBeforeStart(t *testing.T) {
	l := NewLogger(slog.Default())
	l.Record("小明", KindLoss, time.Now(), map[string]any{"傷害": 10})
	if evs := l.Events("小明"); len(evs) != 0 {
		t.Fatalf("pre-start loss recorded: %v", evs)
	}

	l.Record("小明", KindInit, time.Now(), map[string]any{"message": "初始化完成"})
	if evs := l.Events("小明"); len(evs) != 1 {
		t.Fatalf("初始化 events should record before onset, got %d", len(evs))
	}
}

func TestScoresLossAndResponse(t *testing.T) {
	l, start := testLogger()
	l.Record("小明", KindReaction, start.Add(3*time.Second), map[string]any{"反應": "尋找遮蔽物"})
	l.Record("小明", KindLoss, start.Add(time.Minute), map[string]any{"傷害": 30})
	l.Record("小明", KindLoss, start.Add(2*time.Minute), map[string]any{"傷害": 20})

	s := l.Scores(map[string]int{"小明": 50})["小明"]
	if s.Loss != 5 {
		t.Errorf("loss score = %.2f, want 5 (50 damage)", s.Loss)
	}
	// Reaction within the 5 second grace window scores full marks.
	if s.Response != 10 {
		t.Errorf("response score = %.2f, want 10", s.Response)
	}
	if s.Total != 15 {
		t.Errorf("total = %.2f, want 15", s.Total)
	}
}

func TestScoresSlowResponse(t *testing.T) {
	l, start := testLogger()
	l.Record("小華", KindReaction, start.Add(60*time.Second), nil)

	s := l.Scores(nil)["小華"]
	want := 10 - (60.0-5)/55*10
	if math.Abs(s.Response-want) > 0.01 {
		t.Errorf("response = %.2f, want %.2f", s.Response, want)
	}

	// Past the full window the response score bottoms out at zero.
	l2, start2 := testLogger()
	l2.Record("小華", KindReaction, start2.Add(10*time.Minute), nil)
	if s := l2.Scores(nil)["小華"]; s.Response != 0 {
		t.Errorf("late response = %.2f, want 0", s.Response)
	}
}

func TestScoresCooperation(t *testing.T) {
	l, start := testLogger()
	at := start.Add(time.Minute)
	// Effective: helped peer ends above their HP at help time.
	l.Record("小明", KindCoop, at, map[string]any{"受助者": "小華", "原始HP": 40, "治療量": 15})
	// Ineffective: peer ends no better off.
	l.Record("小明", KindCoop, at, map[string]any{"受助者": "小強", "原始HP": 70, "治療量": 5})
	// Unverifiable: no target.
	l.Record("小明", KindCoop, at, map[string]any{"message": "精神支持"})

	s := l.Scores(map[string]int{"小華": 55, "小強": 60})["小明"]
	if s.CoopEvents != 3 {
		t.Errorf("coop events = %d, want 3", s.CoopEvents)
	}
	if s.Coop != 2.5 {
		t.Errorf("coop score = %.2f, want 2.5 (one effective)", s.Coop)
	}
	if !strings.Contains(s.Notes, "記錄合作 3 次") || !strings.Contains(s.Notes, "有效合作 1 次") {
		t.Errorf("notes = %q", s.Notes)
	}
}

func TestScoresCoopCap(t *testing.T) {
	l, start := testLogger()
	at := start.Add(time.Minute)
	for i := 0; i < 6; i++ {
		l.Record("小明", KindCoop, at, map[string]any{"受助者": "小華", "原始HP": 10})
	}
	s := l.Scores(map[string]int{"小華": 90})["小明"]
	if s.Coop != 10 {
		t.Errorf("coop score = %.2f, want capped at 10", s.Coop)
	}
}

func TestScoresQuarrelPenalty(t *testing.T) {
	l, start := testLogger()
	l.Record("小明", KindReaction, start.Add(time.Second), nil)
	l.Record("小明", KindQuarrel, start.Add(time.Minute), map[string]any{"類型": "route"})
	l.Record("小明", KindQuarrel, start.Add(2*time.Minute), map[string]any{"類型": "rescue"})

	s := l.Scores(nil)["小明"]
	// 10 loss + 10 response - 4 penalty.
	if s.Total != 16 {
		t.Errorf("total = %.2f, want 16", s.Total)
	}

	// Totals never go negative.
	l2, start2 := testLogger()
	for i := 0; i < 20; i++ {
		l2.Record("小華", KindQuarrel, start2.Add(time.Minute), nil)
	}
	l2.Record("小華", KindLoss, start2.Add(time.Minute), map[string]any{"傷害": 200})
	if s := l2.Scores(nil)["小華"]; s.Total != 0 {
		t.Errorf("floor total = %.2f, want 0", s.Total)
	}
}

func TestReset(t *testing.T) {
	l, start := testLogger()
	l.Record("小明", KindLoss, start.Add(time.Minute), map[string]any{"傷害": 10})
	l.Reset()
	if len(l.AllEvents()) != 0 {
		t.Error("reset should clear events")
	}
	// After reset the logger is back to pre-onset gating.
	l.Record("小明", KindLoss, start.Add(2*time.Minute), map[string]any{"傷害": 10})
	if len(l.Events("小明")) != 0 {
		t.Error("post-reset events should be gated until the next onset")
	}
}

func TestGenerateReport(t *testing.T) {
	l, start := testLogger()
	l.Record("小明", KindReaction, start.Add(time.Second), nil)
	l.Record("小華", KindReaction, start.Add(time.Second), nil)
	l.Record("小華", KindLoss, start.Add(time.Minute), map[string]any{"傷害": 35})

	rep := l.GenerateReport(map[string]int{"小明": 100, "小華": 65})
	if len(rep.Scores) != 2 {
		t.Fatalf("scores for %d agents", len(rep.Scores))
	}
	for _, want := range []string{"災難模擬評分報表", "代理人", "小明", "小華", "記錄合作 0 次"} {
		if !strings.Contains(rep.Text, want) {
			t.Errorf("report text missing %q:\n%s", want, rep.Text)
		}
	}
	// Name-ordered rows: 小明 sorts before 小華.
	if strings.Index(rep.Text, "小明") > strings.Index(rep.Text, "小華") {
		t.Error("rows should be sorted by agent name")
	}
}

func TestBuildingReport(t *testing.T) {
	pristine := []town.Building{{ID: "School", Integrity: 100}}
	txt := BuildingReport(pristine, true)
	if !strings.Contains(txt, "災前建築狀況評估") || !strings.Contains(txt, "所有建築狀況良好") {
		t.Errorf("pristine report:\n%s", txt)
	}

	damaged := []town.Building{
		{ID: "School", Integrity: 62.5},
		{ID: "Gym", Integrity: 100},
	}
	txt = BuildingReport(damaged, false)
	if !strings.Contains(txt, "災後最終損傷報告") || !strings.Contains(txt, "School: 完整度 62.5%") {
		t.Errorf("damaged report:\n%s", txt)
	}
	if strings.Contains(txt, "Gym:") {
		t.Error("intact buildings should not be listed as damaged")
	}
}
