package protocol

import (
	"encoding/json"
	"testing"
)

const validStart = `{
  "duration": 1440,
  "step": 10,
  "eq_step": 1,
  "year": 2025, "month": 3, "day": 1, "hour": 7, "minute": 0,
  "mbti": ["INTJ", "ESFP"],
  "initial_positions": {"INTJ": "Apartment_F1"},
  "eq_enabled": true,
  "eq_json": "[{\"time\": \"2025-03-01-09-00\", \"duration\": 5, \"intensity\": 0.8}]",
  "use_default_calendar": false,
  "max_chat_groups": 2,
  "step_sync": true
}`

func TestParseStart(t *testing.T) {
	p, err := ParseStart(json.RawMessage(validStart))
	if err != nil {
		t.Fatalf("ParseStart: %v", err)
	}
	if p.Duration != 1440 || p.Step != 10 || !p.EqEnabled || !p.StepSync {
		t.Errorf("decoded params = %+v", p)
	}
	if len(p.MBTI) != 2 || p.MBTI[0] != "INTJ" {
		t.Errorf("mbti = %v", p.MBTI)
	}
	if p.InitialPositions["INTJ"] != "Apartment_F1" {
		t.Errorf("initial positions = %v", p.InitialPositions)
	}
}

func TestParseStartRejects(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "not json", raw: "{duration:"},
		{name: "missing duration", raw: `{"step": 10, "mbti": ["INTJ"]}`},
		{name: "zero step", raw: `{"duration": 60, "step": 0, "mbti": ["INTJ"]}`},
		{name: "bad mbti", raw: `{"duration": 60, "step": 10, "mbti": ["XXXX"]}`},
		{name: "empty roster", raw: `{"duration": 60, "step": 10, "mbti": []}`},
		{name: "bad month", raw: `{"duration": 60, "step": 10, "mbti": ["INTJ"], "month": 13}`},
	}
	for _, tc := range cases {
		if _, err := ParseStart(json.RawMessage(tc.raw)); err == nil {
			t.Errorf("%s: ParseStart accepted %q", tc.name, tc.raw)
		}
	}
}

func TestParseStartDefaultsChatGroups(t *testing.T) {
	p, err := ParseStart(json.RawMessage(`{"duration": 60, "step": 10, "mbti": ["INTJ"]}`))
	if err != nil {
		t.Fatalf("ParseStart: %v", err)
	}
	if p.MaxChatGroups != 1 {
		t.Errorf("max chat groups = %d, want clamp to 1", p.MaxChatGroups)
	}
}

func TestParseQuakes(t *testing.T) {
	events, err := ParseQuakes(`[{"time": "2025-03-01-09-00", "duration": 5, "intensity": 0.8}]`)
	if err != nil {
		t.Fatalf("ParseQuakes: %v", err)
	}
	if len(events) != 1 || events[0].Intensity != 0.8 || events[0].Duration != 5 {
		t.Errorf("events = %+v", events)
	}

	if events, err := ParseQuakes(""); err != nil || events != nil {
		t.Errorf("empty eq_json = %v, %v", events, err)
	}
	if _, err := ParseQuakes("not json"); err == nil {
		t.Error("malformed eq_json should fail")
	}
}
