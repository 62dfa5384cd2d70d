package protocol

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestMarshalFrameSmall(t *testing.T) {
	f := Frame{Type: "update", Message: "ok", Data: map[string]any{"tick": 3}}
	chunks, err := MarshalFrame(f)
	if err != nil {
		t.Fatalf("MarshalFrame: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("small frame split into %d chunks", len(chunks))
	}
	want, _ := json.Marshal(f)
	if chunks[0] != string(want) {
		t.Errorf("chunk = %q, want %q", chunks[0], want)
	}
}

func TestMarshalFrameClampsStrings(t *testing.T) {
	// A single oversized multi-byte string forces the clamp pass.
	long := strings.Repeat("長", ChunkLimit)
	chunks, err := MarshalFrame(Frame{Type: "update", Data: map[string]any{"log": long}})
	if err != nil {
		t.Fatalf("MarshalFrame: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("clamped frame should fit one chunk, got %d", len(chunks))
	}

	var got Frame
	if err := json.Unmarshal([]byte(chunks[0]), &got); err != nil {
		t.Fatalf("chunk not valid JSON: %v", err)
	}
	s := got.Data.(map[string]any)["log"].(string)
	if !strings.HasSuffix(s, "...(已截斷)") {
		t.Errorf("clamped string missing truncation marker: ...%q", s[len(s)-30:])
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(s, "...(已截斷)")); n != 4000 {
		t.Errorf("clamped string keeps %d runes, want 4000", n)
	}
}

func TestMarshalFrameTrimsLists(t *testing.T) {
	items := make([]any, 400)
	for i := range items {
		items[i] = strings.Repeat("記", 300)
	}
	chunks, err := MarshalFrame(Frame{Type: "update", Data: map[string]any{"events": items}})
	if err != nil {
		t.Fatalf("MarshalFrame: %v", err)
	}

	var got Frame
	if err := json.Unmarshal([]byte(strings.Join(chunks, "")), &got); err != nil {
		t.Fatalf("joined chunks not valid JSON: %v", err)
	}
	list := got.Data.(map[string]any)["events"].([]any)
	if len(list) != 301 {
		t.Fatalf("trimmed list has %d items, want 300 + marker", len(list))
	}
	if list[300] != "...(已截斷)" {
		t.Errorf("last item = %v, want marker", list[300])
	}
}

func TestMarshalFrameSplitsOnRuneBoundaries(t *testing.T) {
	// 300 strings just under the per-string cap stay intact after clamping,
	// so the frame still needs several chunks.
	items := make([]any, 300)
	for i := range items {
		items[i] = strings.Repeat("界", 3000)
	}
	chunks, err := MarshalFrame(Frame{Type: "update", Data: map[string]any{"events": items}})
	if err != nil {
		t.Fatalf("MarshalFrame: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected a multi-chunk frame, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > ChunkLimit {
			t.Errorf("chunk %d is %d bytes, over limit", i, len(c))
		}
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d splits a UTF-8 sequence", i)
		}
	}
	var got Frame
	if err := json.Unmarshal([]byte(strings.Join(chunks, "")), &got); err != nil {
		t.Fatalf("joined chunks not valid JSON: %v", err)
	}
}
