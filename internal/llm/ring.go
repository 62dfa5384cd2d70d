package llm

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// CallRecord is one logged model call.
type CallRecord struct {
	Time   time.Time
	Key    string
	Prompt string
	Raw    string
	Parsed string
}

// Ring is a bounded in-memory log of model calls, oldest first.
type Ring struct {
	mu      sync.Mutex
	cap     int
	entries []CallRecord
}

// NewRing creates a ring holding at most capacity records.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 400
	}
	return &Ring{cap: capacity}
}

// Add appends a record, stamping it and evicting the oldest past capacity.
func (r *Ring) Add(rec CallRecord) {
	if r == nil {
		return
	}
	rec.Time = time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, rec)
	if len(r.entries) > r.cap {
		r.entries = r.entries[len(r.entries)-r.cap:]
	}
}

// Snapshot returns a copy of the current records.
func (r *Ring) Snapshot() []CallRecord {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, len(r.entries))
	copy(out, r.entries)
	return out
}

// Dump renders the log for the debug console.
func (r *Ring) Dump() string {
	var b strings.Builder
	for _, rec := range r.Snapshot() {
		fmt.Fprintf(&b, "--- LLM Call @ %s ---\n", rec.Time.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "Prompt Key: %s\nFinal Prompt:\n---\n%s\n---\n", rec.Key, rec.Prompt)
		fmt.Fprintf(&b, "Raw Response:\n---\n%s\n---\n", rec.Raw)
		fmt.Fprintf(&b, "Final Parsed Output:\n---\n%s\n", rec.Parsed)
		b.WriteString("---------------------------------------------------\n\n")
	}
	return b.String()
}
