package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Plan is one agent's preset plan: a goal per weekday plus the ordered daily
// schedule.
type Plan struct {
	Weekly map[string]string
	Daily  []Item
}

type presetDocument map[string]struct {
	WeeklySchedule map[string]string `json:"weeklySchedule"`
	DailySchedule  []struct {
		Time   string `json:"time"`
		Action string `json:"action"`
		Target string `json:"target"`
	} `json:"dailySchedule"`
}

// Store holds preset plans keyed by agent name. Plans reload when the backing
// file changes, so a run can be re-tuned without restarting.
type Store struct {
	path string
	log  *slog.Logger

	mu    sync.RWMutex
	plans map[string]Plan
}

// LoadPreset reads the preset document at path.
func LoadPreset(path string, log *slog.Logger) (*Store, error) {
	s := &Store{path: path, log: log}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) reload() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read schedule file: %w", err)
	}
	var doc presetDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("parse schedule file %s: %w", s.path, err)
	}

	plans := make(map[string]Plan, len(doc))
	for name, raw := range doc {
		p := Plan{Weekly: raw.WeeklySchedule}
		for _, it := range raw.DailySchedule {
			if it.Time == "" || it.Action == "" {
				continue
			}
			start, err := NormalizeHM(it.Time)
			if err != nil {
				s.log.Warn("skipping schedule entry", "agent", name, "time", it.Time, "err", err)
				continue
			}
			target := it.Target
			if target == "" {
				target = it.Action
			}
			p.Daily = append(p.Daily, Item{Action: it.Action, Start: start, Target: target})
		}
		SortItems(p.Daily)
		plans[name] = p
	}

	s.mu.Lock()
	s.plans = plans
	s.mu.Unlock()
	return nil
}

// Plan returns the preset plan for an agent. A nil store has no plans.
func (s *Store) Plan(agent string) (Plan, bool) {
	if s == nil {
		return Plan{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[agent]
	return p, ok
}

// Agents returns the agent names present in the document.
func (s *Store) Agents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.plans))
	for name := range s.plans {
		names = append(names, name)
	}
	return names
}

// Watch reloads the store whenever the backing file is rewritten. It blocks
// until ctx is canceled. Editors often replace files by rename, so the watch
// is on the parent directory.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("schedule watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if err := s.reload(); err != nil {
				s.log.Warn("schedule reload failed", "err", err)
				continue
			}
			s.log.Info("schedule file reloaded", "path", s.path)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("schedule watcher error", "err", err)
		}
	}
}
